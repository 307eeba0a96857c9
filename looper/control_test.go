package looper_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/vsariola/loopdeck"
	"github.com/vsariola/loopdeck/looper"
)

// bind binds action to the next signal routed through r.
func bind(t *testing.T, m *looper.Model, action looper.Action, route func() error) {
	t.Helper()
	m.SetControlEditSelected(action)
	if err := m.ToggleControlEditMode(); err != nil {
		t.Fatalf("entering edit mode: %v", err)
	}
	if err := route(); err != nil {
		t.Fatalf("capturing: %v", err)
	}
	if m.EditMode() {
		t.Fatal("expected capture to return to normal mode")
	}
}

func TestEditModeRequiresSelection(t *testing.T) {
	f := newFixture(t)
	if err := f.model.ToggleControlEditMode(); !errors.Is(err, looper.ErrNoActionSelected) {
		t.Errorf("expected ErrNoActionSelected, got %v", err)
	}
	if f.model.EditMode() {
		t.Error("entered edit mode without a selection")
	}
	if err := f.model.CaptureSignal(loopdeck.KeySignal("x")); !errors.Is(err, looper.ErrNotEditing) {
		t.Errorf("expected ErrNotEditing, got %v", err)
	}
}

func TestEditModeClosesDialog(t *testing.T) {
	f := newFixture(t)
	f.model.ToggleSettingsDialog()
	f.model.SetControlEditSelected(looper.MakeAction(looper.ActionStop))
	if err := f.model.ToggleControlEditMode(); err != nil {
		t.Fatal(err)
	}
	if f.model.Dialog() != looper.NoDialog {
		t.Errorf("expected dialog closed, got %v", f.model.Dialog())
	}
	if err := f.model.ToggleControlEditMode(); err != nil || f.model.EditMode() {
		t.Errorf("expected to leave edit mode, got %v", err)
	}
}

func TestSelectActionCycles(t *testing.T) {
	f := newFixture(t)
	f.model.AddTrack("a", silence(1))
	actions := f.model.Actions()
	selected := func() looper.Action {
		t.Helper()
		sel := f.model.ControlEdit().Selected
		if sel == nil {
			t.Fatal("expected a selection")
		}
		return *sel
	}
	f.model.SelectPreviousAction()
	if got := selected(); got != actions[len(actions)-1] {
		t.Errorf("expected last action without a selection, got %v", got)
	}
	f.model.SelectNextAction()
	if got := selected(); got != actions[0] {
		t.Errorf("expected wrap to first action, got %v", got)
	}
	f.model.SelectNextAction()
	if got := selected(); got != actions[1] {
		t.Errorf("expected second action, got %v", got)
	}
	if err := f.model.ToggleControlEditMode(); err != nil {
		t.Fatal(err)
	}
	f.model.ClearControlEditSelected()
	if f.model.EditMode() || f.model.ControlEdit().Selected != nil {
		t.Errorf("expected cleared session, got %+v", f.model.ControlEdit())
	}
}

func TestNoteMappingRoundTrip(t *testing.T) {
	f := newFixture(t)
	r := looper.NewRouter(f.model, nil)
	bind(t, f.model, looper.MakeAction(looper.ActionTogglePlayPause), func() error { return r.NoteOn(0, 60, 100) })
	if f.model.PlayState() != looper.Stopped {
		t.Fatal("capturing a signal should not perform the action")
	}
	if s, ok := f.model.ControlEditMap().Get(looper.MakeAction(looper.ActionTogglePlayPause)); !ok || s != loopdeck.NoteSignal(60) {
		t.Fatalf("expected binding to note 60, got %v %v", s, ok)
	}
	if err := r.NoteOn(3, 60, 90); err != nil {
		t.Fatal(err)
	}
	if f.model.PlayState() != looper.Playing {
		t.Error("expected note 60 on any channel to toggle play")
	}
	if err := r.NoteOn(0, 61, 90); err != nil {
		t.Fatal(err)
	}
	if f.model.PlayState() != looper.Playing {
		t.Error("note 61 should do nothing")
	}
	if err := r.NoteOn(0, 60, 0); err != nil {
		t.Fatal(err)
	}
	if f.model.PlayState() != looper.Playing {
		t.Error("note-on with velocity 0 should be ignored")
	}
	settings, err := looper.LoadSettings(f.store)
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := settings.ControlEditMap.Get(looper.MakeAction(looper.ActionTogglePlayPause)); s != loopdeck.NoteSignal(60) {
		t.Errorf("expected the binding persisted, got %v", s)
	}
}

func TestControlChangeFiltering(t *testing.T) {
	f := newFixture(t)
	r := looper.NewRouter(f.model, nil)
	bind(t, f.model, looper.MakeAction(looper.ActionToggleClick), func() error { return r.ControlChange(0, 20, 127) })
	for _, value := range []uint8{0, 64, 126} {
		if err := r.ControlChange(0, 20, value); err != nil {
			t.Fatal(err)
		}
	}
	if f.model.Click().Active {
		t.Fatal("control change values other than 127 should be dropped")
	}
	if err := r.ControlChange(0, 20, 127); err != nil {
		t.Fatal(err)
	}
	if !f.model.Click().Active {
		t.Error("expected value 127 to toggle the click")
	}
}

func TestKeyBindings(t *testing.T) {
	f := newFixture(t)
	r := looper.NewRouter(f.model, nil)
	f.model.AddTrack("a", silence(1))
	for _, key := range []string{" ", "1"} {
		if err := r.KeyUp(key); err != nil {
			t.Fatalf("key %q: %v", key, err)
		}
	}
	if f.model.PlayState() != looper.Playing {
		t.Error("expected space to toggle play")
	}
	if f.model.Tracks()[0].Active {
		t.Error("expected 1 to mute track 1")
	}
}

func TestLookupIsFirstMatch(t *testing.T) {
	f := newFixture(t)
	r := looper.NewRouter(f.model, nil)
	// toggleClick comes before toggleAboutDialog in the default bindings
	bind(t, f.model, looper.MakeAction(looper.ActionToggleAboutDialog), func() error { return r.NoteOn(0, 5, 1) })
	bind(t, f.model, looper.MakeAction(looper.ActionToggleClick), func() error { return r.NoteOn(0, 5, 1) })
	if err := r.NoteOn(0, 5, 1); err != nil {
		t.Fatal(err)
	}
	if !f.model.Click().Active {
		t.Error("expected the first binding in order to run")
	}
	if f.model.Dialog() != looper.NoDialog {
		t.Error("expected only the first binding to run")
	}
}

func TestTriggerUnknownAction(t *testing.T) {
	f := newFixture(t)
	data := []byte("controlEditMap:\n  warpDrive: {type: note, value: \"9\"}\n")
	if err := f.store.Set(looper.SettingsKey, data); err != nil {
		t.Fatal(err)
	}
	if err := f.model.LoadSettings(); err != nil {
		t.Fatal(err)
	}
	var alerts []looper.Alert
	f.model.SetListener(func(e looper.Event) {
		if a, ok := e.Data.(looper.Alert); ok {
			alerts = append(alerts, a)
		}
	})
	err := f.model.TriggerSignal(loopdeck.NoteSignal(9))
	if !errors.Is(err, looper.ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if len(alerts) != 1 || alerts[0].Priority != looper.Error {
		t.Errorf("expected one error alert, got %v", alerts)
	}
	if err := f.model.TriggerSignal(loopdeck.NoteSignal(10)); err != nil {
		t.Errorf("unbound signal should be ignored, got %v", err)
	}
}

func TestUnbindAction(t *testing.T) {
	f := newFixture(t)
	stop := looper.MakeAction(looper.ActionStop)
	f.model.UnbindAction(stop)
	if _, ok := f.model.ControlEditMap().Get(stop); ok {
		t.Error("expected stop unbound")
	}
	settings, err := looper.LoadSettings(f.store)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := settings.ControlEditMap.Get(stop); ok {
		t.Error("expected the removal persisted")
	}
}
