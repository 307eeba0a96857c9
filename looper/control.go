package looper

import (
	"github.com/pkg/errors"
	"github.com/vsariola/loopdeck"
)

// ControlEditSession is the state of the control binding editor. In edit
// mode, the next captured signal is bound to the selected action.
type ControlEditSession struct {
	EditMode bool
	Selected *Action
}

var (
	ErrNoActionSelected = errors.New("no action selected")
	ErrNotEditing       = errors.New("not in control edit mode")
)

func (m *Model) ControlEdit() ControlEditSession { return m.edit }

// ControlEditMap returns a copy of the current bindings.
func (m *Model) ControlEditMap() ControlEditMap { return m.settings.ControlEditMap.Copy() }

// ToggleControlEditMode enters or leaves edit mode, closing any dialog.
// Entering requires a selected action.
func (m *Model) ToggleControlEditMode() error {
	if !m.edit.EditMode && m.edit.Selected == nil {
		return ErrNoActionSelected
	}
	m.edit.EditMode = !m.edit.EditMode
	m.notify(Event{Kind: EventControlEdit})
	if m.dialog != NoDialog {
		m.SetDialog(NoDialog)
	}
	return nil
}

// SetControlEditSelected selects the action the next captured signal is
// bound to.
func (m *Model) SetControlEditSelected(a Action) {
	m.edit.Selected = &a
	m.notify(Event{Kind: EventControlEdit})
}

// SelectNextAction selects the action after the selected one in
// Model.Actions, wrapping around. Without a selection, the first action is
// selected.
func (m *Model) SelectNextAction() { m.stepSelected(1) }

// SelectPreviousAction selects the action before the selected one, wrapping
// around. Without a selection, the last action is selected.
func (m *Model) SelectPreviousAction() { m.stepSelected(-1) }

func (m *Model) stepSelected(step int) {
	actions := m.Actions()
	if len(actions) == 0 {
		return
	}
	i := -1
	if m.edit.Selected != nil {
		for j, a := range actions {
			if a == *m.edit.Selected {
				i = j
				break
			}
		}
	}
	switch {
	case i >= 0:
		i = (i + step + len(actions)) % len(actions)
	case step > 0:
		i = 0
	default:
		i = len(actions) - 1
	}
	m.SetControlEditSelected(actions[i])
}

// ClearControlEditSelected deselects the action and leaves edit mode.
func (m *Model) ClearControlEditSelected() {
	m.edit = ControlEditSession{}
	m.notify(Event{Kind: EventControlEdit})
}

// EditMode reports whether incoming signals are captured instead of
// triggered.
func (m *Model) EditMode() bool { return m.edit.EditMode }

// CaptureSignal binds s to the selected action, persists the bindings and
// returns to normal mode.
func (m *Model) CaptureSignal(s loopdeck.Signal) error {
	if !m.edit.EditMode {
		return ErrNotEditing
	}
	if m.edit.Selected == nil {
		return ErrNoActionSelected
	}
	if !s.Type.Valid() {
		return errors.Errorf("invalid signal type %q", s.Type)
	}
	a := *m.edit.Selected
	m.settings.ControlEditMap.Set(a, s)
	m.edit.EditMode = false
	m.log.WithField("action", a.String()).WithField("signal", s.String()).Info("bound control")
	m.notify(Event{Kind: EventControlEdit})
	m.saveSettings()
	return nil
}

// UnbindAction removes the binding of a.
func (m *Model) UnbindAction(a Action) {
	m.settings.ControlEditMap.Delete(a)
	m.notify(Event{Kind: EventControlEdit})
	m.saveSettings()
}

// TriggerSignal performs the first action bound to s. Signals without a
// binding do nothing. A failing action is reported as an error alert and
// its error returned.
func (m *Model) TriggerSignal(s loopdeck.Signal) error {
	a, ok := m.settings.ControlEditMap.Lookup(s)
	if !ok {
		return nil
	}
	if err := m.Do(a); err != nil {
		err = errors.Wrapf(err, "%s", s)
		m.alertf("ControlAction", Error, err)
		return err
	}
	return nil
}
