package looper_test

import (
	"testing"

	"github.com/vsariola/loopdeck/looper"
)

func TestComputeGain(t *testing.T) {
	other := &looper.Track{Active: true, GainValue: 1}
	tests := []struct {
		name     string
		active   bool
		gain     float64
		master   float64
		soloSelf bool
		solo     *looper.Track
		want     float64
	}{
		{"active at unity", true, 1, 1, false, nil, 1},
		{"muted", false, 1, 1, false, nil, 0},
		{"scaled by master", true, 0.5, 0.5, false, nil, 0.25},
		{"clamped to one", true, 1, 3, false, nil, 1},
		{"other track soloed", true, 1, 1, false, other, 0},
		{"soloed itself", true, 0.8, 1, true, nil, 0.8},
		{"solo does not unmute", false, 1, 1, true, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := &looper.Track{Active: tt.active, GainValue: tt.gain}
			settings := looper.Settings{TrackGainValue: tt.master}
			solo := tt.solo
			if tt.soloSelf {
				solo = track
			}
			if got := looper.ComputeGain(track, &settings, solo); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSoloTwoTracks(t *testing.T) {
	f := newFixture(t)
	a := f.model.AddTrack("a", silence(1))
	b := f.model.AddTrack("b", silence(1))
	f.model.SetSoloTrack(a)
	if f.graph.gains[a.ID()] != 1 || f.graph.gains[b.ID()] != 0 {
		t.Fatalf("expected a=1 b=0, got a=%v b=%v", f.graph.gains[a.ID()], f.graph.gains[b.ID()])
	}
	f.model.SetTrackActive(a, false)
	if f.graph.gains[a.ID()] != 0 {
		t.Errorf("expected muted solo track to be silent, got %v", f.graph.gains[a.ID()])
	}
	f.model.SetSoloTrack(nil)
	if f.graph.gains[b.ID()] != 1 {
		t.Errorf("expected b audible after clearing solo, got %v", f.graph.gains[b.ID()])
	}
}

func TestSetMasterTrackGainValue(t *testing.T) {
	f := newFixture(t)
	a := f.model.AddTrack("a", silence(1))
	f.model.SetTrackGainValue(a, 0.8)
	f.model.SetMasterTrackGainValue(0.5)
	s := f.model.Settings()
	if s.TrackGainValue != 0.5 || s.TrackPanning != 0 {
		t.Errorf("expected trackGainValue 0.5 and panning untouched, got %v and %v", s.TrackGainValue, s.TrackPanning)
	}
	if g := f.graph.gains[a.ID()]; g != 0.4 {
		t.Errorf("expected gain 0.4, got %v", g)
	}
	loaded, err := looper.LoadSettings(f.store)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.TrackGainValue != 0.5 {
		t.Errorf("expected the master gain persisted, got %v", loaded.TrackGainValue)
	}
}

func TestTrackGainClamped(t *testing.T) {
	f := newFixture(t)
	a := f.model.AddTrack("a", silence(1))
	f.model.SetTrackGainValue(a, 1.5)
	if a.GainValue != 1 {
		t.Errorf("expected 1, got %v", a.GainValue)
	}
	f.model.SetTrackGainValue(a, -1)
	if a.GainValue != 0 {
		t.Errorf("expected 0, got %v", a.GainValue)
	}
}

func TestBusSettings(t *testing.T) {
	f := newFixture(t)
	f.model.SetTrackPanning(-2)
	f.model.SetClickPanning(0.25)
	f.model.SetClickGainValue(0.5)
	if f.graph.busPans[looper.TrackBus] != -1 {
		t.Errorf("expected track pan clamped to -1, got %v", f.graph.busPans[looper.TrackBus])
	}
	if f.graph.busPans[looper.ClickBus] != 0.25 || f.graph.busGains[looper.ClickBus] != 0.5 {
		t.Errorf("unexpected click bus %v %v", f.graph.busPans[looper.ClickBus], f.graph.busGains[looper.ClickBus])
	}
}
