package loopdeck_test

import (
	"testing"

	"github.com/vsariola/loopdeck"
)

func TestSignals(t *testing.T) {
	tests := []struct {
		signal loopdeck.Signal
		want   string
	}{
		{loopdeck.KeySignal(" "), `key " "`},
		{loopdeck.NoteSignal(60), "note 60"},
		{loopdeck.ControlChangeSignal(7), "cc 7"},
	}
	for _, tt := range tests {
		if !tt.signal.Type.Valid() {
			t.Errorf("%v: expected a valid type", tt.signal)
		}
		if got := tt.signal.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}
	if loopdeck.NoteSignal(60) == loopdeck.ControlChangeSignal(60) {
		t.Error("note and controller with the same number must differ")
	}
	if loopdeck.SignalType("pedal").Valid() {
		t.Error("unknown signal type reported valid")
	}
}

func TestAudioBufferDuration(t *testing.T) {
	b := make(loopdeck.AudioBuffer, 22050)
	if d := b.Duration(44100); d != 0.5 {
		t.Errorf("expected 0.5, got %v", d)
	}
	if d := b.Duration(0); d != 0 {
		t.Errorf("expected 0 for an invalid rate, got %v", d)
	}
}
