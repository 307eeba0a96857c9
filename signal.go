package loopdeck

import (
	"fmt"
	"strconv"
)

type (
	// Signal is a control input event normalized from one of the physical
	// sources: a key release, a MIDI note-on or a MIDI control change. Two
	// Signals identify the same physical input if and only if they are equal.
	Signal struct {
		Type  SignalType `yaml:"type"`
		Value string     `yaml:"value"`
	}

	SignalType string
)

const (
	SignalKey           SignalType = "key"
	SignalNote          SignalType = "note"
	SignalControlChange SignalType = "controlChange"
)

// KeySignal returns the Signal of a released key. key is a key identifier,
// e.g. "a", " " or "Enter".
func KeySignal(key string) Signal {
	return Signal{Type: SignalKey, Value: key}
}

// NoteSignal returns the Signal of a MIDI note-on, regardless of channel.
func NoteSignal(note uint8) Signal {
	return Signal{Type: SignalNote, Value: strconv.Itoa(int(note))}
}

// ControlChangeSignal returns the Signal of a MIDI controller, regardless of
// channel.
func ControlChangeSignal(controller uint8) Signal {
	return Signal{Type: SignalControlChange, Value: strconv.Itoa(int(controller))}
}

func (t SignalType) Valid() bool {
	switch t {
	case SignalKey, SignalNote, SignalControlChange:
		return true
	}
	return false
}

func (s Signal) String() string {
	switch s.Type {
	case SignalKey:
		return fmt.Sprintf("key %q", s.Value)
	case SignalNote:
		return "note " + s.Value
	case SignalControlChange:
		return "cc " + s.Value
	}
	return fmt.Sprintf("%s %s", s.Type, s.Value)
}
