package looper

import "github.com/pkg/errors"

type (
	// MIDIContext is the MIDI driver as seen by the model: it can list input
	// devices by name and open one of them. Opening a device closes the
	// previously open one. Events of the open device are delivered to the
	// handler given when the context was created.
	MIDIContext interface {
		Inputs(yield func(name string) bool)
		Open(name string) error
		Close() error
	}

	// MIDIHandler receives the events of the open MIDI input, on any channel.
	MIDIHandler interface {
		NoteOn(channel, note, velocity uint8)
		ControlChange(channel, controller, value uint8)
	}

	// NullMIDIContext is used when MIDI is not available; it has no inputs.
	NullMIDIContext struct{}
)

var ErrMIDIUnavailable = errors.New("MIDI is not available")

func (NullMIDIContext) Inputs(yield func(name string) bool) {}
func (NullMIDIContext) Open(name string) error {
	return errors.Wrapf(ErrMIDIUnavailable, "cannot open %q", name)
}
func (NullMIDIContext) Close() error { return nil }
