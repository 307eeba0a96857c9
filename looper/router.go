package looper

import (
	"github.com/sirupsen/logrus"
	"github.com/vsariola/loopdeck"
)

type (
	// Router normalizes raw control inputs into Signals and dispatches them:
	// captured as a new binding in edit mode, triggered otherwise.
	Router struct {
		sink SignalSink
		log  logrus.FieldLogger
	}

	// SignalSink is what the Router dispatches signals to; the Model
	// implements it.
	SignalSink interface {
		EditMode() bool
		CaptureSignal(s loopdeck.Signal) error
		TriggerSignal(s loopdeck.Signal) error
	}
)

// controlChangeOn is the controller value sent by momentary buttons when
// pressed.
const controlChangeOn = 127

func NewRouter(sink SignalSink, log logrus.FieldLogger) *Router {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Router{sink: sink, log: log}
}

// KeyUp routes a released key.
func (r *Router) KeyUp(key string) error {
	if key == "" {
		return nil
	}
	return r.route(loopdeck.KeySignal(key))
}

// NoteOn routes a MIDI note-on. Velocity 0 means note-off and is ignored.
func (r *Router) NoteOn(channel, note, velocity uint8) error {
	if velocity == 0 {
		return nil
	}
	return r.route(loopdeck.NoteSignal(note))
}

// ControlChange routes a MIDI control change. Only the "pressed" value 127
// is routed.
func (r *Router) ControlChange(channel, controller, value uint8) error {
	if value != controlChangeOn {
		return nil
	}
	return r.route(loopdeck.ControlChangeSignal(controller))
}

func (r *Router) route(s loopdeck.Signal) error {
	if r.sink.EditMode() {
		r.log.WithField("signal", s.String()).Debug("capturing signal")
		return r.sink.CaptureSignal(s)
	}
	return r.sink.TriggerSignal(s)
}
