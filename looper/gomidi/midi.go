// Package gomidi implements looper.MIDIContext with the rtmidi driver of
// gitlab.com/gomidi/midi.
package gomidi

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/vsariola/loopdeck/looper"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Context lists the MIDI inputs and forwards the note-on and control change
// messages of the open one to a handler. The handler is called from the
// driver's goroutine.
type Context struct {
	mu        sync.Mutex
	driver    *rtmididrv.Driver
	handler   looper.MIDIHandler
	currentIn drivers.In
	stop      func()
}

var ErrNoSuchInput = errors.New("no such MIDI input")

// NewContext opens the driver.
func NewContext(handler looper.MIDIHandler) (*Context, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, errors.Wrap(err, "opening rtmidi driver")
	}
	return &Context{driver: driver, handler: handler}, nil
}

// Inputs can be iterated to get the names of the MIDI inputs.
func (c *Context) Inputs(yield func(name string) bool) {
	ins, err := c.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		if !yield(in.String()) {
			return
		}
	}
}

// Open opens the input with the given name, or failing an exact match, the
// first input whose name starts with it. The previously open input is
// closed.
func (c *Context) Open(name string) error {
	in, err := c.find(name)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentIn != nil && c.currentIn.String() == in.String() && c.currentIn.IsOpen() {
		return nil
	}
	c.closeCurrent()
	if err := in.Open(); err != nil {
		return errors.Wrapf(err, "opening MIDI input %q", in.String())
	}
	stop, err := midi.ListenTo(in, c.handleMessage)
	if err != nil {
		in.Close()
		return errors.Wrapf(err, "listening to MIDI input %q", in.String())
	}
	c.currentIn = in
	c.stop = stop
	return nil
}

func (c *Context) find(name string) (drivers.In, error) {
	ins, err := c.driver.Ins()
	if err != nil {
		return nil, errors.Wrap(err, "listing MIDI inputs")
	}
	for _, in := range ins {
		if in.String() == name {
			return in, nil
		}
	}
	if name != "" {
		for _, in := range ins {
			if strings.HasPrefix(in.String(), name) {
				return in, nil
			}
		}
	}
	return nil, errors.Wrapf(ErrNoSuchInput, "%q", name)
}

func (c *Context) handleMessage(msg midi.Message, timestampms int32) {
	var channel, key, value uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &value):
		c.handler.NoteOn(channel, key, value)
	case msg.GetControlChange(&channel, &key, &value):
		c.handler.ControlChange(channel, key, value)
	}
}

func (c *Context) closeCurrent() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.currentIn = nil
}

// Close closes the open input and the driver.
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCurrent()
	if err := c.driver.Close(); err != nil {
		return errors.Wrap(err, "closing rtmidi driver")
	}
	return nil
}
