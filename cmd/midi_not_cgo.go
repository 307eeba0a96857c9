//go:build !cgo

package cmd

import (
	"github.com/vsariola/loopdeck/looper"
)

func NewMidiContext(handler looper.MIDIHandler) (looper.MIDIContext, error) {
	// with no cgo, we cannot use MIDI
	return looper.NullMIDIContext{}, looper.ErrMIDIUnavailable
}
