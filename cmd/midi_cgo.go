//go:build cgo

package cmd

import (
	"github.com/vsariola/loopdeck/looper"
	"github.com/vsariola/loopdeck/looper/gomidi"
)

func NewMidiContext(handler looper.MIDIHandler) (looper.MIDIContext, error) {
	return gomidi.NewContext(handler)
}
