package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/vsariola/loopdeck"
	"github.com/vsariola/loopdeck/looper"
	"github.com/vsariola/loopdeck/oto"
)

// NewAudioContext opens the output device, or returns a context discarding
// the audio if noAudio is set or the device cannot be opened.
func NewAudioContext(noAudio bool, sampleRate, bufferFrames int, log logrus.FieldLogger) loopdeck.AudioContext {
	null := looper.NullAudioContext{Rate: sampleRate, BlockFrames: bufferFrames}
	if noAudio {
		return null
	}
	c, err := oto.NewContext(sampleRate, bufferFrames)
	if err != nil {
		log.WithError(err).Warn("no audio output, continuing silently")
		return null
	}
	return c
}
