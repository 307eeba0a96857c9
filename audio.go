package loopdeck

import "io"

type (
	// AudioBuffer is a buffer of stereo audio samples of variable length, each
	// sample represented by [2]float32. [0] is left channel, [1] is right
	AudioBuffer [][2]float32

	// AudioContext is the output device. Play starts pulling audio from the
	// given callback, which is expected to fill the whole buffer each time,
	// until the returned closer is closed.
	AudioContext interface {
		Play(fill func(buffer AudioBuffer)) io.Closer
		SampleRate() int
		Close() error
	}
)

// Duration returns the length of the buffer in seconds at the given sample
// rate.
func (b AudioBuffer) Duration(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(b)) / float64(sampleRate)
}

// Fill sets all samples of the buffer to given value
func (b AudioBuffer) Fill(value [2]float32) {
	for i := range b {
		b[i] = value
	}
}
