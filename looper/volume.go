package looper

import (
	"math"

	"github.com/pkg/errors"
	"github.com/vsariola/loopdeck"
)

type (
	// Volume is the level of the left and right channels, in decibels
	// relative to full scale.
	Volume [2]float64

	// VolumeAnalyzer meters the master output once per rendered block. Level
	// follows the block RMS with separate attack and release time constants;
	// Peak jumps to the block peak and falls at PeakFall dB per second.
	VolumeAnalyzer struct {
		Level Volume
		Peak  Volume

		Attack     float64 // seconds
		Release    float64 // seconds
		PeakFall   float64 // dB per second
		Min, Max   float64 // dB
		SampleRate int
	}
)

var errNaN = errors.New("NaN detected in master output")

func toDecibels(power, lo, hi float64) float64 {
	if power <= 0 {
		return lo
	}
	return clamp(10*math.Log10(power), lo, hi)
}

// Update meters the buffer. NaN samples are skipped and reported with an
// error after the rest of the buffer has been metered.
func (v *VolumeAnalyzer) Update(buffer loopdeck.AudioBuffer) (err error) {
	if len(buffer) == 0 || v.SampleRate <= 0 {
		return nil
	}
	blockTime := float64(len(buffer)) / float64(v.SampleRate)
	for c := range 2 {
		var sum, peak float64
		n := 0
		for _, frame := range buffer {
			s := float64(frame[c])
			if math.IsNaN(s) {
				err = errNaN
				continue
			}
			sum += s * s
			peak = max(peak, s*s)
			n++
		}
		rms := v.Min
		if n > 0 {
			rms = toDecibels(sum/float64(n), v.Min, v.Max)
		}
		tc := v.Release
		if rms > v.Level[c] {
			tc = v.Attack
		}
		alpha := 1.0
		if tc > 0 {
			alpha = 1 - math.Exp(-blockTime/tc)
		}
		v.Level[c] += (rms - v.Level[c]) * alpha
		v.Peak[c] = max(toDecibels(peak, v.Min, v.Max), v.Peak[c]-v.PeakFall*blockTime, v.Min)
	}
	return err
}
