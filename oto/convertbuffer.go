package oto

import (
	"encoding/binary"
	"math"

	"github.com/vsariola/loopdeck"
)

// FloatBufferTo32BitLE converts a stereo buffer to interleaved float32
// little-endian bytes, appending to out. Samples are clipped to [-1,1].
func FloatBufferTo32BitLE(buffer loopdeck.AudioBuffer, out []byte) []byte {
	for _, frame := range buffer {
		for _, v := range frame {
			v = max(min(v, 1), -1)
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
		}
	}
	return out
}
