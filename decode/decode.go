// Package decode reads WAV and MP3 files into stereo buffers at the sample
// rate of the engine.
package decode

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/vsariola/loopdeck"
)

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// ExpandPath expands a leading ~ and environment variables in path.
func ExpandPath(path string) (string, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return "", errors.Wrapf(err, "expanding %q", path)
	}
	return os.ExpandEnv(p), nil
}

// File decodes the file at path, choosing the decoder by extension.
func File(path string, sampleRate int) (loopdeck.AudioBuffer, error) {
	p, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, errors.Wrap(err, "opening audio file")
	}
	defer f.Close()
	var buf loopdeck.AudioBuffer
	switch ext := strings.ToLower(filepath.Ext(p)); ext {
	case ".wav":
		buf, err = WAV(f, sampleRate)
	case ".mp3":
		buf, err = MP3(f, sampleRate)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return buf, nil
}

// WAV decodes PCM WAV data.
func WAV(r io.ReadSeeker, sampleRate int) (loopdeck.AudioBuffer, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}
	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "reading PCM data")
	}
	bitDepth := int(decoder.SampleBitDepth())
	if bitDepth == 0 {
		return nil, errors.New("unknown bit depth")
	}
	channels := pcm.Format.NumChannels
	if channels < 1 {
		return nil, errors.New("no channels")
	}
	factor := float32(math.Pow(2, float64(bitDepth-1)))
	// 8-bit PCM is unsigned
	var offset int
	if bitDepth == 8 {
		offset = 128
	}
	frames := len(pcm.Data) / channels
	ret := make(loopdeck.AudioBuffer, frames)
	for i := range ret {
		left := float32(pcm.Data[i*channels]-offset) / factor
		right := left
		if channels > 1 {
			right = float32(pcm.Data[i*channels+1]-offset) / factor
		}
		ret[i] = [2]float32{left, right}
	}
	return Resample(ret, pcm.Format.SampleRate, sampleRate), nil
}

// MP3 decodes MPEG-1 layer 3 data. The decoder always produces 16-bit
// stereo.
func MP3(r io.Reader, sampleRate int) (loopdeck.AudioBuffer, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading MP3 header")
	}
	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, errors.Wrap(err, "reading MP3 frames")
	}
	ret := make(loopdeck.AudioBuffer, len(data)/4)
	for i := range ret {
		left := int16(binary.LittleEndian.Uint16(data[i*4:]))
		right := int16(binary.LittleEndian.Uint16(data[i*4+2:]))
		ret[i] = [2]float32{float32(left) / 32768, float32(right) / 32768}
	}
	return Resample(ret, decoder.SampleRate(), sampleRate), nil
}

// Resample converts buffer from rate from to rate to by linear
// interpolation. The buffer is returned as is if the rates match.
func Resample(buffer loopdeck.AudioBuffer, from, to int) loopdeck.AudioBuffer {
	if from == to || from <= 0 || to <= 0 || len(buffer) == 0 {
		return buffer
	}
	n := int(math.Round(float64(len(buffer)) * float64(to) / float64(from)))
	ret := make(loopdeck.AudioBuffer, n)
	step := float64(from) / float64(to)
	last := len(buffer) - 1
	for i := range ret {
		pos := float64(i) * step
		i0 := min(int(pos), last)
		i1 := min(i0+1, last)
		frac := float32(pos - float64(i0))
		for c := range 2 {
			ret[i][c] = buffer[i0][c] + (buffer[i1][c]-buffer[i0][c])*frac
		}
	}
	return ret
}
