package decode_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/pkg/errors"
	"github.com/vsariola/loopdeck"
	"github.com/vsariola/loopdeck/decode"
)

func writeWAV(t *testing.T, path string, sampleRate, bitDepth, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestFileWAV(t *testing.T) {
	dir := t.TempDir()
	mono := filepath.Join(dir, "mono.wav")
	writeWAV(t, mono, 44100, 16, 1, []int{0, 16384, -16384, 32767})
	stereo := filepath.Join(dir, "stereo.wav")
	writeWAV(t, stereo, 22050, 16, 2, []int{0, 0, 16384, -16384, 16384, -16384, 0, 0})
	tests := []struct {
		name   string
		path   string
		length int
	}{
		{"mono at engine rate", mono, 4},
		{"stereo at half rate", stereo, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := decode.File(tt.path, 44100)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(buf) != tt.length {
				t.Errorf("expected %d frames, got %d", tt.length, len(buf))
			}
		})
	}
	buf, err := decode.File(mono, 44100)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if buf[1][0] != 0.5 || buf[1][1] != 0.5 {
		t.Errorf("expected mono sample copied to both channels as 0.5, got %v", buf[1])
	}
}

func TestFileWAV8Bit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "8bit.wav")
	writeWAV(t, path, 44100, 8, 1, []int{128, 192, 64, 0})
	buf, err := decode.File(path, 44100)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []float32{0, 0.5, -0.5, -1}
	if len(buf) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(buf))
	}
	for i, w := range want {
		if buf[i][0] != w || buf[i][1] != w {
			t.Errorf("frame %d: expected %v, got %v", i, w, buf[i])
		}
	}
}

func TestFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.ogg")
	if err := os.WriteFile(path, []byte("OggS"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := decode.File(path, 44100)
	if !errors.Is(err, decode.ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestResample(t *testing.T) {
	in := loopdeck.AudioBuffer{{0, 0}, {1, -1}, {0, 0}, {-1, 1}}
	if out := decode.Resample(in, 44100, 44100); len(out) != 4 {
		t.Errorf("same rate should keep length, got %d", len(out))
	}
	out := decode.Resample(in, 22050, 44100)
	if len(out) != 8 {
		t.Fatalf("expected 8 frames, got %d", len(out))
	}
	if out[1] != [2]float32{0.5, -0.5} {
		t.Errorf("expected interpolated frame {0.5 -0.5}, got %v", out[1])
	}
	if out := decode.Resample(in, 44100, 22050); len(out) != 2 {
		t.Errorf("expected 2 frames when halving the rate, got %d", len(out))
	}
}
