package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vsariola/loopdeck/config"
)

func TestDefault(t *testing.T) {
	p := config.Default()
	if err := p.Validate(); err != nil {
		t.Fatalf("default preferences are invalid: %v", err)
	}
	if p.PollInterval != time.Millisecond {
		t.Errorf("expected poll interval 1ms, got %v", p.PollInterval)
	}
	if p.TrackAdvance != 0.01 {
		t.Errorf("expected track advance 0.01, got %v", p.TrackAdvance)
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		env     map[string]string
		wantErr bool
		check   func(t *testing.T, p config.Preferences)
	}{
		{
			name: "missing file gives defaults",
			check: func(t *testing.T, p config.Preferences) {
				if p.SampleRate != 44100 {
					t.Errorf("expected 44100, got %d", p.SampleRate)
				}
			},
		},
		{
			name: "user file overrides defaults",
			file: "defaultBpm: 90\n",
			check: func(t *testing.T, p config.Preferences) {
				if p.DefaultBPM != 90 {
					t.Errorf("expected bpm 90, got %v", p.DefaultBPM)
				}
				if p.TimeSignature.Beats != 4 {
					t.Errorf("expected default beats kept, got %d", p.TimeSignature.Beats)
				}
			},
		},
		{
			name:    "unknown field is an error",
			file:    "sampleRat: 1\n",
			wantErr: true,
			check: func(t *testing.T, p config.Preferences) {
				if p.SampleRate != 44100 {
					t.Errorf("expected defaults on error, got %d", p.SampleRate)
				}
			},
		},
		{
			name: "environment overrides file",
			file: "logLevel: warn\n",
			env:  map[string]string{"LOOPDECK_LOG_LEVEL": "debug", "LOOPDECK_SAMPLE_RATE": "48000"},
			check: func(t *testing.T, p config.Preferences) {
				if p.LogLevel != "debug" || p.SampleRate != 48000 {
					t.Errorf("expected env overrides, got %q %d", p.LogLevel, p.SampleRate)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOOPDECK_LOG_LEVEL", "")
			t.Setenv("LOOPDECK_SAMPLE_RATE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			dir := t.TempDir()
			if tt.file != "" {
				if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(tt.file), 0o644); err != nil {
					t.Fatal(err)
				}
			}
			p, err := config.Load(dir)
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr %v, got %v", tt.wantErr, err)
			}
			tt.check(t, p)
		})
	}
}
