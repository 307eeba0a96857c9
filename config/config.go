// Package config loads the preferences of loopdeck: the embedded defaults,
// overridden by the user's preferences.yml and then by environment
// variables.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type (
	Preferences struct {
		SampleRate     int           `yaml:"sampleRate"`
		BufferFrames   int           `yaml:"bufferFrames"`
		PollInterval   time.Duration `yaml:"pollInterval"`
		TrackAdvance   float64       `yaml:"trackAdvance"`
		ClickLookahead float64       `yaml:"clickLookahead"`
		DefaultBPM     float64       `yaml:"defaultBpm"`
		TimeSignature  TimeSignature `yaml:"timeSignature"`
		StatusTemplate string        `yaml:"statusTemplate"`
		StatusInterval time.Duration `yaml:"statusInterval"`
		LogLevel       string        `yaml:"logLevel"`
	}

	TimeSignature struct {
		Beats int `yaml:"beats"`
		Unit  int `yaml:"unit"`
	}
)

const FileName = "preferences.yml"

//go:embed preferences.yml
var defaultPreferencesYaml []byte

// Default returns the embedded default preferences.
func Default() Preferences {
	var p Preferences
	if err := yaml.UnmarshalStrict(defaultPreferencesYaml, &p); err != nil {
		panic(fmt.Errorf("failed to unmarshal preferences: %w", err))
	}
	return p
}

// DefaultDir is <UserConfigDir>/loopdeck.
func DefaultDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locating config directory")
	}
	return filepath.Join(configDir, "loopdeck"), nil
}

// Load reads the preferences from dir/preferences.yml over the defaults.
// A missing file is not an error. On a decoding error, the defaults with
// environment overrides are returned together with the error.
func Load(dir string) (Preferences, error) {
	p := Default()
	var ymlErr error
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err == nil {
		custom := p
		if err := yaml.UnmarshalStrict(data, &custom); err != nil {
			ymlErr = errors.Wrapf(err, "decoding %s", filepath.Join(dir, FileName))
		} else {
			p = custom
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		ymlErr = errors.Wrapf(err, "reading %s", FileName)
	}
	p.LogLevel = envStr("LOOPDECK_LOG_LEVEL", p.LogLevel)
	p.SampleRate = envInt("LOOPDECK_SAMPLE_RATE", p.SampleRate)
	return p, ymlErr
}

// Validate reports the first preference out of its range.
func (p Preferences) Validate() error {
	switch {
	case p.SampleRate <= 0:
		return errors.Errorf("sampleRate must be positive, got %d", p.SampleRate)
	case p.BufferFrames < 0:
		return errors.Errorf("bufferFrames must not be negative, got %d", p.BufferFrames)
	case p.PollInterval <= 0:
		return errors.Errorf("pollInterval must be positive, got %v", p.PollInterval)
	case p.TrackAdvance <= 0:
		return errors.Errorf("trackAdvance must be positive, got %v", p.TrackAdvance)
	case p.DefaultBPM <= 0:
		return errors.Errorf("defaultBpm must be positive, got %v", p.DefaultBPM)
	case p.TimeSignature.Beats < 1 || p.TimeSignature.Unit < 1:
		return errors.Errorf("invalid time signature %d/%d", p.TimeSignature.Beats, p.TimeSignature.Unit)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
