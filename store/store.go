// Package store keeps small blobs by key, on disk or in memory.
package store

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
)

type (
	// Store is the key-value interface used for persisting settings.
	Store interface {
		Get(key string) (value []byte, ok bool, err error)
		Set(key string, value []byte) error
	}

	// Dir stores each key as <key>.yml in a directory.
	Dir struct {
		path string
	}

	// Memory is a Store kept in memory.
	Memory struct {
		mu     sync.Mutex
		values map[string][]byte
	}
)

var ErrInvalidKey = errors.New("invalid key")

// NewDir returns a Store in the directory at path, expanding a leading ~.
// The directory is created on first write.
func NewDir(path string) (*Dir, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return nil, errors.Wrapf(err, "expanding %q", path)
	}
	return &Dir{path: p}, nil
}

func (d *Dir) Path() string { return d.path }

func (d *Dir) file(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return "", errors.Wrapf(ErrInvalidKey, "%q", key)
	}
	return filepath.Join(d.path, key+".yml"), nil
}

func (d *Dir) Get(key string) ([]byte, bool, error) {
	path, err := d.file(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "reading %s", path)
	}
	return data, true, nil
}

// Set writes the value to a temporary file and renames it over the old one,
// so a crash never leaves a partially written value behind.
func (d *Dir) Set(key string, value []byte) error {
	path, err := d.file(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", d.path)
	}
	tmp, err := os.CreateTemp(d.path, key+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temporary file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "writing %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "closing %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "renaming to %s", path)
	}
	return nil
}

func NewMemory() *Memory { return &Memory{values: map[string][]byte{}} }

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return append([]byte(nil), v...), ok, nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string][]byte{}
	}
	m.values[key] = append([]byte(nil), value...)
	return nil
}
