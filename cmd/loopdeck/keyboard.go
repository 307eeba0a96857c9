package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vsariola/loopdeck/looper"
	"golang.org/x/term"
)

const (
	keyCtrlC = 0x03
	keyCtrlD = 0x04
	keyEsc   = 0x1b
)

// escapeKeys names the cursor key sequences.
var escapeKeys = map[string]string{
	"\x1b[A": "ArrowUp",
	"\x1b[B": "ArrowDown",
	"\x1b[C": "ArrowRight",
	"\x1b[D": "ArrowLeft",
}

// startKeyboard puts the terminal in raw mode and routes every key pressed
// to the engine. A terminal reports presses only, so each press is routed as
// a release. Ctrl+C and Ctrl+D quit.
func startKeyboard(ctx context.Context, quit func(), engine *looper.Engine, log *logrus.Logger) (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, errors.Wrap(err, "entering raw mode")
	}
	out := log.Out
	log.SetOutput(crlfWriter{out})
	go func() {
		buf := make([]byte, 16)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil || ctx.Err() != nil {
				return
			}
			for _, key := range splitKeys(buf[:n]) {
				if key == string(rune(keyCtrlC)) || key == string(rune(keyCtrlD)) {
					quit()
					return
				}
				engine.KeyUp(key)
			}
		}
	}()
	return func() {
		log.SetOutput(out)
		term.Restore(fd, state)
	}, nil
}

// splitKeys splits the bytes of one read into key names.
func splitKeys(b []byte) []string {
	var keys []string
	for len(b) > 0 {
		if b[0] == keyEsc {
			if len(b) >= 3 {
				if name, ok := escapeKeys[string(b[:3])]; ok {
					keys = append(keys, name)
					b = b[3:]
					continue
				}
			}
			keys = append(keys, "Escape")
			b = b[1:]
			continue
		}
		switch b[0] {
		case '\r', '\n':
			keys = append(keys, "Enter")
		case '\t':
			keys = append(keys, "Tab")
		case 0x7f, 0x08:
			keys = append(keys, "Backspace")
		default:
			r, size := utf8.DecodeRune(b)
			keys = append(keys, string(r))
			b = b[size:]
			continue
		}
		b = b[1:]
	}
	return keys
}

// crlfWriter adds carriage returns, which raw mode no longer outputs.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
