// Package oto implements loopdeck.AudioContext on top of the ebitengine oto
// audio library.
package oto

import (
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/pkg/errors"
	"github.com/vsariola/loopdeck"
)

type (
	OtoContext struct {
		context    *oto.Context
		sampleRate int
	}

	// OtoPlayer pulls audio from the fill callback as the device asks for it.
	OtoPlayer struct {
		player *oto.Player
		reader *otoReader
	}

	otoReader struct {
		mu        sync.Mutex
		fill      func(buffer loopdeck.AudioBuffer)
		audio     loopdeck.AudioBuffer
		tmpBuffer []byte
		closed    bool
		remainder []byte
	}
)

// bytesPerFrame is two channels of float32
const bytesPerFrame = 8

// NewContext opens the default output device. bufferFrames is the size of
// the device buffer; 0 uses the default of the platform.
func NewContext(sampleRate, bufferFrames int) (*OtoContext, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	if bufferFrames > 0 {
		op.BufferSize = time.Duration(bufferFrames) * time.Second / time.Duration(sampleRate)
	}
	context, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create oto context")
	}
	<-ready
	return &OtoContext{context: context, sampleRate: sampleRate}, nil
}

func (c *OtoContext) SampleRate() int { return c.sampleRate }

// Play starts a new player pulling from fill.
func (c *OtoContext) Play(fill func(buffer loopdeck.AudioBuffer)) io.Closer {
	r := &otoReader{fill: fill}
	p := c.context.NewPlayer(r)
	p.Play()
	return &OtoPlayer{player: p, reader: r}
}

// Close suspends the device; oto contexts cannot be reopened within a
// process.
func (c *OtoContext) Close() error {
	if err := c.context.Suspend(); err != nil {
		return errors.Wrap(err, "cannot suspend oto context")
	}
	return nil
}

func (o *OtoPlayer) Close() error {
	o.reader.mu.Lock()
	o.reader.closed = true
	o.reader.mu.Unlock()
	if err := o.player.Close(); err != nil {
		return errors.Wrap(err, "cannot close oto player")
	}
	return nil
}

func (r *otoReader) Read(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, io.EOF
	}
	if len(r.remainder) > 0 {
		n = copy(p, r.remainder)
		r.remainder = r.remainder[n:]
		return n, nil
	}
	frames := max(len(p)/bytesPerFrame, 1)
	if cap(r.audio) < frames {
		r.audio = make(loopdeck.AudioBuffer, frames)
	}
	r.audio = r.audio[:frames]
	r.fill(r.audio)
	// the remainder is always consumed before tmpBuffer is reused
	r.tmpBuffer = FloatBufferTo32BitLE(r.audio, r.tmpBuffer[:0])
	n = copy(p, r.tmpBuffer)
	r.remainder = r.tmpBuffer[n:]
	return n, nil
}
