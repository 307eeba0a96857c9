package looper

import (
	"io"
	"sync"
	"time"

	"github.com/vsariola/loopdeck"
)

type (
	// NullAudioContext pulls audio blocks at real-time pace and discards
	// them. It keeps the renderer, and thus the audio clock, running when
	// there is no output device.
	NullAudioContext struct {
		Rate        int
		BlockFrames int
	}

	nullPlayer struct {
		stop chan struct{}
		once sync.Once
		wg   sync.WaitGroup
	}
)

func (c NullAudioContext) SampleRate() int { return c.Rate }
func (c NullAudioContext) Close() error    { return nil }

func (c NullAudioContext) Play(fill func(buffer loopdeck.AudioBuffer)) io.Closer {
	frames := c.BlockFrames
	if frames <= 0 {
		frames = 512
	}
	p := &nullPlayer{stop: make(chan struct{})}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		buffer := make(loopdeck.AudioBuffer, frames)
		ticker := time.NewTicker(time.Duration(frames) * time.Second / time.Duration(max(c.Rate, 1)))
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				fill(buffer)
			}
		}
	}()
	return p
}

func (p *nullPlayer) Close() error {
	p.once.Do(func() { close(p.stop) })
	p.wg.Wait()
	return nil
}
