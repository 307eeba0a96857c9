package looper

import "sync"

type (
	// Clock is a monotonic audio-domain clock. Now returns seconds since an
	// arbitrary origin. It is the only source of truth for elapsed time.
	Clock interface {
		Now() float64
	}

	// ManualClock is a Clock that only moves when told to. It is safe for
	// concurrent use.
	ManualClock struct {
		mu  sync.Mutex
		now float64
	}
)

func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d float64) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

// Set moves the clock to an absolute time.
func (c *ManualClock) Set(t float64) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
