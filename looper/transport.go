package looper

import "math"

type (
	// PlayState is the state of the transport.
	PlayState int

	// TransportClock decides when the logical play position advances. It
	// owns the start time of the current playback run and the number of
	// advances since then; both are reset only when playback starts.
	TransportClock struct {
		interval float64
		start    float64
		advances int
	}

	// Transport is the logical play/pause/stop state and the play position.
	// The position moves in steps of the transport clock interval; the
	// anchor gives the exact position between steps.
	Transport struct {
		state    PlayState
		position float64

		anchorPosition float64
		anchorTime     float64

		clock TransportClock
	}
)

const (
	Stopped PlayState = iota
	Playing
	Paused
)

// DefaultTrackAdvance is the step of the logical play position, in seconds.
const DefaultTrackAdvance = 0.01

func (s PlayState) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "stopped"
	}
}

func NewTransportClock(interval float64) TransportClock {
	if interval <= 0 || math.IsNaN(interval) {
		interval = DefaultTrackAdvance
	}
	return TransportClock{interval: interval}
}

func (c *TransportClock) Interval() float64 { return c.interval }

// Reset starts a new playback run at time now.
func (c *TransportClock) Reset(now float64) {
	c.start = now
	c.advances = 0
}

// Tick reports whether the position should advance by one interval at time
// now. The first tick after Reset is never due: it only primes the counter,
// so the ratio below never divides by zero.
func (c *TransportClock) Tick(now float64) bool {
	if c.advances == 0 {
		c.advances = 1
		return false
	}
	if (now-c.start)/float64(c.advances) > c.interval {
		c.advances++
		return true
	}
	return false
}

func NewTransport(advance float64) Transport {
	return Transport{clock: NewTransportClock(advance)}
}

func (t *Transport) State() PlayState  { return t.state }
func (t *Transport) Position() float64 { return t.position }

// ExactPosition returns the position at audio time now, interpolated from the
// last anchor while playing.
func (t *Transport) ExactPosition(now float64) float64 {
	if t.state != Playing {
		return t.position
	}
	return max(t.anchorPosition+now-t.anchorTime, 0)
}

// AnchorTime converts a transport position to audio time, using the current
// anchor.
func (t *Transport) AnchorTime(position float64) float64 {
	return t.anchorTime + position - t.anchorPosition
}

func (t *Transport) start(now float64) {
	t.state = Playing
	t.clock.Reset(now)
	t.anchor(now)
}

func (t *Transport) pause() {
	t.state = Paused
}

func (t *Transport) stop() {
	t.state = Stopped
	t.position = 0
}

func (t *Transport) seek(position float64, now float64) {
	t.position = max(position, 0)
	t.anchor(now)
}

func (t *Transport) anchor(now float64) {
	t.anchorPosition = t.position
	t.anchorTime = now
}

// tick advances the position if the transport clock is due, returning true
// if it did.
func (t *Transport) tick(now float64) bool {
	if t.state != Playing || !t.clock.Tick(now) {
		return false
	}
	t.position += t.clock.interval
	return true
}
