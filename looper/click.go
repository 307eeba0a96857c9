package looper

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

type (
	TimeSignature struct {
		Beats int `yaml:"beats"`
		Unit  int `yaml:"unit"`
	}

	// Click is the metronome. It counts pulses since the last sync point and
	// schedules each pulse on the graph ahead of time, so the pulses are
	// sample accurate even though the event loop is not.
	Click struct {
		Active        bool
		bpm           float64
		timeSignature TimeSignature

		// Lookahead is how early before its time a pulse is scheduled, and
		// LateTolerance how late a pulse can be and still be played; later
		// pulses are skipped silently.
		Lookahead     float64
		LateTolerance float64

		count int
	}

	// ClickState is what the click needs to know of the transport on each
	// event loop.
	ClickState struct {
		Playing  bool
		Now      float64 // audio clock
		Position float64 // exact transport position at Now
		// TimeAt converts a transport position to audio time.
		TimeAt func(position float64) float64
	}

	// ClickBeats is the position in measures and beats, both zero based.
	ClickBeats struct {
		Measure int
		Beat    int
	}
)

const (
	DefaultBPM           = 102
	DefaultLookahead     = 0.025
	DefaultLateTolerance = 0.02

	minBPM = 1
	maxBPM = 999
)

var (
	ErrInvalidBPM           = errors.New("bpm must be positive")
	ErrInvalidTimeSignature = errors.New("time signature beats and unit must be at least 1")
)

func NewClick(bpm float64, ts TimeSignature) *Click {
	c := &Click{
		bpm:           DefaultBPM,
		timeSignature: TimeSignature{Beats: 4, Unit: 4},
		Lookahead:     DefaultLookahead,
		LateTolerance: DefaultLateTolerance,
	}
	c.SetBPM(bpm)
	c.SetTimeSignature(ts)
	return c
}

func (c *Click) BPM() float64                 { return c.bpm }
func (c *Click) TimeSignature() TimeSignature { return c.timeSignature }

// Interval returns the length of one beat in seconds.
func (c *Click) Interval() float64 { return 60 / c.bpm }

func (c *Click) SetBPM(bpm float64) error {
	if !(bpm > 0) || math.IsInf(bpm, 0) {
		return errors.Wrapf(ErrInvalidBPM, "got %v", bpm)
	}
	c.bpm = clamp(bpm, minBPM, maxBPM)
	return nil
}

func (c *Click) SetTimeSignature(ts TimeSignature) error {
	if ts.Beats < 1 || ts.Unit < 1 {
		return errors.Wrapf(ErrInvalidTimeSignature, "got %d/%d", ts.Beats, ts.Unit)
	}
	c.timeSignature = ts
	return nil
}

// EventLoopCount returns the index of the next pulse to be emitted.
func (c *Click) EventLoopCount() int { return c.count }

// SetEventLoopCount sets the pulse counter directly, e.g. to
// floor(position / Interval()) when seeking.
func (c *Click) SetEventLoopCount(n int) { c.count = max(n, 0) }

// Sync recomputes the pulse counter for the given transport position.
func (c *Click) Sync(position float64) {
	c.SetEventLoopCount(int(math.Floor(position / c.Interval())))
}

// EventLoop emits at most one pulse: the pulse with index EventLoopCount,
// once the transport is within Lookahead of it. Calling it again before the
// next pulse is due does nothing. The count advances even when the click is
// not active, so activating it mid-play does not replay old pulses.
func (c *Click) EventLoop(g Graph, s ClickState) {
	if !s.Playing {
		return
	}
	pulsePos := float64(c.count) * c.Interval()
	if s.Position+c.Lookahead < pulsePos {
		return
	}
	at := s.TimeAt(pulsePos)
	k := c.count
	c.count++
	if !c.Active || s.Now-at > c.LateTolerance {
		return
	}
	g.SchedulePulse(at, k%c.timeSignature.Beats == 0)
}

// Beats returns the measure and beat at the given position.
func (c *Click) Beats(position float64) ClickBeats {
	n := int(math.Floor(max(position, 0) / c.Interval()))
	return ClickBeats{Measure: n / c.timeSignature.Beats, Beat: n % c.timeSignature.Beats}
}

func (b ClickBeats) String() string {
	return fmt.Sprintf("%d.%d", b.Measure+1, b.Beat+1)
}
