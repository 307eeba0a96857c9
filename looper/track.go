package looper

import (
	"github.com/vsariola/loopdeck"
)

// Track is one loaded audio buffer with its own source node in the graph. The
// node is single-use: it is rebuilt every time playback starts, since the
// start offset is fixed when a node is created. Track does not know the play
// position; the transport owns it and passes it in.
type Track struct {
	Name      string
	Active    bool
	GainValue float64

	id         int
	buffer     loopdeck.AudioBuffer
	sampleRate int
	nodeLive   bool
	cursor     float64
}

func newTrack(id int, name string, buffer loopdeck.AudioBuffer, sampleRate int) *Track {
	return &Track{
		Name:       name,
		Active:     true,
		GainValue:  1,
		id:         id,
		buffer:     buffer,
		sampleRate: sampleRate,
	}
}

func (t *Track) ID() int { return t.id }

// Duration returns the length of the track in seconds.
func (t *Track) Duration() float64 { return t.buffer.Duration(t.sampleRate) }

// Cursor returns the position last seen by EventLoop, clamped to the track.
func (t *Track) Cursor() float64 { return t.cursor }

// Progress returns the cursor as a fraction of the duration, in [0,1].
func (t *Track) Progress() float64 {
	d := t.Duration()
	if d <= 0 {
		return 0
	}
	return t.cursor / d
}

// Playing reports whether the track has a source node that was neither
// stopped nor played to the end.
func (t *Track) Playing() bool { return t.nodeLive }

// Play builds a new source node starting at position (seconds) within the
// buffer. Positions past the end of the buffer start nothing.
func (t *Track) Play(g Graph, position float64) {
	t.stopNode(g)
	offset := int(max(position, 0) * float64(t.sampleRate))
	if offset >= len(t.buffer) {
		return
	}
	g.StartSource(t.id, t.buffer, offset)
	t.nodeLive = true
}

func (t *Track) Pause(g Graph) { t.stopNode(g) }

func (t *Track) Stop(g Graph) { t.stopNode(g) }

// EventLoop syncs the view state of the track to the play position. It never
// touches the audio graph: once the position passes the end, the graph has
// already dropped the source.
func (t *Track) EventLoop(position float64) {
	t.cursor = clamp(position, 0, t.Duration())
	if position >= t.Duration() {
		t.nodeLive = false
	}
}

func (t *Track) stopNode(g Graph) {
	if t.nodeLive {
		g.StopSource(t.id)
		t.nodeLive = false
	}
}
