package looper_test

import (
	"testing"

	"github.com/vsariola/loopdeck"
	"github.com/vsariola/loopdeck/looper"
	"github.com/vsariola/loopdeck/store"
)

const testSampleRate = 1000

type (
	// recordingGraph is a looper.Graph remembering what was asked of it.
	recordingGraph struct {
		starts    []sourceStart
		stops     []int
		released  []int
		gains     map[int]float64
		pulses    []pulse
		cancels   int
		busGains  map[looper.Bus]float64
		busPans   map[looper.Bus]float64
		liveNodes map[int]bool
	}

	sourceStart struct {
		id     int
		offset int
	}

	pulse struct {
		at     float64
		accent bool
	}
)

func newRecordingGraph() *recordingGraph {
	return &recordingGraph{
		gains:     map[int]float64{},
		busGains:  map[looper.Bus]float64{},
		busPans:   map[looper.Bus]float64{},
		liveNodes: map[int]bool{},
	}
}

func (g *recordingGraph) StartSource(id int, buffer loopdeck.AudioBuffer, offset int) {
	g.starts = append(g.starts, sourceStart{id: id, offset: offset})
	g.liveNodes[id] = true
}

func (g *recordingGraph) StopSource(id int) {
	g.stops = append(g.stops, id)
	delete(g.liveNodes, id)
}

func (g *recordingGraph) ReleaseSource(id int) {
	g.released = append(g.released, id)
	delete(g.liveNodes, id)
}

func (g *recordingGraph) SetSourceGain(id int, gain float64) { g.gains[id] = gain }

func (g *recordingGraph) SchedulePulse(at float64, accent bool) {
	g.pulses = append(g.pulses, pulse{at: at, accent: accent})
}

func (g *recordingGraph) CancelPulses()                           { g.cancels++ }
func (g *recordingGraph) SetBusGain(bus looper.Bus, gain float64) { g.busGains[bus] = gain }
func (g *recordingGraph) SetBusPan(bus looper.Bus, pan float64)   { g.busPans[bus] = pan }
func (g *recordingGraph) SampleRate() int                         { return testSampleRate }

func (g *recordingGraph) lastStart(t *testing.T) sourceStart {
	t.Helper()
	if len(g.starts) == 0 {
		t.Fatal("no source was started")
	}
	return g.starts[len(g.starts)-1]
}

type fixture struct {
	model *looper.Model
	clock *looper.ManualClock
	graph *recordingGraph
	store *store.Memory
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	f := fixture{
		clock: &looper.ManualClock{},
		graph: newRecordingGraph(),
		store: store.NewMemory(),
	}
	f.model = looper.NewModel(f.clock, f.graph, f.store, looper.ModelOptions{})
	if err := f.model.LoadSettings(); err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	return f
}

// silence returns a buffer of the given length in seconds.
func silence(seconds float64) loopdeck.AudioBuffer {
	return make(loopdeck.AudioBuffer, int(seconds*testSampleRate))
}

// tickUntil advances the clock in steps slightly longer than the transport
// advance and ticks, until the play position reaches position.
func (f fixture) tickUntil(t *testing.T, position float64) {
	t.Helper()
	for i := 0; f.model.PlayPosition() < position; i++ {
		if i > 100000 {
			t.Fatalf("position stuck at %v", f.model.PlayPosition())
		}
		f.clock.Advance(0.0105)
		f.model.Tick()
	}
}
