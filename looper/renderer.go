package looper

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/viterin/vek/vek32"
	"github.com/vsariola/loopdeck"
)

type (
	// Graph is the audio graph as seen by the model. Tracks own disjoint
	// source nodes feeding the shared track bus; the click feeds its own bus.
	// Only the mixer policy sets source gains. Implementations must not block.
	Graph interface {
		StartSource(id int, buffer loopdeck.AudioBuffer, offset int)
		StopSource(id int)
		ReleaseSource(id int)
		SetSourceGain(id int, gain float64)
		SchedulePulse(at float64, accent bool)
		CancelPulses()
		SetBusGain(bus Bus, gain float64)
		SetBusPan(bus Bus, pan float64)
		SampleRate() int
	}

	Bus int

	// Renderer mixes the track sources and click pulses into the output. It
	// is run in the audio thread: Process is the only method that may be
	// called there, all the Graph methods just post messages to it. The
	// number of frames rendered so far is the audio clock of the looper.
	Renderer struct {
		sampleRate int
		broker     *Broker
		frames     atomic.Int64

		sources map[int]*source
		gains   map[int]float32
		pulses  []pulse
		voices  []clickVoice
		buses   [numBuses]busState
		volume  VolumeAnalyzer

		busBuf [numBuses][]float32
		tmp    []float32
	}

	source struct {
		buffer loopdeck.AudioBuffer
		pos    int
		gain   float32
	}

	pulse struct {
		frame  int64
		accent bool
	}

	clickVoice struct {
		phase, freq float64
		age, length int
	}

	busState struct {
		gain float32
		pan  float32
	}

	startSourceMsg struct {
		id     int
		buffer loopdeck.AudioBuffer
		offset int
	}
	stopSourceMsg    struct{ id int }
	releaseSourceMsg struct{ id int }
	sourceGainMsg    struct {
		id   int
		gain float64
	}
	pulseMsg        pulse
	cancelPulsesMsg struct{}
	busGainMsg      struct {
		bus  Bus
		gain float64
	}
	busPanMsg struct {
		bus Bus
		pan float64
	}
)

const (
	TrackBus Bus = iota
	ClickBus
	numBuses
)

const (
	clickFrequency       = 1000.0
	clickAccentFrequency = 1500.0
	clickLength          = 0.05 // seconds
	clickDecay           = 8.0  // envelope decays by e^-clickDecay over clickLength
	clickLevel           = 0.5
)

func NewRenderer(broker *Broker, sampleRate int) *Renderer {
	r := &Renderer{
		sampleRate: sampleRate,
		broker:     broker,
		sources:    map[int]*source{},
		gains:      map[int]float32{},
		volume: VolumeAnalyzer{
			Attack:     0.3,
			Release:    0.3,
			PeakFall:   20,
			Min:        -100,
			Max:        20,
			SampleRate: sampleRate,
			Level:      Volume{-100, -100},
			Peak:       Volume{-100, -100},
		},
	}
	for i := range r.buses {
		r.buses[i].gain = 1
	}
	return r
}

// Now returns the audio clock: seconds of audio rendered so far.
func (r *Renderer) Now() float64 {
	return float64(r.frames.Load()) / float64(r.sampleRate)
}

func (r *Renderer) SampleRate() int { return r.sampleRate }

func (r *Renderer) StartSource(id int, buffer loopdeck.AudioBuffer, offset int) {
	TrySend(r.broker.ToRenderer, any(startSourceMsg{id: id, buffer: buffer, offset: offset}))
}

func (r *Renderer) StopSource(id int) {
	TrySend(r.broker.ToRenderer, any(stopSourceMsg{id: id}))
}

func (r *Renderer) ReleaseSource(id int) {
	TrySend(r.broker.ToRenderer, any(releaseSourceMsg{id: id}))
}

func (r *Renderer) SetSourceGain(id int, gain float64) {
	TrySend(r.broker.ToRenderer, any(sourceGainMsg{id: id, gain: gain}))
}

func (r *Renderer) SchedulePulse(at float64, accent bool) {
	frame := int64(math.Round(at * float64(r.sampleRate)))
	TrySend(r.broker.ToRenderer, any(pulseMsg{frame: frame, accent: accent}))
}

func (r *Renderer) CancelPulses() {
	TrySend(r.broker.ToRenderer, any(cancelPulsesMsg{}))
}

func (r *Renderer) SetBusGain(bus Bus, gain float64) {
	TrySend(r.broker.ToRenderer, any(busGainMsg{bus: bus, gain: gain}))
}

func (r *Renderer) SetBusPan(bus Bus, pan float64) {
	TrySend(r.broker.ToRenderer, any(busPanMsg{bus: bus, pan: pan}))
}

// Process renders the next block of audio to buffer, filling it completely.
func (r *Renderer) Process(buffer loopdeck.AudioBuffer) {
	r.processMessages()
	n := len(buffer)
	for b := range r.busBuf {
		r.busBuf[b] = resize(r.busBuf[b], 2*n)
		clear(r.busBuf[b])
	}
	r.tmp = resize(r.tmp, 2*n)
	r.renderSources(n)
	r.renderClick(n)
	for b := range r.buses {
		bs := r.buses[b]
		vek32.MulNumber_Inplace(r.busBuf[b], bs.gain)
		left, right := balance(bs.pan)
		for i := 0; i < n; i++ {
			r.busBuf[b][2*i] *= left
			r.busBuf[b][2*i+1] *= right
		}
	}
	vek32.Add_Inplace(r.busBuf[TrackBus], r.busBuf[ClickBus])
	master := r.busBuf[TrackBus]
	for i := range buffer {
		buffer[i] = [2]float32{master[2*i], master[2*i+1]}
	}
	r.frames.Add(int64(n))
	if err := r.volume.Update(buffer); err != nil {
		TrySend(r.broker.ToModel, MsgToModel{Data: Alert{Name: "RendererNaN", Message: err.Error(), Priority: Warning}})
	}
	TrySend(r.broker.ToModel, MsgToModel{HasLevel: true, Level: r.volume.Level})
}

func (r *Renderer) renderSources(n int) {
	for id, s := range r.sources {
		m := min(n, len(s.buffer)-s.pos)
		if m <= 0 {
			delete(r.sources, id)
			continue
		}
		t := r.tmp[:2*m]
		for i, v := range s.buffer[s.pos : s.pos+m] {
			t[2*i], t[2*i+1] = v[0], v[1]
		}
		vek32.MulNumber_Inplace(t, s.gain)
		vek32.Add_Inplace(r.busBuf[TrackBus][:2*m], t)
		s.pos += m
	}
}

func (r *Renderer) renderClick(n int) {
	blockStart := r.frames.Load()
	out := r.busBuf[ClickBus]
	for len(r.pulses) > 0 && r.pulses[0].frame < blockStart+int64(n) {
		p := r.pulses[0]
		r.pulses = r.pulses[1:]
		freq := clickFrequency
		if p.accent {
			freq = clickAccentFrequency
		}
		v := clickVoice{freq: freq, length: int(clickLength * float64(r.sampleRate))}
		// pulses that are already late start at the block start
		v.age = -int(max(p.frame-blockStart, 0))
		r.voices = append(r.voices, v)
	}
	alive := r.voices[:0]
	for _, v := range r.voices {
		for i := 0; i < n && v.age < v.length; i++ {
			if v.age < 0 {
				v.age++
				continue
			}
			env := math.Exp(-clickDecay * float64(v.age) / float64(v.length))
			s := float32(clickLevel * env * math.Sin(v.phase))
			v.phase += 2 * math.Pi * v.freq / float64(r.sampleRate)
			out[2*i] += s
			out[2*i+1] += s
			v.age++
		}
		if v.age < v.length {
			alive = append(alive, v)
		}
	}
	r.voices = alive
}

func (r *Renderer) processMessages() {
loop:
	for {
		select {
		case msg := <-r.broker.ToRenderer:
			switch m := msg.(type) {
			case startSourceMsg:
				gain, ok := r.gains[m.id]
				if !ok {
					gain = 1
				}
				r.sources[m.id] = &source{buffer: m.buffer, pos: m.offset, gain: gain}
			case stopSourceMsg:
				delete(r.sources, m.id)
			case releaseSourceMsg:
				delete(r.sources, m.id)
				delete(r.gains, m.id)
			case sourceGainMsg:
				r.gains[m.id] = float32(m.gain)
				if s, ok := r.sources[m.id]; ok {
					s.gain = float32(m.gain)
				}
			case pulseMsg:
				i := sort.Search(len(r.pulses), func(i int) bool { return r.pulses[i].frame > m.frame })
				r.pulses = append(r.pulses, pulse{})
				copy(r.pulses[i+1:], r.pulses[i:])
				r.pulses[i] = pulse(m)
			case cancelPulsesMsg:
				r.pulses = r.pulses[:0]
			case busGainMsg:
				r.buses[m.bus].gain = float32(max(m.gain, 0))
			case busPanMsg:
				r.buses[m.bus].pan = float32(min(max(m.pan, -1), 1))
			default:
				// ignore unknown messages
			}
		default:
			break loop
		}
	}
}

// balance returns the left and right gains of a stereo balance control:
// pan -1 silences the right channel, +1 the left one, 0 passes both.
func balance(pan float32) (left, right float32) {
	return min(1, 1-pan), min(1, 1+pan)
}

func resize(s []float32, n int) []float32 {
	if cap(s) < n {
		return make([]float32, n)
	}
	return s[:n]
}
