package looper

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vsariola/loopdeck"
)

type (
	// Model is the whole mutable state of the looper: the transport, the
	// tracks, the click, the settings and the control edit session.
	//
	// Model is not safe for concurrent use. It is owned by one goroutine,
	// normally the Engine's, and every operation runs to completion before
	// the next one starts. The audio thread is only reached through the
	// Graph, and time only through the Clock.
	Model struct {
		transport Transport
		tracks    []*Track
		solo      *Track
		click     *Click
		settings  Settings
		dialog    Dialog
		edit      ControlEditSession
		level     Volume
		nextID    int

		clock    Clock
		graph    Graph
		store    Store
		midi     MIDIContext
		log      logrus.FieldLogger
		listener func(Event)
	}

	// ModelOptions configures a new Model. Zero fields get defaults.
	ModelOptions struct {
		TrackAdvance   float64 // seconds per advance of the play position
		BPM            float64
		TimeSignature  TimeSignature
		ClickLookahead float64
		MIDI           MIDIContext
		Logger         logrus.FieldLogger
	}

	Dialog int

	// Event tells observers what part of the model changed.
	Event struct {
		Kind EventKind
		Data any
	}

	EventKind int
)

const (
	NoDialog Dialog = iota
	SettingsDialog
	AboutDialog
)

const (
	EventTransport EventKind = iota
	EventPosition
	EventTracks
	EventMixer
	EventClick
	EventDialog
	EventControlEdit
	EventSettings
	EventLevel
	EventAlert
)

var ErrNoSuchTrack = errors.New("no such track")

func (d Dialog) String() string {
	switch d {
	case SettingsDialog:
		return "settings"
	case AboutDialog:
		return "about"
	default:
		return ""
	}
}

// NewModel creates a stopped model with default settings. Call LoadSettings
// to read the persisted settings from the store.
func NewModel(clock Clock, graph Graph, store Store, opts ModelOptions) *Model {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.MIDI == nil {
		opts.MIDI = NullMIDIContext{}
	}
	if opts.BPM <= 0 {
		opts.BPM = DefaultBPM
	}
	if opts.TimeSignature.Beats < 1 || opts.TimeSignature.Unit < 1 {
		opts.TimeSignature = TimeSignature{Beats: 4, Unit: 4}
	}
	m := &Model{
		transport: NewTransport(opts.TrackAdvance),
		click:     NewClick(opts.BPM, opts.TimeSignature),
		settings:  DefaultSettings(),
		clock:     clock,
		graph:     graph,
		store:     store,
		midi:      opts.MIDI,
		log:       opts.Logger.WithField("component", "model"),
		level:     Volume{-100, -100},
	}
	if opts.ClickLookahead > 0 {
		m.click.Lookahead = opts.ClickLookahead
	}
	m.applySettings()
	return m
}

// SetListener sets the function called on every change of the model.
func (m *Model) SetListener(f func(Event)) { m.listener = f }

func (m *Model) notify(e Event) {
	if m.listener != nil {
		m.listener(e)
	}
}

// LoadSettings reads the settings from the store and applies them. Missing
// or undecodable settings fall back to defaults; the latter is reported as
// a warning. If the settings name a MIDI device, it is opened and a failure
// to do so is returned.
func (m *Model) LoadSettings() error {
	s, err := LoadSettings(m.store)
	if err != nil {
		m.alertf("SettingsLoad", Warning, err)
	}
	m.settings = s
	m.applySettings()
	m.notify(Event{Kind: EventSettings})
	if s.MidiDeviceName != "" {
		if err := m.midi.Open(s.MidiDeviceName); err != nil {
			return errors.Wrapf(err, "opening MIDI input %q", s.MidiDeviceName)
		}
		m.log.WithField("device", s.MidiDeviceName).Info("opened MIDI input")
	}
	return nil
}

func (m *Model) applySettings() {
	m.graph.SetBusPan(TrackBus, m.settings.TrackPanning)
	m.graph.SetBusPan(ClickBus, m.settings.ClickPanning)
	m.graph.SetBusGain(ClickBus, m.settings.ClickGainValue)
	for _, t := range m.tracks {
		m.applyGain(t)
	}
}

func (m *Model) saveSettings() {
	if err := SaveSettings(m.store, &m.settings); err != nil {
		m.alertf("SettingsSave", Error, err)
	}
	m.notify(Event{Kind: EventSettings})
}

// Transport

func (m *Model) PlayState() PlayState  { return m.transport.State() }
func (m *Model) PlayPosition() float64 { return m.transport.Position() }

// ExactPosition returns the play position interpolated to the current audio
// time.
func (m *Model) ExactPosition() float64 { return m.transport.ExactPosition(m.clock.Now()) }

// PlayPause toggles between playing and paused. Starting playback resets the
// transport clock, resyncs the click and rebuilds every track's source at
// the play position.
func (m *Model) PlayPause() {
	if m.transport.State() == Playing {
		for _, t := range m.tracks {
			t.Pause(m.graph)
		}
		m.graph.CancelPulses()
		m.transport.pause()
		m.log.WithField("position", m.transport.Position()).Debug("paused")
	} else {
		now := m.clock.Now()
		m.transport.start(now)
		m.click.Sync(m.transport.Position())
		for _, t := range m.tracks {
			t.Play(m.graph, m.transport.Position())
		}
		m.log.WithField("position", m.transport.Position()).Debug("playing")
	}
	m.notify(Event{Kind: EventTransport})
}

// PlayAt seeks to position. The click counter is recomputed for the new
// position; if playing, the tracks restart from there.
func (m *Model) PlayAt(position float64) {
	m.transport.seek(position, m.clock.Now())
	position = m.transport.Position()
	m.click.Sync(position)
	m.graph.CancelPulses()
	if m.transport.State() == Playing {
		for _, t := range m.tracks {
			t.Play(m.graph, position)
		}
	}
	for _, t := range m.tracks {
		t.EventLoop(position)
	}
	m.notify(Event{Kind: EventPosition})
}

// Stop stops playback and rewinds to zero. It takes effect immediately: the
// next tick sees the transport stopped.
func (m *Model) Stop() {
	if m.transport.State() == Playing {
		for _, t := range m.tracks {
			t.Stop(m.graph)
		}
	}
	m.transport.stop()
	m.click.SetEventLoopCount(0)
	m.graph.CancelPulses()
	for _, t := range m.tracks {
		t.EventLoop(m.transport.Position())
	}
	m.log.Debug("stopped")
	m.notify(Event{Kind: EventTransport})
}

// Tick is one iteration of the playback event loop. While playing, it
// advances the play position when the transport clock is due and lets the
// tracks follow it; the click runs on every tick.
func (m *Model) Tick() {
	if m.transport.State() != Playing {
		return
	}
	now := m.clock.Now()
	if m.transport.tick(now) {
		for _, t := range m.tracks {
			t.EventLoop(m.transport.Position())
		}
		m.notify(Event{Kind: EventPosition})
	}
	m.click.EventLoop(m.graph, ClickState{
		Playing:  true,
		Now:      now,
		Position: m.transport.ExactPosition(now),
		TimeAt:   m.transport.AnchorTime,
	})
}

// Tracks

// Tracks returns the tracks in order. The slice is a copy.
func (m *Model) Tracks() []*Track { return slices.Clone(m.tracks) }

// Track returns the track with 0-based index i.
func (m *Model) Track(i int) (*Track, error) {
	if i < 0 || i >= len(m.tracks) {
		return nil, errors.Wrapf(ErrNoSuchTrack, "index %d", i)
	}
	return m.tracks[i], nil
}

// AddTrack creates a track from a decoded buffer. A track added while
// playing joins at the current position.
func (m *Model) AddTrack(name string, buffer loopdeck.AudioBuffer) *Track {
	m.nextID++
	t := newTrack(m.nextID, name, buffer, m.graph.SampleRate())
	m.tracks = append(m.tracks, t)
	m.applyGain(t)
	if m.transport.State() == Playing {
		t.Play(m.graph, m.ExactPosition())
	}
	t.EventLoop(m.transport.Position())
	m.log.WithFields(logrus.Fields{"track": name, "duration": t.Duration()}).Info("added track")
	m.notify(Event{Kind: EventTracks})
	return t
}

func (m *Model) RemoveTrack(t *Track) error {
	i := slices.Index(m.tracks, t)
	if i < 0 {
		return ErrNoSuchTrack
	}
	t.Stop(m.graph)
	m.graph.ReleaseSource(t.id)
	m.tracks = slices.Delete(m.tracks, i, i+1)
	if m.solo == t {
		m.SetSoloTrack(nil)
	}
	m.log.WithField("track", t.Name).Info("removed track")
	m.notify(Event{Kind: EventTracks})
	return nil
}

// SetTrackGainValue sets the track's own gain, clamped to [0,1].
func (m *Model) SetTrackGainValue(t *Track, value float64) {
	t.GainValue = clamp(value, 0, 1)
	m.applyGain(t)
	m.notify(Event{Kind: EventMixer})
}

// SetTrackActive unmutes (true) or mutes (false) the track.
func (m *Model) SetTrackActive(t *Track, value bool) {
	t.Active = value
	m.applyGain(t)
	m.notify(Event{Kind: EventMixer})
}

// SetSoloTrack solos t, or clears the solo if t is nil.
func (m *Model) SetSoloTrack(t *Track) {
	m.solo = t
	for _, t := range m.tracks {
		m.applyGain(t)
	}
	m.notify(Event{Kind: EventMixer})
}

func (m *Model) SoloTrack() *Track { return m.solo }

// Gain returns the effective gain of a track under the mixer policy.
func (m *Model) Gain(t *Track) float64 {
	return ComputeGain(t, &m.settings, m.solo)
}

func (m *Model) applyGain(t *Track) {
	m.graph.SetSourceGain(t.id, m.Gain(t))
}

// Click

func (m *Model) Click() *Click { return m.click }

func (m *Model) ToggleClickActive() { m.SetClickActive(!m.click.Active) }

func (m *Model) SetClickActive(value bool) {
	m.click.Active = value
	m.notify(Event{Kind: EventClick})
}

// SetClickBPM changes the tempo. While playing, pulses already scheduled
// are dropped and the counter is recomputed for the new tempo, skipping the
// pulse of the beat already underway.
func (m *Model) SetClickBPM(value float64) error {
	if err := m.click.SetBPM(value); err != nil {
		return err
	}
	if m.transport.State() == Playing {
		m.graph.CancelPulses()
		pos := m.ExactPosition()
		m.click.Sync(pos)
		if float64(m.click.EventLoopCount())*m.click.Interval() < pos {
			m.click.SetEventLoopCount(m.click.EventLoopCount() + 1)
		}
	} else {
		m.click.Sync(m.transport.Position())
	}
	m.notify(Event{Kind: EventClick})
	return nil
}

func (m *Model) SetClickTimeSignature(ts TimeSignature) error {
	if err := m.click.SetTimeSignature(ts); err != nil {
		return err
	}
	m.notify(Event{Kind: EventClick})
	return nil
}

// ClickBeats returns the measure and beat of the play position.
func (m *Model) ClickBeats() ClickBeats { return m.click.Beats(m.transport.Position()) }

// Dialogs

func (m *Model) Dialog() Dialog { return m.dialog }

func (m *Model) SetDialog(d Dialog) {
	m.dialog = d
	m.notify(Event{Kind: EventDialog})
}

func (m *Model) ToggleSettingsDialog() { m.toggleDialog(SettingsDialog) }
func (m *Model) ToggleAboutDialog()    { m.toggleDialog(AboutDialog) }

func (m *Model) toggleDialog(d Dialog) {
	if m.dialog == d {
		d = NoDialog
	}
	m.SetDialog(d)
}

// Settings

// Settings returns a copy of the current settings.
func (m *Model) Settings() Settings {
	s := m.settings
	s.ControlEditMap = m.settings.ControlEditMap.Copy()
	return s
}

// SetMasterTrackGainValue sets the global gain of all tracks.
func (m *Model) SetMasterTrackGainValue(value float64) {
	m.settings.TrackGainValue = clamp(value, 0, 1)
	for _, t := range m.tracks {
		m.applyGain(t)
	}
	m.saveSettings()
}

func (m *Model) SetTrackPanning(value float64) {
	m.settings.TrackPanning = clamp(value, -1, 1)
	m.graph.SetBusPan(TrackBus, m.settings.TrackPanning)
	m.saveSettings()
}

func (m *Model) SetClickPanning(value float64) {
	m.settings.ClickPanning = clamp(value, -1, 1)
	m.graph.SetBusPan(ClickBus, m.settings.ClickPanning)
	m.saveSettings()
}

func (m *Model) SetClickGainValue(value float64) {
	m.settings.ClickGainValue = max(value, 0)
	m.graph.SetBusGain(ClickBus, m.settings.ClickGainValue)
	m.saveSettings()
}

// SetMidiDeviceName opens the named MIDI input and persists the choice. The
// choice is not persisted if the device cannot be opened.
func (m *Model) SetMidiDeviceName(name string) error {
	if err := m.midi.Open(name); err != nil {
		err = errors.Wrapf(err, "opening MIDI input %q", name)
		m.alertf("MIDIOpen", Error, err)
		return err
	}
	m.settings.MidiDeviceName = name
	m.log.WithField("device", name).Info("opened MIDI input")
	m.saveSettings()
	return nil
}

// Level returns the last master output level reported by the renderer.
func (m *Model) Level() Volume { return m.level }

// ProcessRendererMessage handles a message sent by the renderer.
func (m *Model) ProcessRendererMessage(msg MsgToModel) {
	if msg.HasLevel {
		m.level = msg.Level
		m.notify(Event{Kind: EventLevel})
	}
	switch e := msg.Data.(type) {
	case Alert:
		m.Alert(e)
	default:
	}
}
