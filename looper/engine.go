package looper

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type (
	// Engine serializes all access to a Model onto one goroutine. Every
	// operation, input event and renderer message is handled there, one at
	// a time, interleaved with the ticks of the playback event loop.
	Engine struct {
		model    *Model
		router   *Router
		broker   *Broker
		ops      chan func(m *Model)
		done     chan struct{}
		interval time.Duration
		log      logrus.FieldLogger

		mu      sync.Mutex
		subs    map[int]chan Event
		nextSub int
		closed  bool
	}

	EngineOptions struct {
		PollInterval time.Duration // how often the playback event loop ticks
		QueueLength  int
		Logger       logrus.FieldLogger
	}
)

const DefaultPollInterval = time.Millisecond

var ErrEngineClosed = errors.New("engine closed")

// NewEngine takes ownership of the model: after this, the model should only
// be accessed through Do and Sync.
func NewEngine(model *Model, broker *Broker, opts EngineOptions) *Engine {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.QueueLength <= 0 {
		opts.QueueLength = 64
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	e := &Engine{
		model:    model,
		broker:   broker,
		ops:      make(chan func(m *Model), opts.QueueLength),
		done:     make(chan struct{}),
		interval: opts.PollInterval,
		log:      opts.Logger.WithField("component", "engine"),
		subs:     map[int]chan Event{},
	}
	e.router = NewRouter(model, e.log)
	model.SetListener(e.publish)
	return e
}

// Run runs the engine until ctx is canceled or a message is sent to
// broker.CloseEngine. On exit, the transport is stopped, subscriptions are
// closed and broker.FinishedEngine is closed.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	defer e.shutdown()
	e.log.WithField("interval", e.interval).Debug("engine running")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.broker.CloseEngine:
			return nil
		case <-ticker.C:
			e.model.Tick()
		case op := <-e.ops:
			op(e.model)
		case msg := <-e.broker.ToModel:
			e.model.ProcessRendererMessage(msg)
		}
	}
}

func (e *Engine) shutdown() {
	e.model.Stop()
	e.mu.Lock()
	e.closed = true
	for id, c := range e.subs {
		close(c)
		delete(e.subs, id)
	}
	e.mu.Unlock()
	close(e.done)
	close(e.broker.FinishedEngine)
	e.log.Debug("engine finished")
}

// Done is closed when Run has returned.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Do queues op to be run on the engine goroutine. It blocks while the queue
// is full and returns false if the engine has finished.
func (e *Engine) Do(op func(m *Model)) bool {
	select {
	case <-e.done:
		return false
	default:
	}
	select {
	case e.ops <- op:
		return true
	case <-e.done:
		return false
	}
}

// Sync runs op on the engine goroutine and waits for its result.
func (e *Engine) Sync(op func(m *Model) error) error {
	result := make(chan error, 1)
	if !e.Do(func(m *Model) { result <- op(m) }) {
		return ErrEngineClosed
	}
	select {
	case err := <-result:
		return err
	case <-e.done:
		// the op may have run just before shutdown
		select {
		case err := <-result:
			return err
		default:
			return ErrEngineClosed
		}
	}
}

// Subscribe returns a channel receiving the model's change events. Events
// are dropped when the channel is full. The channel is closed by cancel or
// when the engine finishes.
func (e *Engine) Subscribe(buffer int) (events <-chan Event, cancel func()) {
	c := make(chan Event, max(buffer, 1))
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(c)
		return c, func() {}
	}
	id := e.nextSub
	e.nextSub++
	e.subs[id] = c
	return c, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if c, ok := e.subs[id]; ok {
			close(c)
			delete(e.subs, id)
		}
	}
}

func (e *Engine) publish(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.subs {
		TrySend(c, ev)
	}
}

// KeyUp routes a released key on the engine goroutine.
func (e *Engine) KeyUp(key string) {
	e.Do(func(m *Model) { e.report(e.router.KeyUp(key)) })
}

// NoteOn routes a MIDI note-on on the engine goroutine.
func (e *Engine) NoteOn(channel, note, velocity uint8) {
	e.Do(func(m *Model) { e.report(e.router.NoteOn(channel, note, velocity)) })
}

// ControlChange routes a MIDI control change on the engine goroutine.
func (e *Engine) ControlChange(channel, controller, value uint8) {
	e.Do(func(m *Model) { e.report(e.router.ControlChange(channel, controller, value)) })
}

// failures of triggered actions have already been raised as alerts
func (e *Engine) report(err error) {
	if err != nil {
		e.log.WithError(err).Debug("control input failed")
	}
}
