package looper

import (
	"time"
)

type (
	// Broker is the centralized message broker of the looper. It is used to
	// communicate between the engine goroutine (owning the Model) and the
	// renderer running in the audio thread. The broker is just many-to-one
	// communication, implemented with one channel for each recipient.
	//
	// For closing the engine, the broker has two channels: CloseEngine and
	// FinishedEngine. CloseEngine has a capacity of 1, so you can always send
	// an empty message to it without blocking; if it is full, someone already
	// requested the closure. FinishedEngine is closed when the engine has
	// stopped. Wait for it with a timeout to avoid deadlocks:
	//    select {
	//      case <-FinishedEngine:
	//      case <-time.After(3 * time.Second):
	//    }
	Broker struct {
		ToRenderer chan any
		ToModel    chan MsgToModel

		CloseEngine    chan struct{}
		FinishedEngine chan struct{}
	}

	// MsgToModel is a message sent by the renderer to the model. Level is
	// sent after every rendered block; Data carries the infrequent messages.
	MsgToModel struct {
		HasLevel bool
		Level    Volume
		Data     any
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToRenderer:     make(chan any, 1024),
		ToModel:        make(chan MsgToModel, 1024),
		CloseEngine:    make(chan struct{}, 1),
		FinishedEngine: make(chan struct{}),
	}
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive is a helper function to block until a value is received from a
// channel, or timing out after t. ok will be false if the timeout occurred or
// if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
