package looper_test

import (
	"testing"
	"time"

	"github.com/vsariola/loopdeck"
	"github.com/vsariola/loopdeck/looper"
)

func constant(n int, v float32) loopdeck.AudioBuffer {
	b := make(loopdeck.AudioBuffer, n)
	b.Fill([2]float32{v, v})
	return b
}

func TestRendererPulseAtExactFrame(t *testing.T) {
	broker := looper.NewBroker()
	r := looper.NewRenderer(broker, 8000)
	buffer := make(loopdeck.AudioBuffer, 256)
	r.Process(buffer)
	if r.Now() != 0.032 {
		t.Fatalf("expected clock at 0.032, got %v", r.Now())
	}
	r.SchedulePulse(0.0375, false) // frame 300, 44 frames into the next block
	r.Process(buffer)
	for i := 0; i <= 44; i++ {
		if buffer[i] != [2]float32{} {
			t.Fatalf("expected silence before the pulse, frame %d is %v", i, buffer[i])
		}
	}
	if buffer[45][0] == 0 || buffer[45][0] != buffer[45][1] {
		t.Errorf("expected the pulse to sound right after frame 300, got %v", buffer[45])
	}
}

func TestRendererCancelPulses(t *testing.T) {
	broker := looper.NewBroker()
	r := looper.NewRenderer(broker, 1000)
	r.SchedulePulse(0.1, false)
	r.CancelPulses()
	buffer := make(loopdeck.AudioBuffer, 256)
	r.Process(buffer)
	for i, v := range buffer {
		if v != [2]float32{} {
			t.Fatalf("expected silence, frame %d is %v", i, v)
		}
	}
}

func TestRendererSourceGainAndPan(t *testing.T) {
	broker := looper.NewBroker()
	r := looper.NewRenderer(broker, 1000)
	r.SetSourceGain(1, 0.5)
	r.StartSource(1, constant(100, 0.5), 50)
	r.SetBusPan(looper.TrackBus, -1)
	buffer := make(loopdeck.AudioBuffer, 64)
	r.Process(buffer)
	if buffer[0] != [2]float32{0.25, 0} {
		t.Errorf("expected {0.25 0}, got %v", buffer[0])
	}
	if buffer[49] != [2]float32{0.25, 0} || buffer[50] != [2]float32{} {
		t.Errorf("expected the source to end after 50 frames, got %v %v", buffer[49], buffer[50])
	}
	r.StopSource(1)
	r.StartSource(1, constant(100, 0.5), 0)
	r.SetBusPan(looper.TrackBus, 0)
	r.Process(buffer)
	if buffer[0] != [2]float32{0.25, 0.25} {
		t.Errorf("expected the gain kept across restarts, got %v", buffer[0])
	}
}

func TestRendererReportsLevel(t *testing.T) {
	broker := looper.NewBroker()
	r := looper.NewRenderer(broker, 1000)
	r.StartSource(1, constant(1000, 1), 0)
	r.Process(make(loopdeck.AudioBuffer, 500))
	msg, ok := looper.TimeoutReceive(broker.ToModel, time.Second)
	if !ok || !msg.HasLevel {
		t.Fatalf("expected a level message, got %+v", msg)
	}
	if msg.Level[0] <= -100 {
		t.Errorf("expected the level to rise, got %v", msg.Level)
	}
}
