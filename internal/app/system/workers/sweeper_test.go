package workers

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/greenreach/internal/app/system/ratelimit"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type countingTarget struct {
	calls atomic.Int32
	evict int
}

func (c *countingTarget) Sweep() int {
	c.calls.Add(1)
	return c.evict
}

func TestSweeper_SweepOnceSumsTargets(t *testing.T) {
	w := NewSweeper(zap.NewNop(), time.Minute, map[string]Sweepable{
		"a": &countingTarget{evict: 2},
		"b": &countingTarget{evict: 3},
		"c": ratelimit.New(time.Second, 1),
	})
	if got := w.SweepOnce(); got != 5 {
		t.Errorf("SweepOnce() = %d, want 5", got)
	}
}

func TestSweeper_StartStopRunsAndExits(t *testing.T) {
	defer goleak.VerifyNone(t)

	target := &countingTarget{}
	w := NewSweeper(zap.NewNop(), 5*time.Millisecond, map[string]Sweepable{"t": target})
	w.Start()

	deadline := time.Now().Add(2 * time.Second)
	for target.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	w.Stop()
	w.Stop() // second Stop is a no-op

	if target.calls.Load() == 0 {
		t.Error("expected at least one sweep before Stop")
	}
}

func TestNewSweeper_DefaultInterval(t *testing.T) {
	w := NewSweeper(zap.NewNop(), 0, nil)
	if w.interval != 5*time.Minute {
		t.Errorf("interval = %v, want 5m", w.interval)
	}
}
