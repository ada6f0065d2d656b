// internal/app/system/workers/sweeper.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweepable is anything holding per-key state that can evict idle entries.
// ratelimit.Limiter and ratelimit.AttemptTracker both satisfy it.
type Sweepable interface {
	Sweep() int
}

// Sweeper is a background worker that periodically evicts idle rate-limit state.
type Sweeper struct {
	targets  map[string]Sweepable
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewSweeper creates a sweeper over the named targets.
func NewSweeper(logger *zap.Logger, interval time.Duration, targets map[string]Sweepable) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		targets:  targets,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *Sweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("rate-limit sweeper started",
		zap.Duration("interval", w.interval),
		zap.Int("targets", len(w.targets)))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call twice.
func (w *Sweeper) Stop() {
	w.once.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("rate-limit sweeper stopped")
	})
}

func (w *Sweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.SweepOnce()
		}
	}
}

// SweepOnce evicts idle entries from every target and returns the total removed.
func (w *Sweeper) SweepOnce() int {
	total := 0
	for name, t := range w.targets {
		n := t.Sweep()
		if n > 0 {
			w.log.Debug("evicted idle rate-limit entries", zap.String("target", name), zap.Int("count", n))
		}
		total += n
	}
	return total
}
