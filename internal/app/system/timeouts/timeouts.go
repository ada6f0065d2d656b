// Package timeouts holds the request and job deadlines used across the service.
//
// Values come from AppConfig at startup (see bootstrap.Startup) and are read
// through getters so handlers, workers, and stores share one source.
//
//   - Ping: health checks
//   - Short: single-document reads and lookups
//   - Medium: lists and single-collection writes
//   - Long: workflow writes that touch both volunteers and opportunities
//   - Reconcile: one full mirror reconciliation pass
package timeouts

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds timeout values. Zero values are ignored by Configure.
type Config struct {
	Ping      time.Duration
	Short     time.Duration
	Medium    time.Duration
	Long      time.Duration
	Reconcile time.Duration
}

// Defaults is the configuration in effect until Configure is called.
var Defaults = Config{
	Ping:      2 * time.Second,
	Short:     5 * time.Second,
	Medium:    10 * time.Second,
	Long:      30 * time.Second,
	Reconcile: 5 * time.Minute,
}

var (
	mu  sync.RWMutex
	cur = Defaults
)

func get(f func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return f(cur)
}

func Ping() time.Duration      { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration     { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration    { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration      { return get(func(c Config) time.Duration { return c.Long }) }
func Reconcile() time.Duration { return get(func(c Config) time.Duration { return c.Reconcile }) }

// Configure overrides the current values. Zero fields keep what is set.
func Configure(c Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&cur.Ping, c.Ping)
	set(&cur.Short, c.Short)
	set(&cur.Medium, c.Medium)
	set(&cur.Long, c.Long)
	set(&cur.Reconcile, c.Reconcile)
}

// Reset restores Defaults. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = Defaults
}

// Current returns the configuration in effect.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// WithTimeout creates a context with timeout and returns a cancel function that
// logs a warning if the deadline was hit.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "update application status")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
