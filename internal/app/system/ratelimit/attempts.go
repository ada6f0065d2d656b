package ratelimit

import (
	"sync"
	"time"
)

// AttemptConfig controls an AttemptTracker.
type AttemptConfig struct {
	MaxFailures int           // failures allowed inside Window before lockout
	Window      time.Duration // failures older than this are forgotten
	Lockout     time.Duration // how long a key stays locked
}

// AttemptTracker counts failed attempts per identifier and locks the
// identifier out once MaxFailures is reached. Entries expire after their
// window or lockout passes and are removed by Sweep.
type AttemptTracker struct {
	mu      sync.Mutex
	cfg     AttemptConfig
	entries map[string]*attempts
	now     func() time.Time
}

type attempts struct {
	failures    int
	firstAt     time.Time
	lockedUntil time.Time
}

// NewAttemptTracker builds a tracker. Zero config fields take defaults of
// 5 failures per 15 minutes and a 15 minute lockout.
func NewAttemptTracker(cfg AttemptConfig) *AttemptTracker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	if cfg.Lockout <= 0 {
		cfg.Lockout = 15 * time.Minute
	}
	return &AttemptTracker{
		cfg:     cfg,
		entries: make(map[string]*attempts),
		now:     time.Now,
	}
}

// Check reports whether key may attempt now. When locked, it returns the
// time remaining until the lockout ends.
func (t *AttemptTracker) Check(key string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[key]
	if !ok {
		return true, 0
	}
	now := t.now()
	if now.Before(e.lockedUntil) {
		return false, e.lockedUntil.Sub(now)
	}
	return true, 0
}

// Fail records a failed attempt and reports whether key is now locked.
func (t *AttemptTracker) Fail(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	e, ok := t.entries[key]
	if !ok || t.expired(e, now) {
		e = &attempts{firstAt: now}
		t.entries[key] = e
	}
	e.failures++
	if e.failures >= t.cfg.MaxFailures {
		e.lockedUntil = now.Add(t.cfg.Lockout)
		return true
	}
	return false
}

// Succeed forgets key after a successful attempt.
func (t *AttemptTracker) Succeed(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

func (t *AttemptTracker) expired(e *attempts, now time.Time) bool {
	return !now.Before(e.lockedUntil) && now.Sub(e.firstAt) >= t.cfg.Window
}

// Sweep evicts expired entries and returns how many were removed.
func (t *AttemptTracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	n := 0
	for k, e := range t.entries {
		if t.expired(e, now) {
			delete(t.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked identifiers.
func (t *AttemptTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
