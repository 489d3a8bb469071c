// Package ratelimit paces outbound requests to a single marketplace so the
// source does not block us. Each source owns one Limiter; limiters are never
// shared across sources.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Policy describes the pacing rules for one source.
type Policy struct {
	// MinInterval is the minimum spacing between consecutive requests.
	MinInterval time.Duration
	// MaxPerWindow caps requests inside a rolling Window. Zero disables the cap.
	MaxPerWindow int
	// Window is the rolling window for MaxPerWindow. Defaults to one minute.
	Window time.Duration
}

// Limiter enforces a Policy. The zero value is not usable; use New.
type Limiter struct {
	policy Policy

	mu     sync.Mutex
	last   time.Time
	stamps []time.Time

	// now is swappable for tests
	now func() time.Time
}

// New creates a Limiter for the given policy.
func New(policy Policy) *Limiter {
	if policy.MaxPerWindow > 0 && policy.Window <= 0 {
		policy.Window = time.Minute
	}
	return &Limiter{
		policy: policy,
		now:    time.Now,
	}
}

// Acquire blocks until the next request may be issued, then records it.
// It returns an error only when ctx is cancelled while waiting; the limiter
// itself never fails, at worst it delays.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		wait := l.nextDelayLocked()
		if wait <= 0 {
			l.recordLocked()
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// nextDelayLocked returns how long the caller must still wait. Caller holds mu.
func (l *Limiter) nextDelayLocked() time.Duration {
	now := l.now()
	var wait time.Duration

	if l.policy.MinInterval > 0 && !l.last.IsZero() {
		if since := now.Sub(l.last); since < l.policy.MinInterval {
			wait = l.policy.MinInterval - since
		}
	}

	if l.policy.MaxPerWindow > 0 {
		l.pruneLocked(now)
		if len(l.stamps) >= l.policy.MaxPerWindow {
			// Wait until the oldest stamp leaves the window.
			until := l.stamps[0].Add(l.policy.Window).Sub(now)
			if until > wait {
				wait = until
			}
		}
	}

	return wait
}

func (l *Limiter) recordLocked() {
	now := l.now()
	l.last = now
	if l.policy.MaxPerWindow > 0 {
		l.stamps = append(l.stamps, now)
	}
}

func (l *Limiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.policy.Window)
	kept := l.stamps[:0]
	for _, ts := range l.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.stamps = kept
}
