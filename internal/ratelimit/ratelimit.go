// Package ratelimit provides a sliding-window request limiter keyed by
// session and request category.
package ratelimit

import (
	"sync"
	"time"
)

// Limit is the allowance for one request category.
type Limit struct {
	// Requests is the maximum number of requests per window.
	Requests int
	// Window is the length of the sliding window.
	Window time.Duration
}

// DefaultLimits covers the request categories the server exposes.
var DefaultLimits = map[string]Limit{
	"chat_turn":       {Requests: 10, Window: time.Minute},
	"plan_generation": {Requests: 3, Window: 5 * time.Minute},
}

// Limiter enforces per-session, per-category sliding-window limits.
// Unknown categories are unlimited.
type Limiter struct {
	mu     sync.Mutex
	limits map[string]Limit
	// history holds request timestamps keyed by session+category.
	history map[string][]time.Time
	now     func() time.Time
}

// New creates a limiter with the given category limits. Nil limits
// fall back to DefaultLimits.
func New(limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = DefaultLimits
	}
	return &Limiter{
		limits:  limits,
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow records a request for the session and category if it fits in
// the window. When the request is denied, retryAfter is how long the
// caller must wait before the oldest counted request leaves the window.
func (l *Limiter) Allow(sessionID, category string) (allowed bool, retryAfter time.Duration) {
	limit, ok := l.limits[category]
	if !ok || limit.Requests <= 0 {
		return true, 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := sessionID + "\x00" + category
	now := l.now()
	cutoff := now.Add(-limit.Window)

	kept := l.history[key][:0]
	for _, ts := range l.history[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit.Requests {
		l.history[key] = kept
		return false, kept[0].Sub(cutoff)
	}

	l.history[key] = append(kept, now)
	return true, 0
}

// Reset clears all recorded history for a session.
func (l *Limiter) Reset(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prefix := sessionID + "\x00"
	for key := range l.history {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(l.history, key)
		}
	}
}
