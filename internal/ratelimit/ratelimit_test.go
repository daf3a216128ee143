package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests advance time deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(limits map[string]Limit) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	l := New(limits)
	l.now = clock.Now
	return l, clock
}

func TestLimiter_RejectsOverLimit(t *testing.T) {
	l, _ := newTestLimiter(map[string]Limit{
		"chat_turn": {Requests: 3, Window: time.Minute},
	})

	for i := 0; i < 3; i++ {
		allowed, _ := l.Allow("sess-1", "chat_turn")
		if !allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	allowed, retryAfter := l.Allow("sess-1", "chat_turn")
	if allowed {
		t.Fatal("request 4 should be rejected")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Errorf("retryAfter = %v, want within (0, 1m]", retryAfter)
	}
}

func TestLimiter_WindowSlides(t *testing.T) {
	l, clock := newTestLimiter(map[string]Limit{
		"chat_turn": {Requests: 2, Window: time.Minute},
	})

	l.Allow("sess-1", "chat_turn")
	clock.Advance(30 * time.Second)
	l.Allow("sess-1", "chat_turn")

	if allowed, _ := l.Allow("sess-1", "chat_turn"); allowed {
		t.Fatal("third request inside the window should be rejected")
	}

	// The first request leaves the window; one slot frees up.
	clock.Advance(31 * time.Second)
	if allowed, _ := l.Allow("sess-1", "chat_turn"); !allowed {
		t.Fatal("request should be allowed once the oldest leaves the window")
	}
	if allowed, _ := l.Allow("sess-1", "chat_turn"); allowed {
		t.Fatal("window should be full again")
	}
}

func TestLimiter_SessionsAndCategoriesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(map[string]Limit{
		"chat_turn":       {Requests: 1, Window: time.Minute},
		"plan_generation": {Requests: 1, Window: time.Minute},
	})

	l.Allow("sess-1", "chat_turn")

	if allowed, _ := l.Allow("sess-2", "chat_turn"); !allowed {
		t.Error("another session must have its own allowance")
	}
	if allowed, _ := l.Allow("sess-1", "plan_generation"); !allowed {
		t.Error("another category must have its own allowance")
	}
	if allowed, _ := l.Allow("sess-1", "chat_turn"); allowed {
		t.Error("same session and category should be limited")
	}
}

func TestLimiter_UnknownCategoryUnlimited(t *testing.T) {
	l, _ := newTestLimiter(map[string]Limit{
		"chat_turn": {Requests: 1, Window: time.Minute},
	})

	for i := 0; i < 50; i++ {
		if allowed, _ := l.Allow("sess-1", "healthcheck"); !allowed {
			t.Fatalf("unknown category should never be limited (request %d)", i+1)
		}
	}
}

func TestLimiter_Reset(t *testing.T) {
	l, _ := newTestLimiter(map[string]Limit{
		"chat_turn": {Requests: 1, Window: time.Minute},
	})

	l.Allow("sess-1", "chat_turn")
	if allowed, _ := l.Allow("sess-1", "chat_turn"); allowed {
		t.Fatal("limit should be exhausted")
	}

	l.Reset("sess-1")
	if allowed, _ := l.Allow("sess-1", "chat_turn"); !allowed {
		t.Fatal("Reset should clear the session's history")
	}
}

func TestLimiter_ConcurrentAccess(t *testing.T) {
	l, _ := newTestLimiter(map[string]Limit{
		"chat_turn": {Requests: 100, Window: time.Minute},
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session := fmt.Sprintf("sess-%d", i%3)
			for j := 0; j < 50; j++ {
				l.Allow(session, "chat_turn")
			}
		}(i)
	}
	wg.Wait()
}
