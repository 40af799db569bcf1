package ratelimiter

import (
	"sync"
	"time"
)

// Limiter gates a request source and reports how long to back off when denied.
type Limiter interface {
	Allow(key string) (bool, time.Duration)
	Close()
}

type window struct {
	count   int
	resetAt time.Time
}

type FixedWindowRateLimiter struct {
	windows map[string]*window
	limit   int
	size    time.Duration
	mu      sync.Mutex
	ticker  *time.Ticker
	done    chan struct{}
}

func NewFixedWindowRateLimiter(limit int, size time.Duration) *FixedWindowRateLimiter {
	rl := &FixedWindowRateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		size:    size,
		ticker:  time.NewTicker(size),
		done:    make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *FixedWindowRateLimiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || !now.Before(w.resetAt) {
		rl.windows[key] = &window{count: 1, resetAt: now.Truncate(rl.size).Add(rl.size)}
		return true, 0
	}

	if w.count >= rl.limit {
		return false, time.Until(w.resetAt)
	}

	w.count++
	return true, 0
}

func (rl *FixedWindowRateLimiter) cleanupLoop() {
	for {
		select {
		case <-rl.ticker.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

func (rl *FixedWindowRateLimiter) cleanup() {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.windows {
		if now.After(w.resetAt) {
			delete(rl.windows, key)
		}
	}
}

func (rl *FixedWindowRateLimiter) Close() {
	close(rl.done)
	rl.ticker.Stop()
}
