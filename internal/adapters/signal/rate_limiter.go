package signal

import (
	"sync"
	"time"
)

// MessageRateLimiter is a sliding-window limiter keyed by sender.
type MessageRateLimiter struct {
	mu       sync.Mutex
	history  map[string][]time.Time
	limit    int
	interval time.Duration
}

func NewMessageRateLimiter(limit int, interval time.Duration) *MessageRateLimiter {
	return &MessageRateLimiter{
		history:  make(map[string][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *MessageRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[key]
	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[key] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[key] = fresh
	return true
}
