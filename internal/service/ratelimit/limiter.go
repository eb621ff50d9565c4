package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval between calls per key (one key per provider).
// Callers block in Wait until their slot comes up; nothing is dropped.
type Limiter struct {
	mu        sync.Mutex
	def       time.Duration
	intervals map[string]time.Duration
	m         map[string]*rate.Limiter
}

// New creates a limiter whose keys default to interval def. A zero interval disables limiting.
func New(def time.Duration) *Limiter {
	return &Limiter{
		def:       def,
		intervals: make(map[string]time.Duration),
		m:         make(map[string]*rate.Limiter),
	}
}

// SetInterval configures the minimum interval for key. It resets any existing state for key.
func (l *Limiter) SetInterval(key string, interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intervals[key] = interval
	delete(l.m, key)
}

// Interval returns the minimum interval configured for key.
func (l *Limiter) Interval(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if d, ok := l.intervals[key]; ok {
		return d
	}
	return l.def
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.m[key]
	if ok {
		return lim
	}
	interval, ok := l.intervals[key]
	if !ok {
		interval = l.def
	}
	if interval <= 0 {
		lim = rate.NewLimiter(rate.Inf, 1)
	} else {
		lim = rate.NewLimiter(rate.Every(interval), 1)
	}
	l.m[key] = lim
	return lim
}

// Wait blocks until a call for key is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}

// Allow reports whether a call for key may proceed now, consuming the slot if so.
func (l *Limiter) Allow(key string) bool {
	return l.get(key).Allow()
}
