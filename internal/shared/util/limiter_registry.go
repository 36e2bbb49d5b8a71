package util

import (
	"sync"
	"time"
)

// LimiterRegistry hands out one Limiter per key (SSE session or remote
// address) and forgets keys idle for longer than ttl.
type LimiterRegistry struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     float64
	burst    int
	ttl      time.Duration
	stop     chan struct{}
	once     sync.Once
}

type limiterEntry struct {
	limiter  *Limiter
	lastUsed time.Time
}

func NewLimiterRegistry(r float64, b int, ttl time.Duration) *LimiterRegistry {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	reg := &LimiterRegistry{
		limiters: make(map[string]*limiterEntry),
		rate:     r,
		burst:    b,
		ttl:      ttl,
		stop:     make(chan struct{}),
	}
	go reg.cleanupLoop()
	return reg
}

func (r *LimiterRegistry) Get(key string) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: NewLimiter(r.rate, r.burst)}
		r.limiters[key] = entry
	}
	entry.lastUsed = time.Now()
	return entry.limiter
}

// Forget drops the limiter for key, e.g. when an SSE session closes.
func (r *LimiterRegistry) Forget(key string) {
	r.mu.Lock()
	delete(r.limiters, key)
	r.mu.Unlock()
}

func (r *LimiterRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.limiters)
}

// Close stops the background cleanup.
func (r *LimiterRegistry) Close() {
	r.once.Do(func() { close(r.stop) })
}

func (r *LimiterRegistry) cleanupLoop() {
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.cleanup(time.Now())
		}
	}
}

func (r *LimiterRegistry) cleanup(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, entry := range r.limiters {
		if now.Sub(entry.lastUsed) > r.ttl {
			delete(r.limiters, key)
		}
	}
}
