// Package ratelimit throttles writes per client address.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

const idleAfter = 10 * time.Minute

// Limiter grants each client a budget of requests per one-minute window.
type Limiter struct {
	limit  int
	sweep  time.Duration
	now    func() time.Time
	denied atomic.Int64

	mu      sync.Mutex
	windows map[string]*window

	quit     chan struct{}
	stopOnce sync.Once
}

type window struct {
	opened time.Time
	seen   time.Time
	count  int
}

// Config sets the per-client budget and how often idle clients are dropped.
type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig allows 30 writes per minute per client.
func DefaultConfig() Config {
	return Config{RequestsPerMinute: 30, CleanupInterval: 5 * time.Minute}
}

// NewLimiter starts a limiter with a background sweeper. Call Stop to end
// it.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	l := &Limiter{
		limit:   cfg.RequestsPerMinute,
		sweep:   cfg.CleanupInterval,
		now:     time.Now,
		windows: make(map[string]*window),
		quit:    make(chan struct{}),
	}
	if l.limit <= 0 {
		l.limit = def.RequestsPerMinute
	}
	if l.sweep <= 0 {
		l.sweep = def.CleanupInterval
	}
	go l.sweepLoop()
	return l
}

// Allow counts a request from key and reports whether it fits the budget.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := l.now()
	w, ok := l.windows[key]
	if !ok || t.Sub(w.opened) >= time.Minute {
		l.windows[key] = &window{opened: t, seen: t, count: 1}
		return true
	}
	w.count++
	w.seen = t
	if w.count <= l.limit {
		return true
	}
	l.denied.Add(1)
	return false
}

func (l *Limiter) sweepLoop() {
	tick := time.NewTicker(l.sweep)
	defer tick.Stop()
	for {
		select {
		case <-l.quit:
			return
		case <-tick.C:
			l.dropIdle()
		}
	}
}

// dropIdle forgets clients not seen for idleAfter.
func (l *Limiter) dropIdle() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-idleAfter)
	n := 0
	for key, w := range l.windows {
		if w.seen.Before(cutoff) {
			delete(l.windows, key)
			n++
		}
	}
	return n
}

// ActiveClients counts tracked clients.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Stop ends the sweeper. Extra calls are no-ops.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.quit) })
}

// Metrics is exposed on /metrics.
type Metrics struct {
	TotalHits   int64
	ClientCount int64
}

func (l *Limiter) GetMetrics() Metrics {
	return Metrics{TotalHits: l.denied.Load(), ClientCount: int64(l.ActiveClients())}
}

// Middleware answers 429 once a client is over budget. onLimit, when set,
// writes the rejection body.
func (l *Limiter) Middleware(clientKey func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.Allow(clientKey(r)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(time.Minute/time.Second)))
			if onLimit == nil {
				http.Error(w, "too many requests", http.StatusTooManyRequests)
				return
			}
			onLimit(w, r)
		})
	}
}
