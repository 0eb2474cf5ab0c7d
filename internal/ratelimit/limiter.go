// Package ratelimit throttles inbound analysis requests per client.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per client key plus a global bucket.
type Limiter struct {
	mu           sync.Mutex
	limiter      *rate.Limiter
	perClient    map[string]*clientLimiter
	defaultRate  rate.Limit
	defaultBurst int
	idleTTL      time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter creates a limiter allowing requestsPerSecond per client with the
// given burst. The global bucket allows ten times that.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter:      rate.NewLimiter(rate.Limit(requestsPerSecond*10), burst*10),
		perClient:    make(map[string]*clientLimiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
		idleTTL:      10 * time.Minute,
	}
}

// Allow reports whether a request from key may proceed now.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	now := time.Now()
	cl, exists := l.perClient[key]
	if !exists {
		l.evictIdle(now)
		cl = &clientLimiter{limiter: rate.NewLimiter(l.defaultRate, l.defaultBurst)}
		l.perClient[key] = cl
	}
	cl.lastSeen = now
	l.mu.Unlock()

	if !cl.limiter.Allow() {
		return false
	}
	return l.limiter.Allow()
}

// evictIdle drops clients unseen for idleTTL. Callers hold l.mu.
func (l *Limiter) evictIdle(now time.Time) {
	for key, cl := range l.perClient {
		if now.Sub(cl.lastSeen) > l.idleTTL {
			delete(l.perClient, key)
		}
	}
}

// clients returns the number of tracked clients.
func (l *Limiter) clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.perClient)
}
