// Package ratelimit provides per-host token-bucket rate limiting for live connectors.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter rate-limits per host using a token bucket per host.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	rps      float64
	burst    int
}

// NewLimiter creates a Limiter with the given requests-per-second and burst capacity.
func NewLimiter(rps float64, burst int) *Limiter {
	return &Limiter{limiters: make(map[string]*rate.Limiter), rps: rps, burst: burst}
}

func (l *Limiter) getLimiter(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[host]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists := l.limiters[host]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(l.rps), l.burst)
	l.limiters[host] = limiter
	return limiter
}

// Allow reports whether a request to host is allowed right now.
func (l *Limiter) Allow(host string) bool {
	return l.getLimiter(host).Allow()
}

// Wait blocks until a request to host is allowed or ctx is cancelled.
func (l *Limiter) Wait(ctx context.Context, host string) error {
	return l.getLimiter(host).Wait(ctx)
}

// Stats reports current token availability per host, for ops surfaces.
func (l *Limiter) Stats() map[string]Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[string]Stats, len(l.limiters))
	now := time.Now()
	for host, limiter := range l.limiters {
		reservation := limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()
		out[host] = Stats{
			Host:            host,
			RPS:             float64(limiter.Limit()),
			Burst:           limiter.Burst(),
			TokensAvailable: limiter.Tokens(),
			NextAllowedAt:   now.Add(delay),
			Delay:           delay,
		}
	}
	return out
}

// Stats is a point-in-time snapshot of one host's token bucket.
type Stats struct {
	Host            string
	RPS             float64
	Burst           int
	TokensAvailable float64
	NextAllowedAt   time.Time
	Delay           time.Duration
}

// IsThrottled reports whether the next request would have to wait.
func (s Stats) IsThrottled() bool { return s.Delay > 0 }

// Manager owns one Limiter per connector name.
type Manager struct {
	mu       sync.RWMutex
	limiters map[string]*Limiter
}

// NewManager creates an empty connector-keyed rate limiter manager.
func NewManager() *Manager {
	return &Manager{limiters: make(map[string]*Limiter)}
}

// AddConnector registers a rate limiter for a connector.
func (m *Manager) AddConnector(name string, rps float64, burst int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limiters[name] = NewLimiter(rps, burst)
}

// Wait blocks until the connector's limiter for host allows the request.
// Connectors with no registered limiter are never throttled.
func (m *Manager) Wait(ctx context.Context, connector, host string) error {
	m.mu.RLock()
	limiter, exists := m.limiters[connector]
	m.mu.RUnlock()
	if !exists {
		return nil
	}
	return limiter.Wait(ctx, host)
}
