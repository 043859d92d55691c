// Package circuit implements a per-connector circuit breaker for live fetches.
//
// Open-state policy is fixed (see DESIGN.md open question #2): 30s open timeout,
// single half-open probe. A failed probe reopens the circuit immediately.
package circuit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrOpen is returned when the breaker is open and short-circuits the call.
	ErrOpen = errors.New("circuit breaker is open")
	// ErrRequestTimeout is returned when a call exceeds its request timeout.
	ErrRequestTimeout = errors.New("request timeout")
)

// State is one of closed, open, half-open.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// DefaultOpenTimeout is the fixed open-state duration (DESIGN.md open question #2).
const DefaultOpenTimeout = 30 * time.Second

// Config configures a Breaker.
type Config struct {
	FailureThreshold int           // consecutive failures to open
	RequestTimeout   time.Duration // per-call deadline
	OpenTimeout       time.Duration // time in open state before a half-open probe; defaults to DefaultOpenTimeout
}

// Breaker is a single-connector circuit breaker: closed -> open on N consecutive
// failures -> half-open after OpenTimeout, allowing exactly one probe -> closed on
// probe success, open again on probe failure.
type Breaker struct {
	mu sync.Mutex

	cfg Config

	state           State
	consecutiveFail int
	lastFailureAt   time.Time
	lastStateChange time.Time
	probeInFlight   bool

	totalRequests  int64
	totalFailures  int64
	totalTimeouts  int64
	totalSuccesses int64
}

// New creates a Breaker with the given config, defaulting OpenTimeout if unset.
func New(cfg Config) *Breaker {
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = DefaultOpenTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	return &Breaker{cfg: cfg, state: StateClosed, lastStateChange: time.Now()}
}

// Call runs fn if the breaker allows it. It never blocks past cfg.RequestTimeout.
func (b *Breaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	if !b.allow() {
		return ErrOpen
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, b.cfg.RequestTimeout)
	defer cancel()

	b.mu.Lock()
	b.totalRequests++
	b.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- fn(timeoutCtx) }()

	select {
	case err := <-done:
		if err != nil {
			b.onFailure()
			return err
		}
		b.onSuccess()
		return nil
	case <-timeoutCtx.Done():
		b.onTimeout()
		return ErrRequestTimeout
	}
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.lastStateChange) < b.cfg.OpenTimeout {
			return false
		}
		if b.probeInFlight {
			return false
		}
		b.setState(StateHalfOpen)
		b.probeInFlight = true
		return true
	case StateHalfOpen:
		// Only the probe that flipped us into half-open is allowed through;
		// any concurrent caller is rejected until the probe resolves.
		return false
	default:
		return false
	}
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.totalSuccesses++
	switch b.state {
	case StateClosed:
		b.consecutiveFail = 0
	case StateHalfOpen:
		b.setState(StateClosed)
		b.consecutiveFail = 0
		b.probeInFlight = false
	}
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recordFailureLocked()
}

func (b *Breaker) onTimeout() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.totalTimeouts++
	b.recordFailureLocked()
}

func (b *Breaker) recordFailureLocked() {
	b.totalFailures++
	b.lastFailureAt = time.Now()

	switch b.state {
	case StateClosed:
		b.consecutiveFail++
		if b.consecutiveFail >= b.cfg.FailureThreshold {
			b.setState(StateOpen)
		}
	case StateHalfOpen:
		b.setState(StateOpen)
		b.probeInFlight = false
	}
}

func (b *Breaker) setState(s State) {
	if b.state != s {
		b.state = s
		b.lastStateChange = time.Now()
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats is a point-in-time snapshot for ops reporting.
type Stats struct {
	State           State
	TotalRequests   int64
	TotalSuccesses  int64
	TotalFailures   int64
	TotalTimeouts   int64
	ConsecutiveFail int
	LastStateChange time.Time
	LastFailureAt   time.Time
}

func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		State:           b.state,
		TotalRequests:   b.totalRequests,
		TotalSuccesses:  b.totalSuccesses,
		TotalFailures:   b.totalFailures,
		TotalTimeouts:   b.totalTimeouts,
		ConsecutiveFail: b.consecutiveFail,
		LastStateChange: b.lastStateChange,
		LastFailureAt:   b.lastFailureAt,
	}
}

// Reset forces the breaker back to closed with cleared counters. Used by ops tooling only.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.consecutiveFail = 0
	b.probeInFlight = false
	b.totalRequests, b.totalSuccesses, b.totalFailures, b.totalTimeouts = 0, 0, 0, 0
	b.lastStateChange = time.Now()
	b.lastFailureAt = time.Time{}
}

// Manager owns one Breaker per connector name.
type Manager struct {
	mu       sync.RWMutex
	breakers map[string]*Breaker
	cfg      Config
}

// NewManager creates a Manager; every connector gets a Breaker built from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{breakers: make(map[string]*Breaker), cfg: cfg}
}

func (m *Manager) breaker(connector string) *Breaker {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.breakers[connector]
	if !ok {
		b = New(m.cfg)
		m.breakers[connector] = b
	}
	return b
}

// Call runs fn through the named connector's breaker, creating it on first use.
func (m *Manager) Call(ctx context.Context, connector string, fn func(ctx context.Context) error) error {
	return m.breaker(connector).Call(ctx, fn)
}

// Stats returns a snapshot of every breaker the manager has created.
func (m *Manager) Stats() map[string]Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Stats, len(m.breakers))
	for name, b := range m.breakers {
		out[name] = b.Stats()
	}
	return out
}

// UnhealthyConnectors lists connectors whose breaker is not closed.
func (m *Manager) UnhealthyConnectors() []string {
	var unhealthy []string
	for name, s := range m.Stats() {
		if s.State != StateClosed {
			unhealthy = append(unhealthy, fmt.Sprintf("%s(%s)", name, s.State))
		}
	}
	return unhealthy
}
