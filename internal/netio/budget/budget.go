// Package budget tracks a per-connector daily fetch budget, resetting at a
// configured UTC hour. It is independent of the activation daily cap in
// internal/activation, which bounds activations, not raw fetches.
package budget

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var ErrExhausted = errors.New("daily fetch budget exhausted")

// ExhaustedError carries enough context for an ops log line.
type ExhaustedError struct {
	Connector string
	Used      int64
	Limit     int64
	ResetAt   time.Time
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fetch budget exhausted for %s: %d/%d used, resets at %s",
		e.Connector, e.Used, e.Limit, e.ResetAt.Format("15:04 UTC"))
}

func (e *ExhaustedError) Unwrap() error { return ErrExhausted }

// Tracker tracks today's fetch count for one connector against a daily limit.
type Tracker struct {
	mu sync.Mutex

	connector string
	limit     int64
	resetHour int
	used      int64
	lastReset time.Time
}

// NewTracker creates a Tracker for connector, resetting at resetHour UTC each day.
func NewTracker(connector string, limit int64, resetHour int) *Tracker {
	if resetHour < 0 || resetHour > 23 {
		resetHour = 0
	}
	now := time.Now().UTC()
	return &Tracker{
		connector: connector,
		limit:     limit,
		resetHour: resetHour,
		lastReset: lastResetBefore(now, resetHour),
	}
}

func lastResetBefore(now time.Time, resetHour int) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), resetHour, 0, 0, 0, time.UTC)
	if now.Hour() >= resetHour {
		return today
	}
	return today.AddDate(0, 0, -1)
}

func (t *Tracker) rolloverLocked() {
	now := time.Now().UTC()
	if now.After(t.lastReset.Add(24 * time.Hour)) {
		atomic.StoreInt64(&t.used, 0)
		t.lastReset = lastResetBefore(now, t.resetHour)
	}
}

// Consume records one fetch, returning ExhaustedError if it would exceed the limit.
// On exhaustion the counter is left unchanged (the fetch is denied, not counted).
func (t *Tracker) Consume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()

	if t.used >= t.limit {
		return &ExhaustedError{Connector: t.connector, Used: t.used, Limit: t.limit, ResetAt: t.lastReset.Add(24 * time.Hour)}
	}
	t.used++
	return nil
}

// Stats is a point-in-time snapshot for ops reporting.
type Stats struct {
	Connector string
	Limit     int64
	Used      int64
	Remaining int64
	ResetAt   time.Time
}

func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	return Stats{
		Connector: t.connector,
		Limit:     t.limit,
		Used:      t.used,
		Remaining: t.limit - t.used,
		ResetAt:   t.lastReset.Add(24 * time.Hour),
	}
}

// Manager owns one Tracker per connector.
type Manager struct {
	mu       sync.Mutex
	trackers map[string]*Tracker
	resetHour int
}

// NewManager creates an empty manager; trackers are added lazily via Consume.
func NewManager(resetHour int) *Manager {
	return &Manager{trackers: make(map[string]*Tracker), resetHour: resetHour}
}

// Consume records a fetch for connector against limit, creating its tracker on first use.
func (m *Manager) Consume(connector string, limit int64) error {
	m.mu.Lock()
	t, ok := m.trackers[connector]
	if !ok {
		t = NewTracker(connector, limit, m.resetHour)
		m.trackers[connector] = t
	}
	m.mu.Unlock()
	return t.Consume()
}

// Stats returns a snapshot for every connector tracked so far.
func (m *Manager) Stats() map[string]Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Stats, len(m.trackers))
	for name, t := range m.trackers {
		out[name] = t.Stats()
	}
	return out
}
