// Package policy holds the current decision knobs (spec.md §3 Policy) and
// the shadow-mode tuner that proposes new ones. Applying a proposal is
// explicitly out of the core's scope (spec.md §9): a proposal is data, not
// an action.
package policy

import (
	"fmt"
	"time"
)

// DampeningFloor is the lower bound a reason's dampening_factor may take
// (spec.md §3 invariant names DAMPENING_FLOOR but leaves its value to the
// implementation; see DESIGN.md). A reason can halve a decision's effective
// weight at most, never zero it out silently.
const DampeningFloor = 0.5

// Meta is the policy's versioning/provenance block.
type Meta struct {
	Version       int       `json:"version"`
	CreatedAtUTC  time.Time `json:"created_at_utc"`
	Notes         string    `json:"notes,omitempty"`
}

// ConfidenceBand is an optional named confidence range a market's policy may
// publish for downstream display; it does not affect analyzer gating.
type ConfidenceBand struct {
	Label string  `json:"label"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// MarketPolicy is one market's tunable knobs.
type MarketPolicy struct {
	MinConfidence   float64          `json:"min_confidence"`
	ConfidenceBands []ConfidenceBand `json:"confidence_bands,omitempty"`
}

// ReasonPolicy is one reason code's tunable dampening.
type ReasonPolicy struct {
	DampeningFactor float64 `json:"dampening_factor"`
}

// Policy is the current decision knobs, read-only during an analyzer run.
type Policy struct {
	Meta    Meta                    `json:"meta"`
	Markets map[string]MarketPolicy `json:"markets"`
	Reasons map[string]ReasonPolicy `json:"reasons"`
}

// MinConfidenceFor implements analyzer.MinConfidenceFor against this policy;
// an unlisted market defaults to 0 (never blocks on confidence alone).
func (p Policy) MinConfidenceFor(market string) float64 {
	mp, ok := p.Markets[market]
	if !ok {
		return 0
	}
	return mp.MinConfidence
}

// InvariantReason names which Policy invariant a ValidationError violates.
type InvariantReason string

const (
	ReasonMinConfidenceOutOfRange InvariantReason = "MIN_CONFIDENCE_OUT_OF_RANGE"
	ReasonDampeningBelowFloor     InvariantReason = "DAMPENING_BELOW_FLOOR"
)

// ValidationError reports one Policy invariant violation (spec.md §3).
type ValidationError struct {
	Reason  InvariantReason
	Key     string
	Value   float64
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s (key=%s, value=%.4f)", e.Reason, e.Message, e.Key, e.Value)
}

// Validate enforces spec.md §3's Policy invariants.
func (p Policy) Validate() error {
	for market, mp := range p.Markets {
		if mp.MinConfidence < 0 || mp.MinConfidence > 1 {
			return ValidationError{
				Reason: ReasonMinConfidenceOutOfRange, Key: market, Value: mp.MinConfidence,
				Message: "min_confidence must be in [0,1]",
			}
		}
	}
	for code, rp := range p.Reasons {
		if rp.DampeningFactor < DampeningFloor || rp.DampeningFactor > 1 {
			return ValidationError{
				Reason: ReasonDampeningBelowFloor, Key: code, Value: rp.DampeningFactor,
				Message: fmt.Sprintf("dampening_factor must be in [%.2f,1]", DampeningFloor),
			}
		}
	}
	return nil
}

// Bootstrap is the zero-history default policy (version 0) a fresh
// deployment starts from.
func Bootstrap() Policy {
	return Policy{
		Meta:    Meta{Version: 0, Notes: "bootstrap default"},
		Markets: map[string]MarketPolicy{},
		Reasons: map[string]ReasonPolicy{},
	}
}

// IsBootstrap reports whether p is the zero-history default (version 0).
func (p Policy) IsBootstrap() bool {
	return p.Meta.Version == 0
}
