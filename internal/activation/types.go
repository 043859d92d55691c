// Package activation implements the multi-layer permission check that
// decides whether a computed decision may be persisted (spec.md §4.7): a
// strict ordered gate, a tighter burn-in gate, batch-level rollout/daily-cap
// control, and a wholly separate approval gate for real activation flows.
package activation

import "time"

// Mode is the activation mode, spec.md §4.7 step 3's closed set.
type Mode string

const (
	ModeLimited  Mode = "limited"
	ModeBurnIn   Mode = "burn_in"
	ModeExpanded Mode = "expanded"
)

var validModes = map[Mode]bool{ModeLimited: true, ModeBurnIn: true, ModeExpanded: true}

// Tier carries the confidence floor for the currently selected mode.
type Tier struct {
	MinConfidence float64
}

// Config is every environment-derived setting the gate consults (spec.md
// §4.7 and §6). internal/config.Env is responsible for populating this from
// the process environment; this package only reads it.
type Config struct {
	KillSwitch          bool
	ActivationEnabled   bool
	Mode                Mode
	LiveWritesAllowed   bool
	LiveIOAllowed       bool
	Connectors          []string // ACTIVATION_CONNECTORS whitelist; empty = no restriction
	Markets             []string // default {1X2}
	Tier                Tier
	BurnIn              BurnInConfig
	RolloutPct          float64
	DailyMaxActivations int
}

// BurnInConfig tightens the activation gate when Mode == burn_in.
type BurnInConfig struct {
	RequiredConnector string  // default "real_provider"
	RequiredMarket    string  // default "1X2"
	MinConfidence     float64 // default 0.85
	MaxMatchesPerBatch int    // cap 1-3 inclusive
}

// DefaultMarkets is spec.md §4.7 step 8's default market whitelist.
var DefaultMarkets = []string{"1X2"}

// DefaultBurnIn is spec.md §4.7's burn-in gate defaults.
func DefaultBurnIn() BurnInConfig {
	return BurnInConfig{
		RequiredConnector:  "real_provider",
		RequiredMarket:     "1X2",
		MinConfidence:      0.85,
		MaxMatchesPerBatch: 3,
	}
}

// Readiness abstracts the DB/cache health checks spec.md §4.7 step 6 calls
// for without specifying their shape.
type Readiness interface {
	Ready() (bool, string)
}

// ReadinessFunc adapts a plain function to Readiness.
type ReadinessFunc func() (bool, string)

func (f ReadinessFunc) Ready() (bool, string) { return f() }

// AlertScanner reports whether the last N recorded live-shadow runs carry an
// unresolved critical alert (spec.md §4.7 step 10).
type AlertScanner interface {
	HasUnresolvedCriticalAlert(lookback int) (bool, string)
}

// Decision is the minimal shape the gate needs about a computed decision to
// evaluate it for activation.
type Decision struct {
	ConnectorName string
	MatchID       string
	Market        string
	Confidence    float64
	PolicyMinConf float64
}

// Verdict is the gate's outcome: allowed, or denied with a reason.
type Verdict struct {
	Allowed bool
	Reason  string
}

func allow() Verdict          { return Verdict{Allowed: true} }
func deny(reason string) Verdict { return Verdict{Allowed: false, Reason: reason} }

// AlertLookback is the default N recent runs step 10 scans.
const AlertLookback = 20

// Clock exists so tests can stub the clock; production callers pass time.Now().UTC().
type Clock func() time.Time
