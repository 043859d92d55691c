// Package analyzer implements the deterministic gates-then-scoring pipeline
// (spec.md §4.4): given a resolver status and an evidence.Pack, it emits one
// Decision per requested market plus the run's aggregate flags and counts.
package analyzer

import "github.com/sawpanic/matchdecide/internal/resolver"

// Market is one of the closed set of supported markets.
type Market string

const (
	Market1X2  Market = "1X2"
	MarketOU25 Market = "OU_2.5"
	MarketBTTS Market = "BTTS"
)

// SupportedMarkets is the closed set spec.md §4.4 step 3a checks against.
var SupportedMarkets = map[Market]bool{
	Market1X2:  true,
	MarketOU25: true,
	MarketBTTS: true,
}

// DecisionKind is a single market's outcome.
type DecisionKind string

const (
	DecisionPlay         DecisionKind = "PLAY"
	DecisionNoBet        DecisionKind = "NO_BET"
	DecisionNoPrediction DecisionKind = "NO_PREDICTION"
)

// OverallStatus is the analysis run's aggregate outcome.
type OverallStatus string

const (
	StatusOK           OverallStatus = "OK"
	StatusNoPrediction OverallStatus = "NO_PREDICTION"
)

// CurrentVersion is the analyzer's schema/logic version stamped onto Result.
const CurrentVersion = "v2"

// Reason codes (closed vocabulary, spec.md §4.4).
const (
	ReasonH2HUsed                  = "H2H_USED"
	ReasonXGProxy                  = "XG_PROXY"
	ReasonExpectedGoalsAbove       = "EXPECTED_GOALS_ABOVE"
	ReasonExpectedGoalsBelow       = "EXPECTED_GOALS_BELOW"
	ReasonMissingStats             = "MISSING_STATS"
	ReasonGateBlocked              = "GATE_BLOCKED"
	ReasonLowQualityEvidence       = "LOW_QUALITY_EVIDENCE"
	ReasonConsensusWeak            = "CONSENSUS_WEAK"
	ReasonMarketNotSupported       = "MARKET_NOT_SUPPORTED"
	ReasonLowSeparation            = "LOW_SEPARATION"
	ReasonBelowMinConfidence       = "BELOW_MIN_CONFIDENCE"
	ReasonTooManyMinorFlags        = "TOO_MANY_MINOR_FLAGS"
	ReasonHomeFavored              = "HOME_FAVORED"
	ReasonAwayFavored              = "AWAY_FAVORED"
	ReasonDrawFavored              = "DRAW_FAVORED"
	ReasonOverFavored              = "OVER_FAVORED"
	ReasonUnderFavored             = "UNDER_FAVORED"
	ReasonBothTeamsLikelyToScore   = "BOTH_TEAMS_LIKELY_TO_SCORE"
	ReasonBothTeamsUnlikelyToScore = "BOTH_TEAMS_UNLIKELY_TO_SCORE"
	ReasonResolverAmbiguous        = "RESOLVER_AMBIGUOUS"
	ReasonResolverNotFound         = "RESOLVER_NOT_FOUND"
)

// MaxReasonsPerDecision caps the free-text reasons list, per spec.md §4.4.
const MaxReasonsPerDecision = 10

// GateOutcome is one hard- or soft-gate's verdict, kept for observability
// even when it didn't block the decision.
type GateOutcome struct {
	Name    string             `json:"name"`
	Passed  bool               `json:"passed"`
	Reason  string             `json:"reason,omitempty"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// Decision is one market's scored outcome. Selection and Confidence are
// present if and only if Decision == DecisionPlay (spec.md §3 invariant).
type Decision struct {
	Market        Market             `json:"market"`
	Decision      DecisionKind       `json:"decision"`
	Selection     string             `json:"selection,omitempty"`
	Confidence    *float64           `json:"confidence,omitempty"`
	Separation    float64            `json:"separation"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Reasons       []string           `json:"reasons"`
	ReasonCodes   []string           `json:"reason_codes"`
	Flags         []string           `json:"flags,omitempty"`
	PolicyVersion int                `json:"policy_version"`
	Gates         []GateOutcome      `json:"gates"`
}

// Counts aggregates decision kinds across the run.
type Counts struct {
	Play         int `json:"play"`
	NoBet        int `json:"no_bet"`
	NoPrediction int `json:"no_prediction"`
}

// AnalysisRun is the run-level metadata accompanying the decisions list.
type AnalysisRun struct {
	Flags           []string      `json:"flags"`
	GateResults     []GateOutcome `json:"gate_results"`
	ConflictSummary string        `json:"conflict_summary,omitempty"`
	Counts          Counts        `json:"counts"`
}

// Result is the analyzer's full output for one match.
type Result struct {
	Status        OverallStatus `json:"status"`
	Version       string        `json:"version"`
	PolicyVersion int           `json:"policy_version"`
	AnalysisRun   AnalysisRun   `json:"analysis_run"`
	Decisions     []Decision    `json:"decisions"`
	InputHash     string        `json:"input_hash"`
	OutputHash    string        `json:"output_hash"`
}

// resolverBlocked maps a non-RESOLVED resolver.Status to the global flag and
// reason spec.md §4.4 step 1 requires.
func resolverBlocked(status resolver.Status) (flag, reason string, blocked bool) {
	switch status {
	case resolver.StatusAmbiguous:
		return "AMBIGUOUS", ReasonResolverAmbiguous, true
	case resolver.StatusNotFound:
		return "NOT_FOUND", ReasonResolverNotFound, true
	default:
		return "", "", false
	}
}
