// Package shadow orchestrates the single-match pipeline (spec.md §4.5): it
// wires connector, evidence, analyzer, activation, repository, evaluation,
// and policy together into one deterministic, short-circuiting run. Nothing
// it produces is ever applied automatically — every persistence step is
// conditional on explicit capability flags.
package shadow

import (
	"time"

	"github.com/sawpanic/matchdecide/internal/activation"
	"github.com/sawpanic/matchdecide/internal/analyzer"
	"github.com/sawpanic/matchdecide/internal/connector"
	"github.com/sawpanic/matchdecide/internal/evaluation"
	"github.com/sawpanic/matchdecide/internal/policy"
)

// Input is one shadow-pipeline invocation's parameters (spec.md §4.5
// "Inputs").
type Input struct {
	ConnectorName string
	MatchID       string
	FinalScore    *evaluation.FinalScore
	NowUTC        time.Time

	DryRun                      bool
	HardBlockPersistence        bool
	Activation                  bool
	AllowActivationForThisMatch bool
}

// IngestionSection records what was fetched and its volatility-stripped
// checksum (spec.md §4.5 steps 1-3).
type IngestionSection struct {
	ConnectorName   string                       `json:"connector_name"`
	ConnectorCat    connector.Category           `json:"connector_category"`
	MatchID         string                       `json:"match_id"`
	Data            *connector.IngestedMatchData `json:"data,omitempty"`
	PayloadChecksum string                       `json:"payload_checksum,omitempty"`
}

// ResolutionSection is the attach-result output (spec.md §4.8), present only
// when Input.FinalScore was supplied.
type ResolutionSection struct {
	MarketOutcomes      map[string]evaluation.MarketOutcome `json:"market_outcomes"`
	ReasonCodesByMarket map[string][]string                 `json:"reason_codes_by_market"`
	Persisted           bool                                 `json:"persisted"`
}

// AuditSection is the final, never-auto-applied comparison between the
// current and proposed policy (spec.md §4.5 step 10).
type AuditSection struct {
	SnapshotsChecksum     string `json:"snapshots_checksum"`
	CurrentPolicyChecksum string `json:"current_policy_checksum"`
	ProposedPolicyChecksum string `json:"proposed_policy_checksum"`
	PerMarketChangeCount  int    `json:"per_market_change_count"`
}

// ActivationAudit is one decision's activation-gate verdict.
type ActivationAudit struct {
	Market  string `json:"market"`
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// ActivationResult summarizes every decision's activation verdict for the
// match (spec.md §4.5's "activation{activated, reason, audits[]}").
type ActivationResult struct {
	Activated bool              `json:"activated"`
	Reason    string            `json:"reason,omitempty"`
	Audits    []ActivationAudit `json:"audits"`
}

// Report is the shadow pipeline's full return value (spec.md §4.5
// "Return").
type Report struct {
	Ingestion                IngestionSection   `json:"ingestion"`
	Analysis                 analyzer.Result    `json:"analysis"`
	Resolution               *ResolutionSection `json:"resolution,omitempty"`
	EvaluationReportChecksum string             `json:"evaluation_report_checksum"`
	Proposal                 policy.Proposal    `json:"proposal"`
	Audit                    AuditSection       `json:"audit"`
	Activation               ActivationResult   `json:"activation"`
	DryRun                   bool               `json:"dry_run"`
	PersistedAnalysisRunID   int64              `json:"persisted_analysis_run_id,omitempty"`
}

// Readiness and AlertScanner are aliased from internal/activation so callers
// assembling a Pipeline don't need a second import for the same concept.
type Readiness = activation.Readiness
type AlertScanner = activation.AlertScanner
