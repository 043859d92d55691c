// Package batch implements the many-match batch runner and the live-shadow
// compare/analyze passes (spec.md §4.6): the batch runner fans the
// single-match shadow pipeline out over a sorted match-id list and
// aggregates per-match reports deterministically; compare/analyze builds two
// parallel snapshots of the same matches under a live and a recorded
// connector and diffs them, never persisting anything.
package batch

import (
	"github.com/sawpanic/matchdecide/internal/analyzer"
	"github.com/sawpanic/matchdecide/internal/shadow"
)

// Input is one batch-runner invocation (spec.md §4.6 "Batch runner").
// MatchIDs is optional; when empty, the runner enumerates every match from
// the named connector and sorts the result.
type Input struct {
	ConnectorName string
	MatchIDs      []string
	Shared        shadow.Input // per-match flags, minus MatchID/ConnectorName
	Concurrency   int          // 0 selects runtime.GOMAXPROCS(0), capped to len(MatchIDs)
}

// FlagFrequency is one AnalysisRun flag and how many matches raised it.
type FlagFrequency struct {
	Flag  string `json:"flag"`
	Count int    `json:"count"`
}

// TopFlagLimit bounds BatchReport.TopFlags (spec.md §4.6: "top flags").
const TopFlagLimit = 5

// LiveIOCounts tallies the batch's connector fetch outcomes (spec.md §4.6:
// "live-I/O metrics").
type LiveIOCounts struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// BatchReport is the batch runner's aggregate output (spec.md §4.6).
type BatchReport struct {
	MatchIDs               []string        `json:"match_ids"`
	Counts                 analyzer.Counts `json:"counts"`
	TopFlags               []FlagFrequency `json:"top_flags"`
	GateFailureFrequency   map[string]int  `json:"gate_failure_frequency"`
	LiveIO                 LiveIOCounts    `json:"live_io"`
	GuardrailAlerts        []string        `json:"guardrail_alerts"`
	PerMatch               []MatchOutcome  `json:"per_match"`
	ActivatedCount         int             `json:"activated_count"`
	ActivationDenialReason string          `json:"activation_denial_reason,omitempty"`
}

// MatchOutcome pairs one match id with its shadow.Report, or the error that
// short-circuited it (a per-match error never fails the whole batch).
type MatchOutcome struct {
	MatchID string         `json:"match_id"`
	Report  *shadow.Report `json:"report,omitempty"`
	Err     string         `json:"error,omitempty"`
}
