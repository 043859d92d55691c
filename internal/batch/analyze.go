package batch

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sawpanic/matchdecide/internal/analyzer"
	"github.com/sawpanic/matchdecide/internal/connector"
	"github.com/sawpanic/matchdecide/internal/policy"
	"github.com/sawpanic/matchdecide/internal/resolver"
	"github.com/sawpanic/matchdecide/internal/shadow"
)

// sideLabel distinguishes live-shadow analyze's two sides.
type sideLabel string

const (
	sideLive     sideLabel = "live"
	sideRecorded sideLabel = "recorded"
)

// MarketAnalyze is one market's live-vs-recorded comparison for one match.
type MarketAnalyze struct {
	PickParity      bool     `json:"pick_parity"`
	ConfidenceDelta *float64 `json:"confidence_delta,omitempty"`
	ReasonsDiff     []string `json:"reasons_diff,omitempty"`
	Coverage        string   `json:"coverage"` // both | live_only | recorded_only | neither
}

// MatchAnalyze is one match's full-analyzer live-vs-recorded comparison
// (spec.md §4.6 "Live-shadow analyze").
type MatchAnalyze struct {
	MatchID string                    `json:"match_id"`
	Markets map[string]MarketAnalyze `json:"markets"`
}

// AnalyzeReport aggregates every match's analyze pass.
type AnalyzeReport struct {
	PerMatch []MatchAnalyze `json:"per_match"`
}

// Analyze runs Analyzer v2 exactly once per side per match (spec.md §4.6)
// and compares pick parity, confidence deltas, reasons-set diffs, and market
// coverage. Persistence is hard-blocked regardless of capability flags: this
// function has no persistence path at all.
func Analyze(ctx context.Context, live, recorded connector.Connector, pol policy.Policy, thresholds analyzer.Thresholds, matchIDs []string) (AnalyzeReport, error) {
	sorted := append([]string(nil), matchIDs...)
	sort.Strings(sorted)

	var report AnalyzeReport
	for _, matchID := range sorted {
		liveResult, err := runSide(ctx, live, matchID, pol, thresholds)
		if err != nil {
			return AnalyzeReport{}, fmt.Errorf("analyze live %s: %w", matchID, err)
		}
		recResult, err := runSide(ctx, recorded, matchID, pol, thresholds)
		if err != nil {
			return AnalyzeReport{}, fmt.Errorf("analyze recorded %s: %w", matchID, err)
		}
		report.PerMatch = append(report.PerMatch, MatchAnalyze{
			MatchID: matchID,
			Markets: compareMarkets(liveResult, recResult),
		})
	}
	return report, nil
}

// runSide runs the analyzer exactly once for one connector/match pair.
func runSide(ctx context.Context, conn connector.Connector, matchID string, pol policy.Policy, thresholds analyzer.Thresholds) (analyzer.Result, error) {
	data, err := conn.FetchMatchData(ctx, matchID)
	if err != nil {
		return analyzer.Result{}, err
	}

	req := analyzer.Request{
		MatchID:       matchID,
		Markets:       shadow.SupportedMarkets(),
		PolicyVersion: pol.Meta.Version,
		MinConfidence: func(market analyzer.Market) float64 { return pol.MinConfidenceFor(string(market)) },
		Thresholds:    thresholds,
	}
	if data == nil {
		req.ResolverStatus = resolver.StatusNotFound
	} else {
		req.ResolverStatus = resolver.StatusResolved
		req.Evidence = shadow.SynthesizeEvidencePack(data, conn.Name())
	}
	return analyzer.Run(req)
}

func compareMarkets(live, recorded analyzer.Result) map[string]MarketAnalyze {
	byMarket := map[string]MarketAnalyze{}

	liveByMarket := decisionsByMarket(live)
	recByMarket := decisionsByMarket(recorded)

	markets := map[string]bool{}
	for m := range liveByMarket {
		markets[m] = true
	}
	for m := range recByMarket {
		markets[m] = true
	}

	for market := range markets {
		ld, liveHas := liveByMarket[market]
		rd, recHas := recByMarket[market]

		ma := MarketAnalyze{Coverage: coverageFor(liveHas, recHas)}
		if liveHas && recHas {
			ma.PickParity = ld.Decision == rd.Decision && ld.Selection == rd.Selection
			ma.ConfidenceDelta = confidenceDelta(ld.Confidence, rd.Confidence)
			ma.ReasonsDiff = reasonsSymmetricDiff(ld.ReasonCodes, rd.ReasonCodes)
		}
		byMarket[market] = ma
	}
	return byMarket
}

func decisionsByMarket(result analyzer.Result) map[string]analyzer.Decision {
	out := make(map[string]analyzer.Decision, len(result.Decisions))
	for _, d := range result.Decisions {
		out[string(d.Market)] = d
	}
	return out
}

func coverageFor(liveHas, recHas bool) string {
	switch {
	case liveHas && recHas:
		return "both"
	case liveHas:
		return "live_only"
	case recHas:
		return "recorded_only"
	default:
		return "neither"
	}
}

func confidenceDelta(live, recorded *float64) *float64 {
	if live == nil || recorded == nil {
		return nil
	}
	delta := math.Abs(*live - *recorded)
	return &delta
}

// reasonsSymmetricDiff returns the reason codes present on exactly one side,
// sorted for deterministic output.
func reasonsSymmetricDiff(a, b []string) []string {
	inA := map[string]bool{}
	for _, r := range a {
		inA[r] = true
	}
	inB := map[string]bool{}
	for _, r := range b {
		inB[r] = true
	}

	var diff []string
	for r := range inA {
		if !inB[r] {
			diff = append(diff, r)
		}
	}
	for r := range inB {
		if !inA[r] {
			diff = append(diff, r)
		}
	}
	sort.Strings(diff)
	return diff
}
