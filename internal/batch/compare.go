package batch

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sawpanic/matchdecide/internal/connector"
)

// OddsDriftAlertPct is the fixed threshold spec.md §4.6 calls for ("a fixed
// policy of threshold-based alerts"): any leg drifting more than this many
// percentage points between the live and recorded side raises an alert.
const OddsDriftAlertPct = 5.0

// OddsLegDelta is one leg's absolute and percentage drift between sides.
type OddsLegDelta struct {
	AbsDelta float64 `json:"abs_delta"`
	PctDelta float64 `json:"pct_delta"`
}

// MatchCompare is one match's live-vs-recorded comparison (spec.md §4.6
// "Live-shadow compare").
type MatchCompare struct {
	MatchID            string                  `json:"match_id"`
	IdentityParity     bool                    `json:"identity_parity"`
	OddsPresenceParity bool                    `json:"odds_presence_parity"`
	OddsDelta          map[string]OddsLegDelta `json:"odds_delta,omitempty"`
	SchemaDrift        []string                `json:"schema_drift,omitempty"`
	Alerts             []string                `json:"alerts,omitempty"`
}

// CompareReport aggregates every match's comparison plus batch-level
// percentile summaries of the odds drift (spec.md §4.6: "p50/p95").
type CompareReport struct {
	PerMatch        []MatchCompare `json:"per_match"`
	OddsAbsDeltaP50 float64        `json:"odds_abs_delta_p50"`
	OddsAbsDeltaP95 float64        `json:"odds_abs_delta_p95"`
	OddsPctDeltaP50 float64        `json:"odds_pct_delta_p50"`
	OddsPctDeltaP95 float64        `json:"odds_pct_delta_p95"`
}

// Compare builds two parallel snapshots of the same matches under a live
// and a recorded connector and diffs them (spec.md §4.6). It never writes
// anything: live-shadow compare is hard-blocked from persistence unless an
// explicit LIVE_WRITES_ALLOWED capability is granted, and this function has
// no persistence path at all, so that gate is satisfied by omission.
func Compare(ctx context.Context, live, recorded connector.Connector, matchIDs []string) (CompareReport, error) {
	sorted := append([]string(nil), matchIDs...)
	sort.Strings(sorted)

	var report CompareReport
	var absDeltas, pctDeltas []float64

	for _, matchID := range sorted {
		liveData, err := live.FetchMatchData(ctx, matchID)
		if err != nil {
			return CompareReport{}, fmt.Errorf("fetch live %s: %w", matchID, err)
		}
		recData, err := recorded.FetchMatchData(ctx, matchID)
		if err != nil {
			return CompareReport{}, fmt.Errorf("fetch recorded %s: %w", matchID, err)
		}

		mc := compareOne(matchID, liveData, recData)
		for _, d := range mc.OddsDelta {
			absDeltas = append(absDeltas, d.AbsDelta)
			pctDeltas = append(pctDeltas, d.PctDelta)
		}
		report.PerMatch = append(report.PerMatch, mc)
	}

	report.OddsAbsDeltaP50 = percentile(absDeltas, 50)
	report.OddsAbsDeltaP95 = percentile(absDeltas, 95)
	report.OddsPctDeltaP50 = percentile(pctDeltas, 50)
	report.OddsPctDeltaP95 = percentile(pctDeltas, 95)
	return report, nil
}

func compareOne(matchID string, live, recorded *connector.IngestedMatchData) MatchCompare {
	mc := MatchCompare{MatchID: matchID}

	if live == nil || recorded == nil {
		mc.SchemaDrift = append(mc.SchemaDrift, "missing_on_one_side")
		mc.OddsPresenceParity = live == nil && recorded == nil
		return mc
	}

	mc.IdentityParity = live.HomeTeam == recorded.HomeTeam &&
		live.AwayTeam == recorded.AwayTeam &&
		live.Competition == recorded.Competition &&
		live.KickoffUTC.Equal(recorded.KickoffUTC)

	liveOddsPresent := oddsPresent(live.Odds1X2)
	recOddsPresent := oddsPresent(recorded.Odds1X2)
	mc.OddsPresenceParity = liveOddsPresent == recOddsPresent

	if liveOddsPresent && recOddsPresent {
		mc.OddsDelta = map[string]OddsLegDelta{
			"home": legDelta(live.Odds1X2.Home, recorded.Odds1X2.Home),
			"draw": legDelta(live.Odds1X2.Draw, recorded.Odds1X2.Draw),
			"away": legDelta(live.Odds1X2.Away, recorded.Odds1X2.Away),
		}
		for leg, d := range mc.OddsDelta {
			if d.PctDelta > OddsDriftAlertPct {
				mc.Alerts = append(mc.Alerts, fmt.Sprintf("odds_drift_%s_exceeds_%.1fpct", leg, OddsDriftAlertPct))
			}
		}
		sort.Strings(mc.Alerts)
	}

	if !mc.IdentityParity {
		mc.SchemaDrift = append(mc.SchemaDrift, identityDriftFields(live, recorded)...)
	}

	return mc
}

func identityDriftFields(live, recorded *connector.IngestedMatchData) []string {
	var drift []string
	if live.HomeTeam != recorded.HomeTeam {
		drift = append(drift, "home_team")
	}
	if live.AwayTeam != recorded.AwayTeam {
		drift = append(drift, "away_team")
	}
	if live.Competition != recorded.Competition {
		drift = append(drift, "competition")
	}
	if !live.KickoffUTC.Equal(recorded.KickoffUTC) {
		drift = append(drift, "kickoff_utc")
	}
	return drift
}

func oddsPresent(o connector.Odds1X2) bool {
	return o.Home > 0 && o.Draw > 0 && o.Away > 0
}

func legDelta(a, b float64) OddsLegDelta {
	abs := math.Abs(a - b)
	pct := 0.0
	if b != 0 {
		pct = abs / math.Abs(b) * 100
	}
	return OddsLegDelta{AbsDelta: abs, PctDelta: pct}
}

// percentile returns the element at index floor(p*n/100) of the sorted
// values (clamped to the last element), or 0 for an empty input. Input is copied and sorted; callers'
// slices are left untouched.
func percentile(values []float64, p int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	rank := (p * len(sorted)) / 100
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
