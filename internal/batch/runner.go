package batch

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sawpanic/matchdecide/internal/activation"
	"github.com/sawpanic/matchdecide/internal/shadow"
)

// Runner fans the single-match shadow pipeline out over a sorted match-id
// list using a bounded worker pool (spec.md §5, grounded on the teacher's
// internal/infrastructure/async.WorkerPool: a fixed goroutine count draining
// a channel of work items). Each worker writes only to its own result-slice
// index, so the aggregate BatchReport is identical to the sequential
// ordering on the same input set regardless of goroutine interleaving.
type Runner struct {
	Pipeline *shadow.Pipeline
}

// Run executes in.Shared against every match in in.MatchIDs (or, if empty,
// every match the named connector enumerates), sorted ascending, and
// aggregates the per-match shadow.Reports into a BatchReport.
func (r *Runner) Run(ctx context.Context, in Input) (BatchReport, error) {
	conn, ok := r.Pipeline.Connectors[in.ConnectorName]
	if !ok {
		return BatchReport{}, fmt.Errorf("unknown connector %q", in.ConnectorName)
	}

	matchIDs := in.MatchIDs
	if len(matchIDs) == 0 {
		enumerated, err := conn.FetchMatches(ctx)
		if err != nil {
			return BatchReport{}, fmt.Errorf("enumerate matches: %w", err)
		}
		matchIDs = make([]string, len(enumerated))
		for i, m := range enumerated {
			matchIDs[i] = m.MatchID
		}
	}
	sorted := append([]string(nil), matchIDs...)
	sort.Strings(sorted)

	eligible, denialReason, err := r.rolloutEligibility(ctx, sorted, in.Shared.AllowActivationForThisMatch)
	if err != nil {
		return BatchReport{}, fmt.Errorf("rollout eligibility: %w", err)
	}

	workers := in.Concurrency
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(sorted) {
		workers = len(sorted)
	}
	if workers <= 0 {
		report := BatchReport{MatchIDs: sorted}
		report.ActivationDenialReason = denialReason
		return report, nil
	}

	outcomes := make([]MatchOutcome, len(sorted))
	indices := make(chan int, len(sorted))
	for i := range sorted {
		indices <- i
	}
	close(indices)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				matchID := sorted[i]
				shadowIn := in.Shared
				shadowIn.ConnectorName = in.ConnectorName
				shadowIn.MatchID = matchID
				shadowIn.AllowActivationForThisMatch = in.Shared.AllowActivationForThisMatch && eligible[matchID]
				report, err := r.Pipeline.Run(ctx, shadowIn)
				if err != nil {
					outcomes[i] = MatchOutcome{MatchID: matchID, Err: err.Error()}
					continue
				}
				outcomes[i] = MatchOutcome{MatchID: matchID, Report: &report}
			}
		}()
	}
	wg.Wait()

	report := aggregate(sorted, outcomes)
	report.ActivationDenialReason = denialReason
	return report, nil
}

// rolloutEligibility implements spec.md §4.7's "Rollout and daily cap,
// applied at batch level before the per-decision loop": the eligible set is
// the rollout-percentage-truncated sorted match ids, further emptied
// entirely (with a denial reason) if today's daily activation cap is
// already exhausted. When activation isn't requested for this batch at all,
// it's a no-op so non-activation runs never touch the repository.
func (r *Runner) rolloutEligibility(ctx context.Context, sortedMatchIDs []string, activationRequested bool) (map[string]bool, string, error) {
	if !activationRequested {
		return nil, "", nil
	}

	eligible := make(map[string]bool, len(sortedMatchIDs))
	for _, id := range activation.EligibleMatches(sortedMatchIDs, r.Pipeline.ActivationCfg.RolloutPct) {
		eligible[id] = true
	}

	dailyCap := r.Pipeline.ActivationCfg.DailyMaxActivations
	usedToday := 0
	if r.Pipeline.Repo != nil && r.Pipeline.Repo.ActivationRuns != nil {
		var err error
		usedToday, err = r.Pipeline.Repo.ActivationRuns.CountActivatedToday(ctx, time.Now().UTC())
		if err != nil {
			return nil, "", fmt.Errorf("count activated today: %w", err)
		}
	}

	status := activation.CheckDailyCap(dailyCap, usedToday)
	if status.Exhausted {
		return map[string]bool{}, activation.BatchDenialReason(status), nil
	}
	return eligible, "", nil
}

// aggregate reduces per-match outcomes into a BatchReport. It iterates
// outcomes in sorted-match-id order, so the result is independent of which
// worker processed which match.
func aggregate(matchIDs []string, outcomes []MatchOutcome) BatchReport {
	report := BatchReport{
		MatchIDs:             matchIDs,
		GateFailureFrequency: map[string]int{},
		PerMatch:             outcomes,
	}

	flagCounts := map[string]int{}
	alertSeen := map[string]bool{}

	for _, o := range outcomes {
		report.LiveIO.Attempted++
		if o.Err != "" {
			report.LiveIO.Failed++
			continue
		}
		report.LiveIO.Succeeded++

		if o.Report.Activation.Activated {
			report.ActivatedCount++
		}

		res := o.Report.Analysis
		report.Counts.Play += res.AnalysisRun.Counts.Play
		report.Counts.NoBet += res.AnalysisRun.Counts.NoBet
		report.Counts.NoPrediction += res.AnalysisRun.Counts.NoPrediction

		for _, flag := range res.AnalysisRun.Flags {
			flagCounts[flag]++
		}
		for _, g := range res.AnalysisRun.GateResults {
			if !g.Passed {
				report.GateFailureFrequency[g.Name]++
			}
		}
		for _, d := range res.Decisions {
			for _, g := range d.Gates {
				if !g.Passed {
					report.GateFailureFrequency[g.Name]++
				}
			}
		}

		if o.Report.Activation.Reason != "" && !o.Report.Activation.Activated {
			if !alertSeen[o.Report.Activation.Reason] {
				alertSeen[o.Report.Activation.Reason] = true
				report.GuardrailAlerts = append(report.GuardrailAlerts, o.Report.Activation.Reason)
			}
		}
	}

	report.TopFlags = topFlags(flagCounts, TopFlagLimit)
	sort.Strings(report.GuardrailAlerts)
	return report
}

func topFlags(counts map[string]int, limit int) []FlagFrequency {
	freqs := make([]FlagFrequency, 0, len(counts))
	for flag, count := range counts {
		freqs = append(freqs, FlagFrequency{Flag: flag, Count: count})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Count != freqs[j].Count {
			return freqs[i].Count > freqs[j].Count
		}
		return freqs[i].Flag < freqs[j].Flag
	})
	if len(freqs) > limit {
		freqs = freqs[:limit]
	}
	return freqs
}
