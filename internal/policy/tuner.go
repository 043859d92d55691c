package policy

import (
	"math"
	"sort"
)

// OutcomeSample is one historical PLAY decision's confidence and whether it
// hit, the tuner's sole input signal (spec.md §4.5 step 9: shadow-mode only).
type OutcomeSample struct {
	Market     string
	Confidence float64
	Hit        bool
}

// ObjectiveConfig weights the tuner's objective function, grounded on the
// teacher's internal/tune/weights.ObjectiveConfig (hit-rate weight plus an L2
// regularization term pulling proposed values back toward the base policy).
type ObjectiveConfig struct {
	HitRateWeight    float64
	RegularizationL2 float64
}

// DefaultObjectiveConfig mirrors the teacher's default weighting.
func DefaultObjectiveConfig() ObjectiveConfig {
	return ObjectiveConfig{HitRateWeight: 0.7, RegularizationL2: 0.005}
}

// MarketDiff is one market's proposed min_confidence change.
type MarketDiff struct {
	Market           string  `json:"market"`
	CurrentMinConf   float64 `json:"current_min_confidence"`
	ProposedMinConf  float64 `json:"proposed_min_confidence"`
	SampleCount      int     `json:"sample_count"`
	ObservedHitRate  float64 `json:"observed_hit_rate"`
}

// GuardrailResult is one invariant check run against a proposed policy before
// it is surfaced, independent of whether the invariant held.
type GuardrailResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Proposal is the tuner's shadow-only output. Applying it to become the
// active policy is explicitly out of the core's scope (spec.md §9).
type Proposal struct {
	Diffs            []MarketDiff      `json:"diffs"`
	GuardrailResults []GuardrailResult `json:"guardrail_results"`
	ProposedPolicy   Policy            `json:"proposed_policy"`
}

// minSamplesForProposal is the smallest sample count the tuner will act on;
// below it, the market is left unchanged and reported with zero diff.
const minSamplesForProposal = 20

// maxStepPerRun bounds how far min_confidence can move in a single proposal,
// regardless of what the objective function would otherwise suggest —
// mirrors the teacher's regularization-against-base-weights discipline.
const maxStepPerRun = 0.05

// Propose evaluates samples per market and proposes a min_confidence nudge
// toward whichever value the observed hit rate suggests, regularized back
// toward the current policy and step-capped. It never mutates base.
func Propose(base Policy, samples []OutcomeSample, cfg ObjectiveConfig) Proposal {
	byMarket := groupByMarket(samples)

	proposed := Policy{
		Meta:    Meta{Version: base.Meta.Version + 1, Notes: "shadow tuner proposal"},
		Markets: make(map[string]MarketPolicy, len(base.Markets)),
		Reasons: base.Reasons,
	}
	for k, v := range base.Markets {
		proposed.Markets[k] = v
	}

	var diffs []MarketDiff
	for _, market := range sortedMarketKeys(byMarket) {
		group := byMarket[market]
		current := base.Markets[market].MinConfidence

		if len(group) < minSamplesForProposal {
			diffs = append(diffs, MarketDiff{
				Market: market, CurrentMinConf: current, ProposedMinConf: current,
				SampleCount: len(group),
			})
			continue
		}

		hitRate := hitRateOf(group)
		objective := cfg.HitRateWeight*hitRate - cfg.RegularizationL2*math.Abs(current-hitRate)
		target := clamp01(objective)

		step := target - current
		if step > maxStepPerRun {
			step = maxStepPerRun
		}
		if step < -maxStepPerRun {
			step = -maxStepPerRun
		}
		newMinConf := clamp01(current + step)

		mp := proposed.Markets[market]
		mp.MinConfidence = newMinConf
		proposed.Markets[market] = mp

		diffs = append(diffs, MarketDiff{
			Market: market, CurrentMinConf: current, ProposedMinConf: newMinConf,
			SampleCount: len(group), ObservedHitRate: hitRate,
		})
	}

	return Proposal{
		Diffs:            diffs,
		GuardrailResults: runGuardrails(base, proposed),
		ProposedPolicy:   proposed,
	}
}

// runGuardrails checks invariant-preserving properties of a proposed policy
// against its base, independent of Validate (which only checks range bounds).
func runGuardrails(base, proposed Policy) []GuardrailResult {
	var results []GuardrailResult

	err := proposed.Validate()
	results = append(results, GuardrailResult{Name: "range_invariants", Passed: err == nil, Detail: errString(err)})

	maxSwing := true
	for market, mp := range proposed.Markets {
		if baseMP, ok := base.Markets[market]; ok {
			if math.Abs(mp.MinConfidence-baseMP.MinConfidence) > maxStepPerRun+1e-9 {
				maxSwing = false
			}
		}
	}
	results = append(results, GuardrailResult{Name: "bounded_step_size", Passed: maxSwing})

	return results
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func groupByMarket(samples []OutcomeSample) map[string][]OutcomeSample {
	out := make(map[string][]OutcomeSample)
	for _, s := range samples {
		out[s.Market] = append(out[s.Market], s)
	}
	return out
}

func sortedMarketKeys(byMarket map[string][]OutcomeSample) []string {
	keys := make([]string, 0, len(byMarket))
	for k := range byMarket {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func hitRateOf(samples []OutcomeSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	hits := 0
	for _, s := range samples {
		if s.Hit {
			hits++
		}
	}
	return float64(hits) / float64(len(samples))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
