package analyzer

import (
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/matchdecide/internal/evidence"
	"github.com/sawpanic/matchdecide/internal/resolver"
)

// MinConfidenceFor resolves the per-market minimum confidence a caller's
// policy imposes; internal/policy.Policy implements this via its Markets map.
type MinConfidenceFor func(market Market) float64

// Request is one analyzer run's input.
type Request struct {
	MatchID        string
	ResolverStatus resolver.Status
	Markets        []Market
	Evidence       evidence.Pack
	PolicyVersion  int
	MinConfidence  MinConfidenceFor
	Thresholds     Thresholds
	Guardrail      *GuardrailStore
}

// Run executes the full analyzer v2 pipeline (spec.md §4.4) for one match:
// the resolver gate, per-market hard gates, scoring, soft gates, and
// stability hashing, in that order.
func Run(req Request) (Result, error) {
	result := Result{
		Version:       CurrentVersion,
		PolicyVersion: req.PolicyVersion,
	}

	evidenceHash, err := EvidenceChecksum(req.Evidence)
	if err != nil {
		return Result{}, err
	}
	inputHash, err := InputHash(req.MatchID, evidenceHash)
	if err != nil {
		return Result{}, err
	}
	result.InputHash = inputHash

	if flag, reason, blocked := resolverBlocked(req.ResolverStatus); blocked {
		result.Status = StatusNoPrediction
		result.AnalysisRun.Flags = append(result.AnalysisRun.Flags, flag)
		result.AnalysisRun.ConflictSummary = reason
		result.AnalysisRun.Counts.NoPrediction = len(req.Markets)
		for _, m := range req.Markets {
			result.Decisions = append(result.Decisions, Decision{
				Market:        m,
				Decision:      DecisionNoPrediction,
				Reasons:       []string{reason},
				ReasonCodes:   []string{reason},
				PolicyVersion: req.PolicyVersion,
			})
		}
		return finalizeHash(result, req.Guardrail)
	}

	features := ExtractFeatures(req.Evidence)

	for _, market := range req.Markets {
		decision := evaluateMarket(market, features, req.Thresholds, req.MinConfidence, req.PolicyVersion)
		result.Decisions = append(result.Decisions, decision)
		switch decision.Decision {
		case DecisionPlay:
			result.AnalysisRun.Counts.Play++
		case DecisionNoBet:
			result.AnalysisRun.Counts.NoBet++
		default:
			result.AnalysisRun.Counts.NoPrediction++
		}
	}

	if result.AnalysisRun.Counts.Play > 0 {
		result.Status = StatusOK
	} else {
		result.Status = StatusNoPrediction
	}

	return finalizeHash(result, req.Guardrail)
}

// evaluateMarket runs hard gates, scoring, and soft gates for one market
// (spec.md §4.4 steps 3-5).
func evaluateMarket(market Market, f Features, t Thresholds, minConfidenceFor MinConfidenceFor, policyVersion int) Decision {
	gates, consensusQuality, proceed := runHardGates(market, f, t)
	if !proceed {
		reason := hardGateFailureReason(gates)
		return Decision{
			Market:        market,
			Decision:      DecisionNoPrediction,
			Reasons:       []string{reason},
			ReasonCodes:   []string{reason},
			PolicyVersion: policyVersion,
			Gates:         gates,
		}
	}

	var flags []string
	for _, g := range gates {
		if g.Reason == ReasonConsensusWeak {
			flags = append(flags, ReasonConsensusWeak)
		}
	}

	probs, separation, scoringReasons := scoreMarket(market, f, t)
	conf := confidence(separation)

	minSep := minSeparationFor(market, t)
	if separation < minSep {
		return Decision{
			Market:        market,
			Decision:      DecisionNoBet,
			Separation:    separation,
			Probabilities: probs,
			Reasons:       append(append([]string{}, scoringReasons...), ReasonLowSeparation),
			ReasonCodes:   []string{ReasonLowSeparation},
			Flags:         flags,
			PolicyVersion: policyVersion,
			Gates:         gates,
		}
	}

	minConfidence := 0.0
	if minConfidenceFor != nil {
		minConfidence = minConfidenceFor(market)
	}

	minorFlagCount := len(flags)
	kind, softReason := applySoftGates(conf, consensusQuality, minConfidence, t, minorFlagCount)

	reasons := capReasons(append(append([]string{}, scoringReasons...), flags...))
	reasonCodes := reasons

	decision := Decision{
		Market:        market,
		Decision:      kind,
		Separation:    separation,
		Probabilities: probs,
		Reasons:       reasons,
		ReasonCodes:   reasonCodes,
		Flags:         flags,
		PolicyVersion: policyVersion,
		Gates:         gates,
	}

	if kind == DecisionPlay {
		selection := selectionFor(probs)
		decision.Selection = selection
		confCopy := conf
		decision.Confidence = &confCopy
	} else if softReason != "" {
		decision.Reasons = capReasons(append(decision.Reasons, softReason))
		decision.ReasonCodes = capReasons(append(decision.ReasonCodes, softReason))
	}

	return decision
}

func hardGateFailureReason(gates []GateOutcome) string {
	last := gates[len(gates)-1]
	if last.Reason != "" {
		return last.Reason
	}
	switch last.Name {
	case "market_supported":
		return ReasonMarketNotSupported
	case "required_domains_present":
		return ReasonMissingStats
	default:
		return ReasonGateBlocked
	}
}

func capReasons(reasons []string) []string {
	if len(reasons) <= MaxReasonsPerDecision {
		return reasons
	}
	return reasons[:MaxReasonsPerDecision]
}

// finalizeHash computes output_hash and consults the guardrail store,
// logging (but never raising) on divergence.
func finalizeHash(result Result, guardrail *GuardrailStore) (Result, error) {
	outHash, err := OutputHash(result)
	if err != nil {
		return Result{}, err
	}
	result.OutputHash = outHash

	if guardrail != nil && guardrail.CheckAndRecord(result.InputHash, outHash) {
		result.AnalysisRun.Flags = append(result.AnalysisRun.Flags, "INTERNAL_GUARDRAIL_TRIGGERED")
		log.Error().
			Str("input_hash", result.InputHash).
			Str("output_hash", outHash).
			Msg("analyzer output diverged for identical input_hash")
	}

	return result, nil
}
