package analyzer

// requiredDomains is the domain set each supported market currently needs,
// per spec.md §4.4 step 3b ("currently stats for all supported markets").
var requiredDomains = map[Market][]string{
	Market1X2:  {"stats"},
	MarketOU25: {"stats"},
	MarketBTTS: {"stats"},
}

// runHardGates executes spec.md §4.4 step 3 in order, short-circuiting on the
// first failure. It returns the accumulated GateOutcome trail (for
// observability, even on early exit), the consensus_quality value computed by
// the conflict gate, and whether the market should proceed to scoring.
func runHardGates(market Market, f Features, t Thresholds) ([]GateOutcome, float64, bool) {
	var gates []GateOutcome

	supported := SupportedMarkets[market]
	gates = append(gates, GateOutcome{Name: "market_supported", Passed: supported})
	if !supported {
		return gates, 0, false
	}

	required := requiredDomains[market]
	present := true
	for _, d := range required {
		if _, ok := f.DomainQuality[d]; !ok {
			present = false
			break
		}
	}
	gates = append(gates, GateOutcome{Name: "required_domains_present", Passed: present})
	if !present {
		return gates, 0, false
	}

	meanQuality := meanQualityScore(f, required)
	qualityOK := meanQuality >= t.EvidenceQuality
	qualityGate := GateOutcome{
		Name:    "evidence_quality",
		Passed:  qualityOK,
		Metrics: map[string]float64{"mean_quality": meanQuality, "threshold": t.EvidenceQuality},
	}
	if !qualityOK {
		qualityGate.Reason = ReasonLowQualityEvidence
	}
	gates = append(gates, qualityGate)
	if !qualityOK {
		return gates, 0, false
	}

	consensusQuality := minQualityScore(f, required)
	if anyLowAgreement(f, required) {
		consensusQuality *= 0.7
	}

	switch {
	case consensusQuality < t.ConflictBlock:
		gates = append(gates, GateOutcome{
			Name:    "conflict",
			Passed:  false,
			Reason:  ReasonConsensusWeak,
			Metrics: map[string]float64{"consensus_quality": consensusQuality, "block_threshold": t.ConflictBlock},
		})
		return gates, consensusQuality, false
	case consensusQuality < t.ConflictDowngrade:
		gates = append(gates, GateOutcome{
			Name:    "conflict",
			Passed:  true,
			Reason:  ReasonConsensusWeak,
			Metrics: map[string]float64{"consensus_quality": consensusQuality, "downgrade_threshold": t.ConflictDowngrade},
		})
		return gates, consensusQuality, true
	default:
		gates = append(gates, GateOutcome{
			Name:    "conflict",
			Passed:  true,
			Metrics: map[string]float64{"consensus_quality": consensusQuality},
		})
		return gates, consensusQuality, true
	}
}
