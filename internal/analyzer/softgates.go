package analyzer

// applySoftGates implements spec.md §4.4 step 5. Returns NO_BET (with its
// reason) if any soft gate fails, else DecisionPlay.
func applySoftGates(confidence, consensusQuality float64, minConfidence float64, t Thresholds, minorFlagCount int) (DecisionKind, string) {
	if confidence < minConfidence {
		return DecisionNoBet, ReasonBelowMinConfidence
	}
	if consensusQuality < t.ConflictDowngrade && confidence < t.OverrideConfidenceBelowT2 {
		return DecisionNoBet, ReasonBelowMinConfidence
	}
	if minorFlagCount >= t.MaxMinorFlagsBeforeNoBet {
		return DecisionNoBet, ReasonTooManyMinorFlags
	}
	return DecisionPlay, ""
}

// selectionFor returns the winning outcome name for a scored market's
// probability map, breaking ties deterministically by outcome name.
func selectionFor(probs map[string]float64) string {
	_, _, top := topTwo(probs)
	return top
}
