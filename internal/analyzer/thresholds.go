package analyzer

// Thresholds holds every tunable constant in the analyzer pipeline (spec.md
// §4.4), defaulting to the spec's values. A policy.Policy overrides
// MinConfidence per market; everything else is a pipeline-wide constant.
type Thresholds struct {
	EvidenceQuality           float64
	ConflictBlock             float64
	ConflictDowngrade         float64
	MinSeparation1X2          float64
	MinSeparationOU25         float64
	MinSeparationBTTS         float64
	HomeAdvantage             float64
	H2HWeight                 float64
	OverrideConfidenceBelowT2 float64
	MaxMinorFlagsBeforeNoBet  int
}

// DefaultThresholds returns spec.md §4.4's constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EvidenceQuality:           0.5,
		ConflictBlock:             0.4,
		ConflictDowngrade:         0.65,
		MinSeparation1X2:          0.10,
		MinSeparationOU25:         0.08,
		MinSeparationBTTS:         0.08,
		HomeAdvantage:             0.15,
		H2HWeight:                 0.1,
		OverrideConfidenceBelowT2: 0.78,
		MaxMinorFlagsBeforeNoBet:  2,
	}
}
