package evidence

import "time"

// PassThreshold is the minimum mean score a domain needs to pass quality,
// absent a critical flag.
const PassThreshold = 0.5

// Freshness scores how stale a capture is relative to the window it must
// cover: 1.0 at zero age, 0.0 at or beyond window_hours.
func Freshness(ageHours, windowHours float64) float64 {
	if windowHours <= 0 {
		return 0
	}
	score := 1 - ageHours/windowHours
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Completeness is the fraction of required fields actually present.
func Completeness(presentRequired, totalRequired int) float64 {
	if totalRequired <= 0 {
		return 1
	}
	score := float64(presentRequired) / float64(totalRequired)
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}

// Score combines freshness and completeness into the domain's overall score
// (spec.md §4.3: mean of the two).
func Score(freshness, completeness float64) float64 {
	return (freshness + completeness) / 2
}

// Evaluate builds a Quality verdict from the inputs a domain fetch produces.
//
//	sourceCount      — number of sources that contributed to this domain
//	ageHours         — age of the freshest contributing capture
//	windowHours      — the evidence window this domain must satisfy
//	presentRequired  — required fields actually present after merge
//	totalRequired    — required fields for this domain
//	lowAgreement     — true if consensus merge detected disagreement beyond tolerance
func Evaluate(sourceCount int, ageHours, windowHours float64, presentRequired, totalRequired int, lowAgreement bool) Quality {
	var flags []string

	if sourceCount == 0 {
		flags = append(flags, FlagNoSourcesAvailable)
		return Quality{Passed: false, Score: 0, Flags: flags}
	}
	if sourceCount == 1 {
		flags = append(flags, FlagInsufficientSources)
	}

	freshness := Freshness(ageHours, windowHours)
	if freshness == 0 {
		flags = append(flags, FlagStaleData)
	}

	completeness := Completeness(presentRequired, totalRequired)
	if completeness < 1 {
		flags = append(flags, FlagIncompleteData)
	}

	if lowAgreement {
		flags = append(flags, FlagLowAgreement)
	}

	score := Score(freshness, completeness)
	passed := score >= PassThreshold
	for _, f := range flags {
		if criticalFlags[f] {
			passed = false
		}
	}

	return Quality{Passed: passed, Score: score, Flags: flags}
}

// AgeHours is a small helper so callers needn't import time for this one op.
func AgeHours(capturedAtUTC, nowUTC time.Time) float64 {
	return nowUTC.Sub(capturedAtUTC).Hours()
}
