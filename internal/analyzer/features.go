package analyzer

import "github.com/sawpanic/matchdecide/internal/evidence"

// Features is the pure projection of an evidence.Pack the scorers read from
// (spec.md §4.4 step 2). It never raises on a missing domain — absence is
// recorded in Missing.
type Features struct {
	HasFixtures bool
	HasStats    bool
	HasH2H      bool
	HasOdds     bool

	Stats   evidence.StatsData
	H2H     evidence.H2HData

	DomainQuality map[string]evidence.Quality
	Missing       []string
}

// ExtractFeatures builds Features from a Pack. Pure: no I/O, no mutation.
func ExtractFeatures(pack evidence.Pack) Features {
	f := Features{
		HasFixtures:   pack.Fixtures != nil,
		HasStats:      pack.Stats != nil,
		HasH2H:        pack.H2H != nil,
		HasOdds:       pack.Odds != nil,
		DomainQuality: pack.DomainQualityScores(),
		Missing:       pack.Missing(),
	}
	if pack.Stats != nil {
		f.Stats = pack.Stats.Data
	}
	if pack.H2H != nil {
		f.H2H = pack.H2H.Data
	}
	return f
}

// meanQualityScore averages the score across the given required domains that
// are actually present in f.DomainQuality; a domain entirely absent
// contributes a zero score (it would already have failed the "required
// domains present" hard gate before this is read in anger, but scoring code
// reads it defensively).
func meanQualityScore(f Features, domains []string) float64 {
	if len(domains) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range domains {
		sum += f.DomainQuality[d].Score
	}
	return sum / float64(len(domains))
}

// minQualityScore is the minimum quality score across the given domains,
// used for the conflict gate's consensus_quality computation.
func minQualityScore(f Features, domains []string) float64 {
	min := 1.0
	any := false
	for _, d := range domains {
		q, ok := f.DomainQuality[d]
		if !ok {
			return 0
		}
		any = true
		if q.Score < min {
			min = q.Score
		}
	}
	if !any {
		return 0
	}
	return min
}

// anyLowAgreement reports whether any of the given domains flagged LOW_AGREEMENT.
func anyLowAgreement(f Features, domains []string) bool {
	for _, d := range domains {
		q, ok := f.DomainQuality[d]
		if !ok {
			continue
		}
		for _, flag := range q.Flags {
			if flag == evidence.FlagLowAgreement {
				return true
			}
		}
	}
	return false
}
