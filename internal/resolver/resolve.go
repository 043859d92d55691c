package resolver

import (
	"sort"
	"time"
)

// Request carries the optional hints that narrow a team-name resolution.
type Request struct {
	HomeText      string
	AwayText      string
	KickoffHint   *time.Time
	WindowHours   *float64
	CompetitionID *string
}

// Resolve maps a (home_text, away_text, optional kickoff hint) into RESOLVED,
// AMBIGUOUS, or NOT_FOUND, per spec.md §4.2. Team-alias and candidate-match
// ordering is deterministic: ties are broken by (kickoff_utc, match_id).
func Resolve(aliases AliasStore, matches MatchStore, req Request) Result {
	homeTeamID, homeFound := resolveTeamID(aliases, req.HomeText)
	awayTeamID, awayFound := resolveTeamID(aliases, req.AwayText)
	if !homeFound || !awayFound {
		return Result{Status: StatusNotFound}
	}

	candidates := matches.FindByTeams(homeTeamID, awayTeamID)
	candidates = filterByWindow(candidates, req.KickoffHint, req.WindowHours)
	candidates = filterByCompetition(candidates, req.CompetitionID)

	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].KickoffUTC.Equal(candidates[j].KickoffUTC) {
			return candidates[i].KickoffUTC.Before(candidates[j].KickoffUTC)
		}
		return candidates[i].MatchID < candidates[j].MatchID
	})

	switch len(candidates) {
	case 0:
		return Result{Status: StatusNotFound}
	case 1:
		return Result{Status: StatusResolved, MatchID: candidates[0].MatchID}
	default:
		out := make([]Candidate, 0, min(len(candidates), MaxCandidates))
		for i, m := range candidates {
			if i >= MaxCandidates {
				break
			}
			out = append(out, Candidate{MatchID: m.MatchID, KickoffUTC: m.KickoffUTC, CompetitionID: m.CompetitionID})
		}
		return Result{Status: StatusAmbiguous, Candidates: out}
	}
}

// resolveTeamID normalizes text and picks the highest-quality alias match,
// breaking ties by team id for determinism.
func resolveTeamID(aliases AliasStore, text string) (string, bool) {
	norm := NormalizeTeamText(text)
	if norm == "" {
		return "", false
	}
	matches := aliases.Lookup(norm)
	if len(matches) == 0 {
		return "", false
	}
	best := matches[0]
	for _, a := range matches[1:] {
		if a.Quality > best.Quality || (a.Quality == best.Quality && a.TeamID < best.TeamID) {
			best = a
		}
	}
	return best.TeamID, true
}

func filterByWindow(matches []Match, hint *time.Time, windowHours *float64) []Match {
	if hint == nil {
		return matches
	}
	hours := 24.0
	if windowHours != nil {
		hours = *windowHours
	}
	window := time.Duration(hours * float64(time.Hour))
	lo := hint.Add(-window)
	hi := hint.Add(window)

	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if !m.KickoffUTC.Before(lo) && !m.KickoffUTC.After(hi) {
			out = append(out, m)
		}
	}
	return out
}

func filterByCompetition(matches []Match, competitionID *string) []Match {
	if competitionID == nil {
		return matches
	}
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.CompetitionID == *competitionID {
			out = append(out, m)
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
