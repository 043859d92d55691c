package evidence

import "time"

// BuildStats assembles the "stats" domain from merged per-team consensus
// fields. Required fields: home_goals_scored, home_goals_conceded,
// away_goals_scored, away_goals_conceded.
func BuildStats(merged ConsensusResult, sourceCount int, ageHours, windowHours float64) StatsDomain {
	required := []string{"home_goals_scored", "home_goals_conceded", "away_goals_scored", "away_goals_conceded"}
	present := countPresent(merged.Fields, required)

	return StatsDomain{
		Data: StatsData{
			Home: TeamStats{
				GoalsScoredPerMatch:   merged.Fields["home_goals_scored"],
				GoalsConcededPerMatch: merged.Fields["home_goals_conceded"],
			},
			Away: TeamStats{
				GoalsScoredPerMatch:   merged.Fields["away_goals_scored"],
				GoalsConcededPerMatch: merged.Fields["away_goals_conceded"],
			},
		},
		Quality: Evaluate(sourceCount, ageHours, windowHours, present, len(required), merged.LowAgreement),
		Sources: merged.Sources,
	}
}

// BuildH2H assembles the "h2h" domain from merged consensus fields.
func BuildH2H(merged ConsensusResult, sourceCount int, ageHours, windowHours float64) H2HDomain {
	required := []string{"matches_count", "home_wins", "away_wins", "draws"}
	present := countPresent(merged.Fields, required)

	return H2HDomain{
		Data: H2HData{
			MatchesCount: int(merged.Fields["matches_count"]),
			HomeWins:     int(merged.Fields["home_wins"]),
			AwayWins:     int(merged.Fields["away_wins"]),
			Draws:        int(merged.Fields["draws"]),
		},
		Quality: Evaluate(sourceCount, ageHours, windowHours, present, len(required), merged.LowAgreement),
		Sources: merged.Sources,
	}
}

// BuildOdds assembles the "odds" domain from merged consensus fields.
func BuildOdds(merged ConsensusResult, sourceCount int, ageHours, windowHours float64) OddsDomain {
	required := []string{"home", "draw", "away"}
	present := countPresent(merged.Fields, required)

	return OddsDomain{
		Data: OddsData{
			Home: merged.Fields["home"],
			Draw: merged.Fields["draw"],
			Away: merged.Fields["away"],
		},
		Quality: Evaluate(sourceCount, ageHours, windowHours, present, len(required), merged.LowAgreement),
		Sources: merged.Sources,
	}
}

func countPresent(fields map[string]float64, required []string) int {
	count := 0
	for _, name := range required {
		if _, ok := fields[name]; ok {
			count++
		}
	}
	return count
}

// NewPack assembles the top-level Pack envelope around whichever domains were
// fetched. Domains left nil stay absent; the pack-level Flags list aggregates
// any domain flag that also applies at the pack level (currently
// NO_SOURCES_AVAILABLE, when every requested domain came back empty).
func NewPack(matchID string, capturedAtUTC time.Time, fixtures *FixturesDomain, stats *StatsDomain, h2h *H2HDomain, odds *OddsDomain) Pack {
	p := Pack{
		MatchID:       matchID,
		CapturedAtUTC: capturedAtUTC,
		Fixtures:      fixtures,
		Stats:         stats,
		H2H:           h2h,
		Odds:          odds,
	}

	allEmpty := fixtures == nil && stats == nil && h2h == nil && odds == nil
	if allEmpty {
		p.Flags = append(p.Flags, FlagNoSourcesAvailable)
	}
	return p
}
