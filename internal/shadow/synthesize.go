package shadow

import (
	"github.com/sawpanic/matchdecide/internal/connector"
	"github.com/sawpanic/matchdecide/internal/evidence"
)

// SynthesizeEvidencePack builds an evidence.Pack from a single connector's
// IngestedMatchData (spec.md §4.5 step 2, "synthesize an EvidencePack for
// connector-backed flows"). A single connector carries no stats/h2h history,
// so only the fixtures and odds domains are populated; the analyzer's
// required-domains-present hard gate then correctly withholds a PLAY
// decision until a richer multi-source evidence.Pack (§4.3) is available —
// this is the intended boundary between raw ingestion and scored evidence.
// internal/batch's live-shadow analyze reuses this exact synthesis for both
// sides so the two are comparable.
func SynthesizeEvidencePack(data *connector.IngestedMatchData, connectorName string) evidence.Pack {
	capturedAt := data.KickoffUTC

	fixturesQuality := evidence.Evaluate(1, 0, 24, 4, 4, false)
	fixtures := &evidence.FixturesDomain{
		Data: evidence.FixturesData{
			HomeTeam:      data.HomeTeam,
			AwayTeam:      data.AwayTeam,
			CompetitionID: data.Competition,
			KickoffUTC:    data.KickoffUTC,
		},
		Quality: fixturesQuality,
		Sources: []string{connectorName},
	}

	oddsQuality := evidence.Evaluate(1, 0, 24, 3, 3, false)
	odds := &evidence.OddsDomain{
		Data: evidence.OddsData{
			Home: data.Odds1X2.Home,
			Draw: data.Odds1X2.Draw,
			Away: data.Odds1X2.Away,
		},
		Quality: oddsQuality,
		Sources: []string{connectorName},
	}

	return evidence.NewPack(data.MatchID, capturedAt, fixtures, nil, nil, odds)
}
