package batch

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/matchdecide/internal/connector"
)

func liveFixtures() fstest.MapFS {
	return fstest.MapFS{
		"fixtures/a1.json": &fstest.MapFile{Data: []byte(`{
			"match_id": "a1", "home_team": "Home FC", "away_team": "Away FC",
			"competition": "league", "kickoff_utc": "2026-08-01T12:00:00Z",
			"odds_1x2": {"home": 2.0, "draw": 3.0, "away": 4.0}, "status": "scheduled"
		}`)},
	}
}

func recordedFixturesDrifted() fstest.MapFS {
	return fstest.MapFS{
		"fixtures/a1.json": &fstest.MapFile{Data: []byte(`{
			"match_id": "a1", "home_team": "Home FC", "away_team": "Away FC",
			"competition": "league", "kickoff_utc": "2026-08-01T12:00:00Z",
			"odds_1x2": {"home": 2.5, "draw": 3.0, "away": 4.0}, "status": "scheduled"
		}`)},
	}
}

func recordedFixturesIdentical() fstest.MapFS {
	return fstest.MapFS{
		"fixtures/a1.json": &fstest.MapFile{Data: []byte(`{
			"match_id": "a1", "home_team": "Home FC", "away_team": "Away FC",
			"competition": "league", "kickoff_utc": "2026-08-01T12:00:00Z",
			"odds_1x2": {"home": 2.0, "draw": 3.0, "away": 4.0}, "status": "scheduled"
		}`)},
	}
}

func TestCompare_IdenticalSidesYieldFullParityNoAlerts(t *testing.T) {
	live := connector.NewRecorded("live", liveFixtures(), "fixtures")
	recorded := connector.NewRecorded("recorded", recordedFixturesIdentical(), "fixtures")

	report, err := Compare(context.Background(), live, recorded, []string{"a1"})
	require.NoError(t, err)
	require.Len(t, report.PerMatch, 1)
	mc := report.PerMatch[0]
	assert.True(t, mc.IdentityParity)
	assert.True(t, mc.OddsPresenceParity)
	assert.Empty(t, mc.Alerts)
	assert.Empty(t, mc.SchemaDrift)
}

func TestCompare_OddsDriftAboveThresholdRaisesAlert(t *testing.T) {
	live := connector.NewRecorded("live", liveFixtures(), "fixtures")
	recorded := connector.NewRecorded("recorded", recordedFixturesDrifted(), "fixtures")

	report, err := Compare(context.Background(), live, recorded, []string{"a1"})
	require.NoError(t, err)
	require.Len(t, report.PerMatch, 1)
	mc := report.PerMatch[0]
	assert.True(t, mc.IdentityParity)
	require.NotEmpty(t, mc.Alerts)
	assert.Contains(t, mc.Alerts[0], "odds_drift_home")
	assert.Greater(t, report.OddsAbsDeltaP95, 0.0)
}

func TestCompare_MissingOnOneSideRecordsSchemaDrift(t *testing.T) {
	live := connector.NewRecorded("live", liveFixtures(), "fixtures")
	recorded := connector.NewRecorded("recorded", fstest.MapFS{}, "fixtures")

	report, err := Compare(context.Background(), live, recorded, []string{"a1"})
	require.NoError(t, err)
	require.Len(t, report.PerMatch, 1)
	assert.Contains(t, report.PerMatch[0].SchemaDrift, "missing_on_one_side")
}

func TestCompare_SortsMatchIDsAscending(t *testing.T) {
	fs := fstest.MapFS{
		"fixtures/a1.json": liveFixtures()["fixtures/a1.json"],
		"fixtures/b1.json": &fstest.MapFile{Data: []byte(`{
			"match_id": "b1", "home_team": "B", "away_team": "C",
			"competition": "league", "kickoff_utc": "2026-08-01T12:00:00Z",
			"odds_1x2": {"home": 1.0, "draw": 2.0, "away": 3.0}, "status": "scheduled"
		}`)},
	}
	conn := connector.NewRecorded("both", fs, "fixtures")

	report, err := Compare(context.Background(), conn, conn, []string{"b1", "a1"})
	require.NoError(t, err)
	require.Len(t, report.PerMatch, 2)
	assert.Equal(t, "a1", report.PerMatch[0].MatchID)
	assert.Equal(t, "b1", report.PerMatch[1].MatchID)
}
