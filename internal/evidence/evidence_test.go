package evidence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshness_DecaysLinearlyToZeroAtWindow(t *testing.T) {
	assert.Equal(t, 1.0, Freshness(0, 24))
	assert.Equal(t, 0.5, Freshness(12, 24))
	assert.Equal(t, 0.0, Freshness(24, 24))
	assert.Equal(t, 0.0, Freshness(48, 24))
}

func TestCompleteness_FractionOfRequired(t *testing.T) {
	assert.Equal(t, 1.0, Completeness(4, 4))
	assert.Equal(t, 0.5, Completeness(2, 4))
	assert.Equal(t, 1.0, Completeness(0, 0))
}

func TestEvaluate_NoSourcesIsCriticalFailure(t *testing.T) {
	q := Evaluate(0, 0, 24, 0, 4, false)
	assert.False(t, q.Passed)
	assert.Equal(t, 0.0, q.Score)
	assert.Contains(t, q.Flags, FlagNoSourcesAvailable)
}

func TestEvaluate_SingleSourceFlagsInsufficientButCanPass(t *testing.T) {
	q := Evaluate(1, 0, 24, 4, 4, false)
	assert.True(t, q.Passed)
	assert.Contains(t, q.Flags, FlagInsufficientSources)
}

func TestEvaluate_StaleAndIncompleteFailsThreshold(t *testing.T) {
	q := Evaluate(2, 48, 24, 1, 4, false)
	assert.False(t, q.Passed)
	assert.Contains(t, q.Flags, FlagStaleData)
	assert.Contains(t, q.Flags, FlagIncompleteData)
}

func TestEvaluate_LowAgreementFlaggedButNotCritical(t *testing.T) {
	q := Evaluate(2, 0, 24, 4, 4, true)
	assert.True(t, q.Passed)
	assert.Contains(t, q.Flags, FlagLowAgreement)
}

func TestMerge_PicksHighestConfidenceThenFreshest(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	sources := []SourcePayload{
		{SourceName: "provider-a", Confidence: 0.9, CapturedAtUTC: now.Add(-2 * time.Hour), Fields: map[string]float64{"home_goals_scored": 1.4}},
		{SourceName: "provider-b", Confidence: 0.95, CapturedAtUTC: now.Add(-1 * time.Hour), Fields: map[string]float64{"home_goals_scored": 1.5}},
		{SourceName: "provider-c", Confidence: 0.95, CapturedAtUTC: now, Fields: map[string]float64{"home_goals_scored": 1.6}},
	}

	merged := Merge(sources)
	assert.Equal(t, 1.6, merged.Fields["home_goals_scored"])
	assert.Equal(t, []string{"provider-a", "provider-b", "provider-c"}, merged.Sources)
}

func TestMerge_FlagsLowAgreementBeyondTolerance(t *testing.T) {
	sources := []SourcePayload{
		{SourceName: "provider-a", Confidence: 0.9, Fields: map[string]float64{"home": 2.0}},
		{SourceName: "provider-b", Confidence: 0.9, Fields: map[string]float64{"home": 3.0}},
	}
	merged := Merge(sources)
	assert.True(t, merged.LowAgreement)
}

func TestMerge_WithinToleranceNoFlag(t *testing.T) {
	sources := []SourcePayload{
		{SourceName: "provider-a", Confidence: 0.9, Fields: map[string]float64{"home": 2.0}},
		{SourceName: "provider-b", Confidence: 0.9, Fields: map[string]float64{"home": 2.1}},
	}
	merged := Merge(sources)
	assert.False(t, merged.LowAgreement)
}

func TestMerge_EmptySources(t *testing.T) {
	merged := Merge(nil)
	assert.Empty(t, merged.Fields)
	assert.False(t, merged.LowAgreement)
}

func TestBuildStats_ComputesFromMergedFields(t *testing.T) {
	merged := ConsensusResult{
		Fields: map[string]float64{
			"home_goals_scored":   1.8,
			"home_goals_conceded": 0.9,
			"away_goals_scored":   1.1,
			"away_goals_conceded": 1.3,
		},
		Sources: []string{"provider-a"},
	}
	domain := BuildStats(merged, 1, 2, 24)
	assert.Equal(t, 1.8, domain.Data.Home.GoalsScoredPerMatch)
	assert.Equal(t, 1.3, domain.Data.Away.GoalsConcededPerMatch)
	assert.Contains(t, domain.Quality.Flags, FlagInsufficientSources)
}

func TestH2HData_Share(t *testing.T) {
	assert.Equal(t, 0.5, H2HData{}.Share())
	assert.InDelta(t, 0.75, H2HData{MatchesCount: 4, HomeWins: 2, Draws: 2}.Share(), 1e-9)
}

func TestNewPack_FlagsNoSourcesWhenEveryDomainAbsent(t *testing.T) {
	p := NewPack("m-001", time.Now().UTC(), nil, nil, nil, nil)
	assert.Contains(t, p.Flags, FlagNoSourcesAvailable)
	assert.ElementsMatch(t, []string{"fixtures", "stats", "h2h", "odds"}, p.Missing())
}

func TestNewPack_WithDomainsHasNoPackFlag(t *testing.T) {
	stats := BuildStats(ConsensusResult{
		Fields: map[string]float64{
			"home_goals_scored": 1, "home_goals_conceded": 1,
			"away_goals_scored": 1, "away_goals_conceded": 1,
		},
		Sources: []string{"a", "b"},
	}, 2, 0, 24)

	p := NewPack("m-001", time.Now().UTC(), nil, &stats, nil, nil)
	require.Empty(t, p.Flags)
	assert.Equal(t, stats.Data.Home.GoalsScoredPerMatch, p.Stats.Data.Home.GoalsScoredPerMatch)
	assert.ElementsMatch(t, []string{"fixtures", "h2h", "odds"}, p.Missing())
}

func TestCacheKey_DeterministicAndDistinguishesWindow(t *testing.T) {
	k1, err := CacheKey("m-001", "stats", 24)
	require.NoError(t, err)
	k2, err := CacheKey("m-001", "stats", 24)
	require.NoError(t, err)
	k3, err := CacheKey("m-001", "stats", 48)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Len(t, k1, 32)
}
