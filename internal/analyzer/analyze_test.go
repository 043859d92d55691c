package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/matchdecide/internal/evidence"
	"github.com/sawpanic/matchdecide/internal/resolver"
)

func strongEvidencePack() evidence.Pack {
	stats := evidence.StatsDomain{
		Data: evidence.StatsData{
			Home: evidence.TeamStats{GoalsScoredPerMatch: 2.4, GoalsConcededPerMatch: 0.6},
			Away: evidence.TeamStats{GoalsScoredPerMatch: 0.7, GoalsConcededPerMatch: 1.8},
		},
		Quality: evidence.Quality{Passed: true, Score: 0.95},
	}
	h2h := evidence.H2HDomain{
		Data:    evidence.H2HData{MatchesCount: 4, HomeWins: 3, Draws: 1},
		Quality: evidence.Quality{Passed: true, Score: 0.9},
	}
	return evidence.NewPack("m-001", time.Time{}, nil, &stats, &h2h, nil)
}

func TestRun_ResolverNotFoundYieldsNoPredictionForAllMarkets(t *testing.T) {
	req := Request{
		MatchID:        "m-404",
		ResolverStatus: resolver.StatusNotFound,
		Markets:        []Market{Market1X2, MarketOU25},
		Thresholds:     DefaultThresholds(),
	}
	result, err := Run(req)
	require.NoError(t, err)
	assert.Equal(t, StatusNoPrediction, result.Status)
	assert.Len(t, result.Decisions, 2)
	for _, d := range result.Decisions {
		assert.Equal(t, DecisionNoPrediction, d.Decision)
	}
	assert.Contains(t, result.AnalysisRun.Flags, "NOT_FOUND")
}

func TestRun_ResolverAmbiguousYieldsNoPrediction(t *testing.T) {
	req := Request{
		MatchID:        "m-405",
		ResolverStatus: resolver.StatusAmbiguous,
		Markets:        []Market{Market1X2},
		Thresholds:     DefaultThresholds(),
	}
	result, err := Run(req)
	require.NoError(t, err)
	assert.Equal(t, StatusNoPrediction, result.Status)
	assert.Contains(t, result.AnalysisRun.Flags, "AMBIGUOUS")
}

func TestRun_StrongEvidenceProducesPlayWithSelectionAndConfidence(t *testing.T) {
	pack := strongEvidencePack()
	req := Request{
		MatchID:        "m-001",
		ResolverStatus: resolver.StatusResolved,
		Markets:        []Market{Market1X2},
		Evidence:       pack,
		Thresholds:     DefaultThresholds(),
		MinConfidence:  func(Market) float64 { return 0.5 },
	}
	result, err := Run(req)
	require.NoError(t, err)
	require.Len(t, result.Decisions, 1)
	d := result.Decisions[0]
	assert.Equal(t, DecisionPlay, d.Decision)
	require.NotNil(t, d.Confidence)
	assert.Equal(t, "HOME", d.Selection)
	assert.Contains(t, d.Reasons, ReasonH2HUsed)
}

func TestRun_MissingStatsDomainYieldsNoPrediction(t *testing.T) {
	pack := evidence.NewPack("m-003", time.Time{}, nil, nil, nil, nil)
	req := Request{
		MatchID:        "m-003",
		ResolverStatus: resolver.StatusResolved,
		Markets:        []Market{Market1X2},
		Evidence:       pack,
		Thresholds:     DefaultThresholds(),
	}
	result, err := Run(req)
	require.NoError(t, err)
	assert.Equal(t, DecisionNoPrediction, result.Decisions[0].Decision)
	assert.Contains(t, result.Decisions[0].Reasons, ReasonMissingStats)
}

func TestRun_LowQualityEvidenceBlocksViaEvidenceQualityGate(t *testing.T) {
	stats := evidence.StatsDomain{
		Data: evidence.StatsData{
			Home: evidence.TeamStats{GoalsScoredPerMatch: 1.2, GoalsConcededPerMatch: 1.1},
			Away: evidence.TeamStats{GoalsScoredPerMatch: 1.1, GoalsConcededPerMatch: 1.2},
		},
		Quality: evidence.Quality{Passed: false, Score: 0.2},
	}
	pack := evidence.NewPack("m-002", time.Time{}, nil, &stats, nil, nil)
	req := Request{
		MatchID:        "m-002",
		ResolverStatus: resolver.StatusResolved,
		Markets:        []Market{Market1X2},
		Evidence:       pack,
		Thresholds:     DefaultThresholds(),
	}
	result, err := Run(req)
	require.NoError(t, err)
	assert.Equal(t, DecisionNoPrediction, result.Decisions[0].Decision)
	assert.Contains(t, result.Decisions[0].Reasons, ReasonLowQualityEvidence)
	assert.Contains(t, result.Decisions[0].ReasonCodes, ReasonLowQualityEvidence)
}

func TestRun_IsDeterministicAcrossRepeatedCalls(t *testing.T) {
	pack := strongEvidencePack()
	req := Request{
		MatchID:        "m-001",
		ResolverStatus: resolver.StatusResolved,
		Markets:        []Market{Market1X2, MarketOU25, MarketBTTS},
		Evidence:       pack,
		Thresholds:     DefaultThresholds(),
		MinConfidence:  func(Market) float64 { return 0.5 },
	}
	r1, err := Run(req)
	require.NoError(t, err)
	r2, err := Run(req)
	require.NoError(t, err)
	assert.Equal(t, r1.OutputHash, r2.OutputHash)
	assert.Equal(t, r1.InputHash, r2.InputHash)
}

func TestGuardrailStore_FlagsDivergentOutputForSameInput(t *testing.T) {
	g := NewGuardrailStore()
	assert.False(t, g.CheckAndRecord("hash-a", "out-1"))
	assert.False(t, g.CheckAndRecord("hash-a", "out-1"))
	assert.True(t, g.CheckAndRecord("hash-a", "out-2"))
}

func TestScoreOU25_AboveThresholdFavorsOver(t *testing.T) {
	f := Features{Stats: evidence.StatsData{
		Home: evidence.TeamStats{GoalsScoredPerMatch: 2.2, GoalsConcededPerMatch: 1.8},
		Away: evidence.TeamStats{GoalsScoredPerMatch: 2.0, GoalsConcededPerMatch: 1.5},
	}}
	probs, sep, reasons := scoreOU25(f, DefaultThresholds())
	assert.Greater(t, probs["OVER"], probs["UNDER"])
	assert.Greater(t, sep, 0.0)
	assert.Contains(t, reasons, ReasonOverFavored)
}

func TestScoreBTTS_ClampsToValidRange(t *testing.T) {
	f := Features{Stats: evidence.StatsData{
		Home: evidence.TeamStats{GoalsScoredPerMatch: 10},
		Away: evidence.TeamStats{GoalsScoredPerMatch: 10},
	}}
	probs, _, _ := scoreBTTS(f, DefaultThresholds())
	assert.LessOrEqual(t, probs["YES"], 1.0)
	assert.GreaterOrEqual(t, probs["YES"], 0.0)
}
