package evaluation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDerive1X2(t *testing.T) {
	assert.Equal(t, Result1X2Home, Derive1X2(FinalScore{Home: 2, Away: 1}))
	assert.Equal(t, Result1X2Away, Derive1X2(FinalScore{Home: 0, Away: 1}))
	assert.Equal(t, Result1X2Draw, Derive1X2(FinalScore{Home: 1, Away: 1}))
}

func TestDeriveOU25(t *testing.T) {
	assert.Equal(t, ResultOver, DeriveOU25(FinalScore{Home: 2, Away: 1}))
	assert.Equal(t, ResultUnder, DeriveOU25(FinalScore{Home: 1, Away: 1}))
	assert.Equal(t, ResultOver, DeriveOU25(FinalScore{Home: 2, Away: 2}))
}

func TestDeriveGGNG(t *testing.T) {
	assert.Equal(t, ResultGG, DeriveGGNG(FinalScore{Home: 1, Away: 1}))
	assert.Equal(t, ResultNG, DeriveGGNG(FinalScore{Home: 0, Away: 2}))
}

func TestResolve_PlayMatchingSelectionIsSuccess(t *testing.T) {
	outcome := Resolve(Pick{Market: "1X2", Decision: "PLAY", Selection: "HOME"}, FinalScore{Home: 2, Away: 0})
	assert.Equal(t, OutcomeSuccess, outcome)
}

func TestResolve_PlayMismatchedSelectionIsFailure(t *testing.T) {
	outcome := Resolve(Pick{Market: "1X2", Decision: "PLAY", Selection: "AWAY"}, FinalScore{Home: 2, Away: 0})
	assert.Equal(t, OutcomeFailure, outcome)
}

func TestResolve_NoBetIsNeutral(t *testing.T) {
	outcome := Resolve(Pick{Market: "1X2", Decision: "NO_BET"}, FinalScore{Home: 1, Away: 0})
	assert.Equal(t, OutcomeNeutral, outcome)
}

func TestResolve_NoPredictionIsNeutral(t *testing.T) {
	outcome := Resolve(Pick{Market: "OU_2.5", Decision: "NO_PREDICTION"}, FinalScore{Home: 1, Away: 0})
	assert.Equal(t, OutcomeNeutral, outcome)
}

func TestResolve_UnknownMarketIsNeutralNotError(t *testing.T) {
	outcome := Resolve(Pick{Market: "UNKNOWN", Decision: "PLAY", Selection: "HOME"}, FinalScore{Home: 1, Away: 0})
	assert.Equal(t, OutcomeNeutral, outcome)
}

func TestResolve_BTTSYesMatchesGG(t *testing.T) {
	outcome := Resolve(Pick{Market: "BTTS", Decision: "PLAY", Selection: "YES"}, FinalScore{Home: 1, Away: 1})
	assert.Equal(t, OutcomeSuccess, outcome)
}

func TestResolve_OU25UnderMatches(t *testing.T) {
	outcome := Resolve(Pick{Market: "OU_2.5", Decision: "PLAY", Selection: "UNDER"}, FinalScore{Home: 1, Away: 0})
	assert.Equal(t, OutcomeSuccess, outcome)
}

func TestReasonCodesByMarket_NilListsBecomeEmptySlices(t *testing.T) {
	out := ReasonCodesByMarket(map[string][]string{"1X2": nil, "OU_2.5": {"XG_PROXY"}})
	assert.Equal(t, []string{}, out["1X2"])
	assert.Equal(t, []string{"XG_PROXY"}, out["OU_2.5"])
}

func TestMarketOutcomes_ResolvesEveryPick(t *testing.T) {
	picks := []Pick{
		{Market: "1X2", Decision: "PLAY", Selection: "HOME"},
		{Market: "BTTS", Decision: "NO_BET"},
	}
	out := MarketOutcomes(picks, FinalScore{Home: 1, Away: 0})
	assert.Equal(t, OutcomeSuccess, out["1X2"])
	assert.Equal(t, OutcomeNeutral, out["BTTS"])
}

func TestAggregate_HitRatePlusMissRateEqualsOne(t *testing.T) {
	outcomes := []MarketOutcome{OutcomeSuccess, OutcomeSuccess, OutcomeFailure, OutcomeNeutral}
	kpi := Aggregate(PeriodDay, outcomes)
	assert.Equal(t, 3, kpi.TotalPredictions)
	assert.InDelta(t, 1.0, kpi.HitRate+kpi.MissRate, 1e-9)
	assert.InDelta(t, 2.0/3.0, kpi.HitRate, 1e-9)
}

func TestAggregate_ZeroPredictionsYieldsZeroRates(t *testing.T) {
	kpi := Aggregate(PeriodDay, []MarketOutcome{OutcomeNeutral})
	assert.Equal(t, 0, kpi.TotalPredictions)
	assert.Zero(t, kpi.HitRate)
	assert.Zero(t, kpi.MissRate)
}

func TestWindow_DayWeekMonthBounds(t *testing.T) {
	asOf := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	from, to := Window(PeriodDay, asOf)
	assert.Equal(t, asOf.AddDate(0, 0, -1), from)
	assert.Equal(t, asOf, to)

	from, _ = Window(PeriodWeek, asOf)
	assert.Equal(t, asOf.AddDate(0, 0, -7), from)

	from, _ = Window(PeriodMonth, asOf)
	assert.Equal(t, asOf.AddDate(0, -1, 0), from)
}
