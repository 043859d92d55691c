package shadow

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/matchdecide/internal/activation"
	"github.com/sawpanic/matchdecide/internal/analyzer"
	"github.com/sawpanic/matchdecide/internal/connector"
	"github.com/sawpanic/matchdecide/internal/evaluation"
	"github.com/sawpanic/matchdecide/internal/policy"
	"github.com/sawpanic/matchdecide/internal/repository"
)

func fixtureFS() fstest.MapFS {
	return fstest.MapFS{
		"fixtures/a1.json": &fstest.MapFile{Data: []byte(`{
			"match_id": "a1", "home_team": "Home FC", "away_team": "Away FC",
			"competition": "league", "kickoff_utc": "2026-08-01T12:00:00Z",
			"odds_1x2": {"home": 1.8, "draw": 3.4, "away": 4.2}, "status": "scheduled"
		}`)},
	}
}

func recordedConnectors(t *testing.T) map[string]connector.Connector {
	t.Helper()
	return map[string]connector.Connector{
		"recorded": connector.NewRecorded("recorded", fixtureFS(), "fixtures"),
	}
}

type stubLive struct{ cat connector.Category }

func (s stubLive) Name() string     { return "live_feed" }
func (s stubLive) Category() connector.Category { return connector.CategoryLive }
func (s stubLive) FetchMatches(ctx context.Context) ([]connector.MatchIdentity, error) {
	return nil, nil
}
func (s stubLive) FetchMatchData(ctx context.Context, matchID string) (*connector.IngestedMatchData, error) {
	return nil, nil
}

func alwaysReady() activation.Readiness {
	return activation.ReadinessFunc(func() (bool, string) { return true, "" })
}

type noAlerts struct{}

func (noAlerts) HasUnresolvedCriticalAlert(lookback int) (bool, string) { return false, "" }

func permissiveActivationConfig() activation.Config {
	return activation.Config{
		ActivationEnabled: true,
		Mode:              activation.ModeExpanded,
		LiveWritesAllowed: true,
		LiveIOAllowed:     true,
		Markets:           []string{"1X2", "OU_2.5", "BTTS"},
		Tier:              activation.Tier{MinConfidence: 0},
	}
}

func basePipeline(t *testing.T, repo *repository.Repository) *Pipeline {
	t.Helper()
	return &Pipeline{
		Connectors:     recordedConnectors(t),
		Policy:         policy.Bootstrap(),
		Thresholds:     analyzer.DefaultThresholds(),
		Repo:           repo,
		ActivationCfg:  permissiveActivationConfig(),
		Readiness:      alwaysReady(),
		Alerts:         noAlerts{},
		ObjectiveCfg:   policy.DefaultObjectiveConfig(),
		LiveIOAllowed:  func() bool { return false },
		Clock:          func() time.Time { return time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC) },
	}
}

func TestPipeline_Run_UnknownConnectorErrors(t *testing.T) {
	p := basePipeline(t, nil)
	_, err := p.Run(context.Background(), Input{ConnectorName: "nope", MatchID: "a1"})
	require.Error(t, err)
}

func TestPipeline_Run_LiveConnectorDeniedWithoutLiveIOAllowed(t *testing.T) {
	p := basePipeline(t, nil)
	p.Connectors["live"] = stubLive{}
	_, err := p.Run(context.Background(), Input{ConnectorName: "live", MatchID: "a1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LIVE_IO_ALLOWED")
}

func TestPipeline_Run_LiveConnectorAllowedWhenFlagSet(t *testing.T) {
	p := basePipeline(t, nil)
	p.Connectors["live"] = stubLive{}
	p.LiveIOAllowed = func() bool { return true }
	report, err := p.Run(context.Background(), Input{ConnectorName: "live", MatchID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, analyzer.StatusNoPrediction, report.Analysis.Status)
}

func TestPipeline_Run_MissingMatchYieldsResolverNotFoundPath(t *testing.T) {
	p := basePipeline(t, nil)
	report, err := p.Run(context.Background(), Input{ConnectorName: "recorded", MatchID: "unknown"})
	require.NoError(t, err)
	assert.Nil(t, report.Ingestion.Data)
	assert.Empty(t, report.Ingestion.PayloadChecksum)
	assert.Equal(t, analyzer.StatusNoPrediction, report.Analysis.Status)
	for _, d := range report.Analysis.Decisions {
		assert.Contains(t, d.ReasonCodes, analyzer.ReasonResolverNotFound)
	}
}

func TestPipeline_Run_KnownMatchProducesChecksumAndNoPredictionOnThinEvidence(t *testing.T) {
	p := basePipeline(t, nil)
	report, err := p.Run(context.Background(), Input{ConnectorName: "recorded", MatchID: "a1"})
	require.NoError(t, err)
	require.NotNil(t, report.Ingestion.Data)
	assert.Equal(t, "Home FC", report.Ingestion.Data.HomeTeam)
	assert.NotEmpty(t, report.Ingestion.PayloadChecksum)
	// A single connector carries no stats/h2h history, so the analyzer's
	// required-domains-present gate withholds PLAY for every market.
	assert.Equal(t, analyzer.StatusNoPrediction, report.Analysis.Status)
	assert.NotEmpty(t, report.EvaluationReportChecksum)
}

func TestPipeline_Run_ChecksumIsDeterministicAcrossRuns(t *testing.T) {
	p := basePipeline(t, nil)
	in := Input{ConnectorName: "recorded", MatchID: "a1"}
	first, err := p.Run(context.Background(), in)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first.Ingestion.PayloadChecksum, second.Ingestion.PayloadChecksum)
	assert.Equal(t, first.EvaluationReportChecksum, second.EvaluationReportChecksum)
}

func TestPipeline_Run_ActivationNotRequestedSkipsGate(t *testing.T) {
	p := basePipeline(t, nil)
	report, err := p.Run(context.Background(), Input{
		ConnectorName:               "recorded",
		MatchID:                     "a1",
		AllowActivationForThisMatch: false,
	})
	require.NoError(t, err)
	assert.False(t, report.Activation.Activated)
	assert.Empty(t, report.Activation.Audits)
}

func TestPipeline_Run_NoPlayDecisionsMeansNoActivationAudits(t *testing.T) {
	p := basePipeline(t, nil)
	report, err := p.Run(context.Background(), Input{
		ConnectorName:               "recorded",
		MatchID:                     "a1",
		Activation:                  true,
		AllowActivationForThisMatch: true,
	})
	require.NoError(t, err)
	// Thin, connector-only evidence never yields a PLAY decision, so the
	// gate has nothing to evaluate.
	assert.False(t, report.Activation.Activated)
	assert.Empty(t, report.Activation.Audits)
	assert.Equal(t, "no PLAY decisions to activate", report.Activation.Reason)
}

func TestPipeline_Run_PersistenceSkippedWithoutActivation(t *testing.T) {
	mem := repository.NewInMemory()
	repo := mem.Repository()
	p := basePipeline(t, &repo)
	report, err := p.Run(context.Background(), Input{
		ConnectorName: "recorded",
		MatchID:       "a1",
		Activation:    false,
	})
	require.NoError(t, err)
	assert.Zero(t, report.PersistedAnalysisRunID)
}

func TestPipeline_Run_PersistenceSkippedUnderHardBlock(t *testing.T) {
	mem := repository.NewInMemory()
	repo := mem.Repository()
	p := basePipeline(t, &repo)
	report, err := p.Run(context.Background(), Input{
		ConnectorName:               "recorded",
		MatchID:                     "a1",
		Activation:                  true,
		AllowActivationForThisMatch: true,
		HardBlockPersistence:        true,
	})
	require.NoError(t, err)
	assert.Zero(t, report.PersistedAnalysisRunID)
}

func TestPipeline_Run_PersistenceSkippedUnderDryRun(t *testing.T) {
	mem := repository.NewInMemory()
	repo := mem.Repository()
	p := basePipeline(t, &repo)
	report, err := p.Run(context.Background(), Input{
		ConnectorName:               "recorded",
		MatchID:                     "a1",
		Activation:                  true,
		AllowActivationForThisMatch: true,
		DryRun:                      true,
	})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Zero(t, report.PersistedAnalysisRunID)
}

func TestPipeline_Run_AttachResultWithoutFinalScoreOmitsResolution(t *testing.T) {
	p := basePipeline(t, nil)
	report, err := p.Run(context.Background(), Input{ConnectorName: "recorded", MatchID: "a1"})
	require.NoError(t, err)
	assert.Nil(t, report.Resolution)
}

func TestPipeline_Run_AttachResultWithFinalScorePopulatesResolutionUnpersisted(t *testing.T) {
	p := basePipeline(t, nil)
	final := evaluation.FinalScore{Home: 2, Away: 1}
	report, err := p.Run(context.Background(), Input{
		ConnectorName: "recorded",
		MatchID:       "a1",
		FinalScore:    &final,
	})
	require.NoError(t, err)
	require.NotNil(t, report.Resolution)
	assert.False(t, report.Resolution.Persisted)
	assert.NotEmpty(t, report.Resolution.MarketOutcomes)
}

func TestPipeline_Run_ProposalNeverMutatesBasePolicy(t *testing.T) {
	p := basePipeline(t, nil)
	baseBefore := p.Policy
	report, err := p.Run(context.Background(), Input{ConnectorName: "recorded", MatchID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, baseBefore.Meta.Version, p.Policy.Meta.Version)
	assert.NotEmpty(t, report.Audit.CurrentPolicyChecksum)
	assert.NotEmpty(t, report.Audit.ProposedPolicyChecksum)
}

func TestPipeline_Run_OutcomeSamplesErrorPropagates(t *testing.T) {
	p := basePipeline(t, nil)
	wantErr := assert.AnError
	p.OutcomeSamples = func(ctx context.Context) ([]policy.OutcomeSample, error) {
		return nil, wantErr
	}
	_, err := p.Run(context.Background(), Input{ConnectorName: "recorded", MatchID: "a1"})
	require.Error(t, err)
}
