package shadow

import (
	"context"
	"fmt"
	"time"

	"github.com/sawpanic/matchdecide/internal/activation"
	"github.com/sawpanic/matchdecide/internal/analyzer"
	"github.com/sawpanic/matchdecide/internal/connector"
	"github.com/sawpanic/matchdecide/internal/envelope"
	"github.com/sawpanic/matchdecide/internal/evaluation"
	"github.com/sawpanic/matchdecide/internal/policy"
	"github.com/sawpanic/matchdecide/internal/repository"
	"github.com/sawpanic/matchdecide/internal/resolver"
)

// OutcomeSamplesFunc supplies the tuner's historical signal (spec.md §4.5
// step 9). A nil func runs the tuner over an empty sample set, which simply
// leaves every market's proposed min_confidence unchanged.
type OutcomeSamplesFunc func(ctx context.Context) ([]policy.OutcomeSample, error)

// Pipeline wires every component the single-match shadow run needs.
// Repo may be nil for a pipeline that never persists (dry-run-only callers).
type Pipeline struct {
	Connectors      map[string]connector.Connector
	Policy          policy.Policy
	Thresholds      analyzer.Thresholds
	Guardrail       *analyzer.GuardrailStore
	Repo            *repository.Repository
	ActivationCfg   activation.Config
	Readiness       Readiness
	Alerts          AlertScanner
	ObjectiveCfg    policy.ObjectiveConfig
	OutcomeSamples  OutcomeSamplesFunc
	LiveIOAllowed   func() bool
	Clock           func() time.Time
}

// Run executes the shadow pipeline for one match (spec.md §4.5 steps 1-10).
func (p *Pipeline) Run(ctx context.Context, in Input) (Report, error) {
	now := in.NowUTC
	if now.IsZero() {
		if p.Clock != nil {
			now = p.Clock()
		} else {
			now = time.Now().UTC()
		}
	}

	// Step 1: resolve connector.
	conn, ok := p.Connectors[in.ConnectorName]
	if !ok {
		return Report{}, fmt.Errorf("unknown connector %q", in.ConnectorName)
	}
	if conn.Category() == connector.CategoryLive {
		allowed := p.LiveIOAllowed != nil && p.LiveIOAllowed()
		if !allowed {
			return Report{}, fmt.Errorf("connector %q requires LIVE_IO_ALLOWED", in.ConnectorName)
		}
	}

	// Step 2: fetch IngestedMatchData and synthesize an EvidencePack.
	data, err := conn.FetchMatchData(ctx, in.MatchID)
	if err != nil {
		return Report{}, fmt.Errorf("fetch match data: %w", err)
	}

	ingestion := IngestionSection{
		ConnectorName: conn.Name(),
		ConnectorCat:  conn.Category(),
		MatchID:       in.MatchID,
		Data:          data,
	}

	var analysisReq analyzer.Request
	if data == nil {
		analysisReq = analyzer.Request{
			MatchID:        in.MatchID,
			ResolverStatus: resolver.StatusNotFound,
			Markets:        SupportedMarkets(),
			PolicyVersion:  p.Policy.Meta.Version,
			MinConfidence:  p.minConfidenceFor(),
			Thresholds:     p.Thresholds,
			Guardrail:      p.Guardrail,
		}
	} else {
		// Step 3: payload checksum over a volatility-stripped serialization.
		// IngestedMatchData carries no captured_at_utc/fetched_at_utc field,
		// so checksumming it directly already satisfies that requirement.
		checksum, err := envelope.ComputePayloadChecksum(*data)
		if err != nil {
			return Report{}, fmt.Errorf("payload checksum: %w", err)
		}
		ingestion.PayloadChecksum = checksum

		evidencePack := SynthesizeEvidencePack(data, conn.Name())
		analysisReq = analyzer.Request{
			MatchID:        in.MatchID,
			ResolverStatus: resolver.StatusResolved,
			Markets:        SupportedMarkets(),
			Evidence:       evidencePack,
			PolicyVersion:  p.Policy.Meta.Version,
			MinConfidence:  p.minConfidenceFor(),
			Thresholds:     p.Thresholds,
			Guardrail:      p.Guardrail,
		}
	}

	// Step 4: run Analyzer v2.
	result, err := analyzer.Run(analysisReq)
	if err != nil {
		return Report{}, fmt.Errorf("analyzer run: %w", err)
	}

	// Step 5: invoke the activation gate per decision.
	activationResult := p.evaluateActivation(in, conn.Name(), result)

	// Step 6: persist AnalysisRun + Prediction rows, conditionally.
	var persistedRunID int64
	shouldPersistRun := in.Activation && !in.HardBlockPersistence && !in.DryRun && activationResult.Activated
	if shouldPersistRun && p.Repo != nil && p.Repo.AnalysisRuns != nil {
		persistedRunID, err = p.persistAnalysisRun(ctx, conn.Name(), in.MatchID, result, now)
		if err != nil {
			return Report{}, fmt.Errorf("persist analysis run: %w", err)
		}
	}

	// Step 7: attach result, conditionally persisted under the same gate.
	var resolution *ResolutionSection
	if in.FinalScore != nil {
		resolution = p.attachResult(ctx, result, *in.FinalScore, persistedRunID, shouldPersistRun)
	}

	// Step 8: evaluation snapshot + checksum.
	snapshot := buildEvaluationSnapshot(result, resolution)
	snapshotChecksum, err := envelope.Checksum(snapshot)
	if err != nil {
		return Report{}, fmt.Errorf("snapshot checksum: %w", err)
	}

	// Step 9: run the tuner in shadow.
	var samples []policy.OutcomeSample
	if p.OutcomeSamples != nil {
		samples, err = p.OutcomeSamples(ctx)
		if err != nil {
			return Report{}, fmt.Errorf("load outcome samples: %w", err)
		}
	}
	proposal := policy.Propose(p.Policy, samples, p.ObjectiveCfg)

	currentChecksum, err := envelope.Checksum(p.Policy)
	if err != nil {
		return Report{}, fmt.Errorf("current policy checksum: %w", err)
	}
	proposedChecksum, err := envelope.Checksum(proposal.ProposedPolicy)
	if err != nil {
		return Report{}, fmt.Errorf("proposed policy checksum: %w", err)
	}

	// Step 10: audit report. Never applied automatically.
	audit := AuditSection{
		SnapshotsChecksum:      snapshotChecksum,
		CurrentPolicyChecksum:  currentChecksum,
		ProposedPolicyChecksum: proposedChecksum,
		PerMarketChangeCount:   countChangedMarkets(proposal.Diffs),
	}

	return Report{
		Ingestion:                ingestion,
		Analysis:                 result,
		Resolution:               resolution,
		EvaluationReportChecksum: snapshotChecksum,
		Proposal:                 proposal,
		Audit:                    audit,
		Activation:               activationResult,
		DryRun:                   in.DryRun,
		PersistedAnalysisRunID:   persistedRunID,
	}, nil
}

// evaluateActivation runs the activation gate for every decision the
// analyzer produced (spec.md §4.5 step 5).
func (p *Pipeline) evaluateActivation(in Input, connectorName string, result analyzer.Result) ActivationResult {
	if !in.AllowActivationForThisMatch {
		return ActivationResult{Activated: false, Reason: "activation not requested for this match"}
	}

	out := ActivationResult{Audits: make([]ActivationAudit, 0, len(result.Decisions))}
	anyAllowed := false

	for _, d := range result.Decisions {
		if d.Decision != analyzer.DecisionPlay {
			continue
		}
		conf := 0.0
		if d.Confidence != nil {
			conf = *d.Confidence
		}
		decision := activation.Decision{
			ConnectorName: connectorName,
			MatchID:       in.MatchID,
			Market:        string(d.Market),
			Confidence:    conf,
			PolicyMinConf: p.Policy.MinConfidenceFor(string(d.Market)),
		}
		verdict := activation.Evaluate(p.ActivationCfg, decision, p.Readiness, p.Alerts)
		out.Audits = append(out.Audits, ActivationAudit{
			Market:  string(d.Market),
			Allowed: verdict.Allowed,
			Reason:  verdict.Reason,
		})
		if verdict.Allowed {
			anyAllowed = true
		}
	}

	out.Activated = anyAllowed
	if !anyAllowed && len(out.Audits) > 0 {
		out.Reason = out.Audits[len(out.Audits)-1].Reason
	} else if len(out.Audits) == 0 {
		out.Reason = "no PLAY decisions to activate"
	}
	return out
}

// persistAnalysisRun writes AnalysisRun + Prediction rows (spec.md §4.5 step 6).
func (p *Pipeline) persistAnalysisRun(ctx context.Context, connectorName, matchID string, result analyzer.Result, now time.Time) (int64, error) {
	run := repository.AnalysisRunRecord{
		MatchID:       matchID,
		ConnectorName: connectorName,
		Status:        string(result.Status),
		Version:       result.Version,
		PolicyVersion: result.PolicyVersion,
		InputHash:     result.InputHash,
		OutputHash:    result.OutputHash,
		CreatedAtUTC:  now,
	}

	predictions := make([]repository.PredictionRecord, 0, len(result.Decisions))
	for _, d := range result.Decisions {
		var selection *string
		if d.Selection != "" {
			s := d.Selection
			selection = &s
		}
		predictions = append(predictions, repository.PredictionRecord{
			Market:       string(d.Market),
			Decision:     string(d.Decision),
			Selection:    selection,
			Confidence:   d.Confidence,
			Reasons:      d.Reasons,
			ReasonCodes:  d.ReasonCodes,
			CreatedAtUTC: now,
		})
	}

	return p.Repo.AnalysisRuns.Create(ctx, run, predictions)
}

// attachResult implements spec.md §4.8's attach-result steps, persisting the
// SnapshotResolution under the same conditions as the AnalysisRun itself.
func (p *Pipeline) attachResult(ctx context.Context, result analyzer.Result, final evaluation.FinalScore, analysisRunID int64, shouldPersist bool) *ResolutionSection {
	picks := make([]evaluation.Pick, 0, len(result.Decisions))
	reasonsByMarket := map[string][]string{}
	for _, d := range result.Decisions {
		picks = append(picks, evaluation.Pick{
			Market:    string(d.Market),
			Decision:  string(d.Decision),
			Selection: d.Selection,
		})
		reasonsByMarket[string(d.Market)] = d.ReasonCodes
	}

	outcomes := evaluation.MarketOutcomes(picks, final)
	reasonCodes := evaluation.ReasonCodesByMarket(reasonsByMarket)

	section := &ResolutionSection{
		MarketOutcomes:      outcomes,
		ReasonCodesByMarket: reasonCodes,
	}

	if shouldPersist && analysisRunID != 0 && p.Repo != nil && p.Repo.Outcomes != nil {
		marketOutcomeStrings := make(map[string]string, len(outcomes))
		for market, outcome := range outcomes {
			marketOutcomeStrings[market] = string(outcome)
		}
		_, err := p.Repo.Outcomes.UpsertResolution(ctx, repository.SnapshotResolutionRecord{
			AnalysisRunID:       analysisRunID,
			MarketOutcomes:      marketOutcomeStrings,
			ReasonCodesByMarket: reasonCodes,
		})
		if err == nil {
			section.Persisted = true
		}
	}

	return section
}

// buildEvaluationSnapshot reduces one run's decisions (and, if present, its
// resolution) into the per-market/confidence-band/reason-effectiveness
// aggregation spec.md §4.5 step 8 requires.
func buildEvaluationSnapshot(result analyzer.Result, resolution *ResolutionSection) evaluation.Snapshot {
	samples := make([]evaluation.DecisionSample, 0, len(result.Decisions))
	for _, d := range result.Decisions {
		outcome := evaluation.OutcomeNeutral
		if resolution != nil {
			if o, ok := resolution.MarketOutcomes[string(d.Market)]; ok {
				outcome = o
			}
		}
		samples = append(samples, evaluation.DecisionSample{
			Market:      string(d.Market),
			Confidence:  d.Confidence,
			Outcome:     outcome,
			ReasonCodes: d.ReasonCodes,
		})
	}
	return evaluation.BuildSnapshot(samples)
}

func countChangedMarkets(diffs []policy.MarketDiff) int {
	count := 0
	for _, d := range diffs {
		if d.ProposedMinConf != d.CurrentMinConf {
			count++
		}
	}
	return count
}

// minConfidenceFor adapts policy.Policy.MinConfidenceFor (keyed by string)
// to analyzer.MinConfidenceFor (keyed by analyzer.Market).
func (p *Pipeline) minConfidenceFor() analyzer.MinConfidenceFor {
	return func(market analyzer.Market) float64 {
		return p.Policy.MinConfidenceFor(string(market))
	}
}

// SupportedMarkets returns every market the analyzer supports, sorted for
// deterministic iteration order.
func SupportedMarkets() []analyzer.Market {
	markets := make([]analyzer.Market, 0, len(analyzer.SupportedMarkets))
	for m := range analyzer.SupportedMarkets {
		markets = append(markets, m)
	}
	sortMarkets(markets)
	return markets
}

func sortMarkets(markets []analyzer.Market) {
	for i := 1; i < len(markets); i++ {
		for j := i; j > 0 && markets[j] < markets[j-1]; j-- {
			markets[j], markets[j-1] = markets[j-1], markets[j]
		}
	}
}
