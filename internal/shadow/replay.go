package shadow

import (
	"context"
	"fmt"

	"github.com/sawpanic/matchdecide/internal/analyzer"
	"github.com/sawpanic/matchdecide/internal/connector"
	"github.com/sawpanic/matchdecide/internal/policy"
	"github.com/sawpanic/matchdecide/internal/resolver"
)

// ReplayInput is one DryRunReplay invocation's parameters.
type ReplayInput struct {
	ConnectorName string
	MatchID       string
	Policy        policy.Policy
	Thresholds    analyzer.Thresholds
}

// ReplayResult is a DryRunReplay outcome: the analyzer result the candidate
// policy would have produced, plus a pointer back at the policy that
// produced it so a caller can diff PolicyVersion against the run it is
// reviewing.
type ReplayResult struct {
	MatchID       string          `json:"match_id"`
	ConnectorName string          `json:"connector_name"`
	PolicyVersion int             `json:"policy_version"`
	Analysis      analyzer.Result `json:"analysis"`
}

// DryRunReplay re-fetches one match's evidence and re-runs Analyzer v2 under
// a candidate policy version, without ever touching persistence (no Repo
// dependency exists in this function at all, so the "never applied
// automatically" requirement holds by construction rather than by a
// runtime flag check). This is the tool a policy reviewer uses to see what a
// proposed policy.Proposal would have decided on past matches before any
// activation ever considers it.
func DryRunReplay(ctx context.Context, conn connector.Connector, in ReplayInput) (ReplayResult, error) {
	data, err := conn.FetchMatchData(ctx, in.MatchID)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("fetch match data: %w", err)
	}

	req := analyzer.Request{
		MatchID:       in.MatchID,
		Markets:       SupportedMarkets(),
		PolicyVersion: in.Policy.Meta.Version,
		MinConfidence: func(market analyzer.Market) float64 { return in.Policy.MinConfidenceFor(string(market)) },
		Thresholds:    in.Thresholds,
	}
	if data == nil {
		req.ResolverStatus = resolver.StatusNotFound
	} else {
		req.ResolverStatus = resolver.StatusResolved
		req.Evidence = SynthesizeEvidencePack(data, conn.Name())
	}

	result, err := analyzer.Run(req)
	if err != nil {
		return ReplayResult{}, fmt.Errorf("analyzer run: %w", err)
	}

	return ReplayResult{
		MatchID:       in.MatchID,
		ConnectorName: conn.Name(),
		PolicyVersion: in.Policy.Meta.Version,
		Analysis:      result,
	}, nil
}
