package activation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() Config {
	return Config{
		KillSwitch:          false,
		ActivationEnabled:   true,
		Mode:                ModeExpanded,
		LiveWritesAllowed:   true,
		LiveIOAllowed:       true,
		Connectors:          []string{"real_provider"},
		Markets:             []string{"1X2"},
		Tier:                Tier{MinConfidence: 0.6},
		BurnIn:              DefaultBurnIn(),
		RolloutPct:          100,
		DailyMaxActivations: 10,
	}
}

func baseDecision() Decision {
	return Decision{
		ConnectorName: "real_provider",
		MatchID:       "m1",
		Market:        "1X2",
		Confidence:    0.9,
		PolicyMinConf: 0.5,
	}
}

type stubReadiness struct {
	ready  bool
	reason string
}

func (s stubReadiness) Ready() (bool, string) { return s.ready, s.reason }

type stubAlerts struct {
	has    bool
	reason string
}

func (s stubAlerts) HasUnresolvedCriticalAlert(int) (bool, string) { return s.has, s.reason }

func TestEvaluate_KillSwitchShortCircuitsFirst(t *testing.T) {
	cfg := baseConfig()
	cfg.KillSwitch = true
	v := Evaluate(cfg, baseDecision(), stubReadiness{ready: true}, stubAlerts{})
	assert.False(t, v.Allowed)
	assert.Equal(t, ReasonKillSwitch, v.Reason)
}

func TestEvaluate_DeniesWhenNotEnabled(t *testing.T) {
	cfg := baseConfig()
	cfg.ActivationEnabled = false
	v := Evaluate(cfg, baseDecision(), stubReadiness{ready: true}, stubAlerts{})
	assert.Equal(t, ReasonNotEnabled, v.Reason)
}

func TestEvaluate_DeniesInvalidMode(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = Mode("bogus")
	v := Evaluate(cfg, baseDecision(), stubReadiness{ready: true}, stubAlerts{})
	assert.Equal(t, ReasonInvalidMode, v.Reason)
}

func TestEvaluate_DeniesWhenLiveWritesNotAllowed(t *testing.T) {
	cfg := baseConfig()
	cfg.LiveWritesAllowed = false
	v := Evaluate(cfg, baseDecision(), stubReadiness{ready: true}, stubAlerts{})
	assert.Equal(t, ReasonLiveWritesDenied, v.Reason)
}

func TestEvaluate_BurnInModeRequiresLiveIO(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = ModeBurnIn
	cfg.LiveIOAllowed = false
	v := Evaluate(cfg, baseDecision(), stubReadiness{ready: true}, stubAlerts{})
	assert.Equal(t, ReasonLiveIODenied, v.Reason)
}

func TestEvaluate_BurnInModeRejectsWrongConnector(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = ModeBurnIn
	d := baseDecision()
	d.ConnectorName = "recorded"
	v := Evaluate(cfg, d, stubReadiness{ready: true}, stubAlerts{})
	assert.Equal(t, ReasonBurnInConnector, v.Reason)
}

func TestEvaluate_BurnInModeRejectsWrongMarket(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = ModeBurnIn
	d := baseDecision()
	d.Market = "OU_2.5"
	v := Evaluate(cfg, d, stubReadiness{ready: true}, stubAlerts{})
	assert.Equal(t, ReasonBurnInMarket, v.Reason)
}

func TestEvaluate_BurnInModeRequiresHigherConfidence(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = ModeBurnIn
	d := baseDecision()
	d.Confidence = 0.7
	v := Evaluate(cfg, d, stubReadiness{ready: true}, stubAlerts{})
	assert.Equal(t, ReasonBurnInConfidence, v.Reason)
}

func TestEvaluate_BurnInModeRejectsUnresolvedAlert(t *testing.T) {
	cfg := baseConfig()
	cfg.Mode = ModeBurnIn
	v := Evaluate(cfg, baseDecision(), stubReadiness{ready: true}, stubAlerts{has: true})
	assert.Equal(t, ReasonBurnInAlertPresent, v.Reason)
}

func TestEvaluate_DeniesWhenNotReady(t *testing.T) {
	cfg := baseConfig()
	v := Evaluate(cfg, baseDecision(), stubReadiness{ready: false, reason: "db down"}, stubAlerts{})
	assert.Equal(t, "db down", v.Reason)
}

func TestEvaluate_DeniesConnectorNotWhitelisted(t *testing.T) {
	cfg := baseConfig()
	d := baseDecision()
	d.ConnectorName = "other"
	v := Evaluate(cfg, d, stubReadiness{ready: true}, stubAlerts{})
	assert.Equal(t, ReasonConnectorNotAllowed, v.Reason)
}

func TestEvaluate_DeniesMarketNotWhitelisted(t *testing.T) {
	cfg := baseConfig()
	d := baseDecision()
	d.Market = "BTTS"
	v := Evaluate(cfg, d, stubReadiness{ready: true}, stubAlerts{})
	assert.Equal(t, ReasonMarketNotAllowed, v.Reason)
}

func TestEvaluate_DeniesBelowConfidence(t *testing.T) {
	cfg := baseConfig()
	d := baseDecision()
	d.Confidence = 0.3
	v := Evaluate(cfg, d, stubReadiness{ready: true}, stubAlerts{})
	assert.Equal(t, ReasonBelowConfidence, v.Reason)
}

func TestEvaluate_DeniesUnresolvedAlertAsLastStep(t *testing.T) {
	cfg := baseConfig()
	v := Evaluate(cfg, baseDecision(), stubReadiness{ready: true}, stubAlerts{has: true, reason: "recent false-positive spike"})
	assert.Equal(t, "recent false-positive spike", v.Reason)
}

func TestEvaluate_AllowsWhenEveryStepPasses(t *testing.T) {
	cfg := baseConfig()
	v := Evaluate(cfg, baseDecision(), stubReadiness{ready: true}, stubAlerts{})
	assert.True(t, v.Allowed)
	assert.Empty(t, v.Reason)
}

func TestEvaluate_NilReadinessAndAlertsAreSkipped(t *testing.T) {
	cfg := baseConfig()
	v := Evaluate(cfg, baseDecision(), nil, nil)
	assert.True(t, v.Allowed)
}

func TestEligibleMatches_SortsAndTruncatesByPercentage(t *testing.T) {
	ids := []string{"c", "a", "b", "d"}
	got := EligibleMatches(ids, 50)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestEligibleMatches_ZeroPercentYieldsNone(t *testing.T) {
	got := EligibleMatches([]string{"a", "b"}, 0)
	assert.Empty(t, got)
}

func TestEligibleMatches_HundredPercentYieldsAll(t *testing.T) {
	got := EligibleMatches([]string{"b", "a"}, 100)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestCheckDailyCap_ComputesRemainingFloorAtZero(t *testing.T) {
	s := CheckDailyCap(5, 7)
	assert.Equal(t, 0, s.Remaining)
	assert.True(t, s.Exhausted)
}

func TestCheckDailyCap_ReportsRemainingWhenUnderCap(t *testing.T) {
	s := CheckDailyCap(5, 2)
	assert.Equal(t, 3, s.Remaining)
	assert.False(t, s.Exhausted)
}

func TestBatchDenialReason_MentionsDailyAndCap(t *testing.T) {
	msg := BatchDenialReason(CheckDailyCap(5, 5))
	assert.Contains(t, msg, "daily")
	assert.Contains(t, msg, "cap")
}

func TestValidBurnInBatchSize_EnforcesOneToThreeInclusive(t *testing.T) {
	cfg := DefaultBurnIn()
	assert.False(t, ValidBurnInBatchSize(0, cfg))
	assert.True(t, ValidBurnInBatchSize(1, cfg))
	assert.True(t, ValidBurnInBatchSize(3, cfg))
	assert.False(t, ValidBurnInBatchSize(4, cfg))
}

func TestValidBurnInBatchSize_DefaultsWhenUnset(t *testing.T) {
	assert.True(t, ValidBurnInBatchSize(3, BurnInConfig{}))
	assert.False(t, ValidBurnInBatchSize(4, BurnInConfig{}))
}

func baseApprovalRequest() ApprovalRequest {
	return ApprovalRequest{
		ActivationAllowedEnv:   true,
		ApprovalTokenEnv:       "secret-token",
		CallerSuppliedToken:    "secret-token",
		CallerPolicyVersionPin: 3,
		ActivePolicyVersion:    3,
		OfflineEvalRuns:        50,
		MinOfflineEvalRuns:     20,
		AuditTrailEnabled:      true,
		HasPriorActivationRun:  false,
	}
}

func TestCheckApproval_PassesWhenEveryConditionHolds(t *testing.T) {
	err := CheckApproval(baseApprovalRequest(), nil)
	require.NoError(t, err)
}

func TestCheckApproval_DeniesWhenActivationAllowedEnvFalse(t *testing.T) {
	req := baseApprovalRequest()
	req.ActivationAllowedEnv = false
	err := CheckApproval(req, nil)
	require.Error(t, err)
	var approvalErr ApprovalError
	require.ErrorAs(t, err, &approvalErr)
	assert.Contains(t, approvalErr.Reasons, "ACTIVATION_ALLOWED is not set")
}

func TestCheckApproval_DeniesOnTokenMismatch(t *testing.T) {
	req := baseApprovalRequest()
	req.CallerSuppliedToken = "wrong-token"
	err := CheckApproval(req, nil)
	require.Error(t, err)
	var approvalErr ApprovalError
	require.ErrorAs(t, err, &approvalErr)
	assert.Contains(t, approvalErr.Reasons, "ACTIVATION_APPROVAL_TOKEN mismatch")
}

func TestCheckApproval_DeniesOnPolicyVersionPinMismatch(t *testing.T) {
	req := baseApprovalRequest()
	req.CallerPolicyVersionPin = 2
	err := CheckApproval(req, nil)
	require.Error(t, err)
	var approvalErr ApprovalError
	require.ErrorAs(t, err, &approvalErr)
	assert.Contains(t, approvalErr.Reasons, "policy_version_pin does not match active policy version")
}

func TestCheckApproval_DeniesOnInsufficientOfflineEvalRuns(t *testing.T) {
	req := baseApprovalRequest()
	req.OfflineEvalRuns = 5
	err := CheckApproval(req, nil)
	require.Error(t, err)
	var approvalErr ApprovalError
	require.ErrorAs(t, err, &approvalErr)
	assert.Contains(t, approvalErr.Reasons, "insufficient offline_eval_runs")
}

func TestCheckApproval_PassesOnPriorRunWithoutAuditTrail(t *testing.T) {
	req := baseApprovalRequest()
	req.AuditTrailEnabled = false
	req.HasPriorActivationRun = true
	err := CheckApproval(req, nil)
	require.NoError(t, err)
}

func TestCheckApproval_DeniesWithNoAuditTrailAndNoPriorRun(t *testing.T) {
	req := baseApprovalRequest()
	req.AuditTrailEnabled = false
	req.HasPriorActivationRun = false
	err := CheckApproval(req, nil)
	require.Error(t, err)
	var approvalErr ApprovalError
	require.ErrorAs(t, err, &approvalErr)
	assert.Contains(t, approvalErr.Reasons, "no audit trail and no prior activation run")
}

func TestCheckApproval_AccumulatesAllFailingReasons(t *testing.T) {
	req := ApprovalRequest{}
	err := CheckApproval(req, nil)
	require.Error(t, err)
	var approvalErr ApprovalError
	require.ErrorAs(t, err, &approvalErr)
	assert.Len(t, approvalErr.Reasons, 3)
}

func TestCheckApproval_EmitsGuardrailEventOnDenial(t *testing.T) {
	var captured []string
	req := ApprovalRequest{}
	err := CheckApproval(req, func(reasons []string) { captured = reasons })
	require.Error(t, err)
	assert.NotEmpty(t, captured)
}

func TestCheckApproval_DoesNotEmitGuardrailEventOnSuccess(t *testing.T) {
	called := false
	err := CheckApproval(baseApprovalRequest(), func(reasons []string) { called = true })
	require.NoError(t, err)
	assert.False(t, called)
}
