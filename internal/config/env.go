// Package config centralizes every environment variable and YAML file this
// module reads, in the same split the teacher uses: env for runtime
// toggles (spec.md §6), YAML for slower-moving structural configuration
// (internal/config/providers.go, guards.go).
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/sawpanic/matchdecide/internal/activation"
)

// Env is every spec.md §6 environment variable this core consults, read
// once at process start.
type Env struct {
	LiveIOAllowed    bool
	LiveWritesAllowed bool

	ActivationEnabled               bool
	ActivationMode                  string
	ActivationTier                  string
	ActivationKillSwitch            bool
	ActivationConnectors            []string
	ActivationMarkets               []string
	ActivationMaxMatches            int
	ActivationMinConfidence         float64
	ActivationMinConfidenceBurnIn   float64
	ActivationRolloutPct            float64
	ActivationDailyMaxActivations   int

	ActivationAllowed      bool
	ActivationApprovalToken string
	MinOfflineEvalRuns     int

	StubLiveMode string

	LiveIOTimeoutSeconds  int
	LiveIOMaxTimeouts     int
	LiveIOMaxRateLimited  int
	LiveIOMaxP95Ms        int
}

// ActivationMaxMatchesHardCap is spec.md §6's "hard-capped at 10" ceiling on
// ACTIVATION_MAX_MATCHES, enforced regardless of what the env requests.
const ActivationMaxMatchesHardCap = 10

// LoadEnv reads every spec.md §6 variable from the process environment,
// applying the spec's stated defaults where a variable is unset.
func LoadEnv() Env {
	e := Env{
		LiveIOAllowed:     getBool("LIVE_IO_ALLOWED", false),
		LiveWritesAllowed: getBool("LIVE_WRITES_ALLOWED", false),

		ActivationEnabled:    getBool("ACTIVATION_ENABLED", false),
		ActivationMode:       os.Getenv("ACTIVATION_MODE"),
		ActivationTier:       os.Getenv("ACTIVATION_TIER"),
		ActivationKillSwitch: getBool("ACTIVATION_KILL_SWITCH", false),
		ActivationConnectors: getCSV("ACTIVATION_CONNECTORS"),
		ActivationMarkets:    getCSVDefault("ACTIVATION_MARKETS", []string{"1X2"}),
		ActivationMaxMatches: getInt("ACTIVATION_MAX_MATCHES", ActivationMaxMatchesHardCap),

		ActivationMinConfidence:       getFloat("ACTIVATION_MIN_CONFIDENCE", 0),
		ActivationMinConfidenceBurnIn: getFloat("ACTIVATION_MIN_CONFIDENCE_BURN_IN", 0.85),
		ActivationRolloutPct:          getFloat("ACTIVATION_ROLLOUT_PCT", 100),
		ActivationDailyMaxActivations: getInt("ACTIVATION_DAILY_MAX_ACTIVATIONS", 0),

		ActivationAllowed:       getBool("ACTIVATION_ALLOWED", false),
		ActivationApprovalToken: os.Getenv("ACTIVATION_APPROVAL_TOKEN"),
		MinOfflineEvalRuns:      getInt("MIN_OFFLINE_EVAL_RUNS", 0),

		StubLiveMode: os.Getenv("STUB_LIVE_MODE"),

		LiveIOTimeoutSeconds: getInt("LIVE_IO_TIMEOUT_SECONDS", 10),
		LiveIOMaxTimeouts:    getInt("LIVE_IO_MAX_TIMEOUTS", 3),
		LiveIOMaxRateLimited: getInt("LIVE_IO_MAX_RATE_LIMITED", 3),
		LiveIOMaxP95Ms:       getInt("LIVE_IO_MAX_P95_MS", 2000),
	}

	if e.ActivationMaxMatches > ActivationMaxMatchesHardCap {
		e.ActivationMaxMatches = ActivationMaxMatchesHardCap
	}
	return e
}

// ActivationConfig projects Env onto internal/activation.Config, the shape
// the gate actually consumes (spec.md §4.7). tiers supplies the
// ACTIVATION_TIER-selected caps/thresholds; an env value that was actually
// set (non-zero) always overrides the tier profile.
func (e Env) ActivationConfig(tiers *TiersConfig) activation.Config {
	minConfidence := e.ActivationMinConfidence
	dailyMax := e.ActivationDailyMaxActivations
	if tiers != nil {
		if profile, err := tiers.ActiveProfile(e.ActivationTier); err == nil {
			if minConfidence == 0 {
				minConfidence = profile.MinConfidence
			}
			if dailyMax == 0 {
				dailyMax = profile.DailyMaxActivations
			}
		}
	}

	return activation.Config{
		KillSwitch:        e.ActivationKillSwitch,
		ActivationEnabled: e.ActivationEnabled,
		Mode:              activation.Mode(e.ActivationMode),
		LiveWritesAllowed: e.LiveWritesAllowed,
		LiveIOAllowed:     e.LiveIOAllowed,
		Connectors:        e.ActivationConnectors,
		Markets:           e.ActivationMarkets,
		Tier:              activation.Tier{MinConfidence: minConfidence},
		BurnIn: func() activation.BurnInConfig {
			b := activation.DefaultBurnIn()
			b.MinConfidence = e.ActivationMinConfidenceBurnIn
			return b
		}(),
		RolloutPct:          e.ActivationRolloutPct,
		DailyMaxActivations: dailyMax,
	}
}

// ApprovalRequest projects Env onto internal/activation.ApprovalRequest,
// given the caller-supplied values the environment alone cannot provide.
func (e Env) ApprovalRequest(callerToken string, callerPolicyVersionPin, activePolicyVersion, offlineEvalRuns int, auditTrailEnabled, hasPriorRun bool) activation.ApprovalRequest {
	return activation.ApprovalRequest{
		ActivationAllowedEnv:   e.ActivationAllowed,
		ApprovalTokenEnv:       e.ActivationApprovalToken,
		CallerSuppliedToken:    callerToken,
		CallerPolicyVersionPin: callerPolicyVersionPin,
		ActivePolicyVersion:    activePolicyVersion,
		OfflineEvalRuns:        offlineEvalRuns,
		MinOfflineEvalRuns:     e.MinOfflineEvalRuns,
		AuditTrailEnabled:      auditTrailEnabled,
		HasPriorActivationRun:  hasPriorRun,
	}
}

func getBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getCSV(key string) []string {
	return getCSVDefault(key, nil)
}

func getCSVDefault(key string, def []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
