package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/matchdecide/internal/analyzer"
	"github.com/sawpanic/matchdecide/internal/batch"
	"github.com/sawpanic/matchdecide/internal/policy"
	"github.com/sawpanic/matchdecide/internal/shadow"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch and live-shadow comparison runs over many matches (spec.md §4.6)",
}

var (
	batchRunConnector     string
	batchRunMatchIDs      string
	batchRunConcurrency   int
	batchRunActivation    bool
	batchRunAllowActivate bool
	compareLiveConn       string
	compareRecordedConn   string
	compareMatchIDs       string
	analyzeLiveConn       string
	analyzeRecordedConn   string
	analyzeMatchIDs       string
)

var batchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the shadow pipeline over every match a connector supplies (or a given list)",
	RunE:  runBatchRun,
}

var batchCompareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Diff raw connector payloads between a live and a recorded connector",
	RunE:  runBatchCompare,
}

var batchAnalyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Diff full analyzer decisions between a live and a recorded connector",
	RunE:  runBatchAnalyze,
}

func init() {
	batchCmd.AddCommand(batchRunCmd)
	batchCmd.AddCommand(batchCompareCmd)
	batchCmd.AddCommand(batchAnalyzeCmd)

	batchRunCmd.Flags().StringVar(&batchRunConnector, "connector", "recorded", "connector to run against")
	batchRunCmd.Flags().StringVar(&batchRunMatchIDs, "match-ids", "", "comma-separated match ids; empty enumerates every match the connector supplies")
	batchRunCmd.Flags().IntVar(&batchRunConcurrency, "concurrency", 0, "worker count; 0 uses GOMAXPROCS")
	batchRunCmd.Flags().BoolVar(&batchRunActivation, "activation", false, "enable the activation gate for this batch")
	batchRunCmd.Flags().BoolVar(&batchRunAllowActivate, "allow-activation", false, "request activation consideration for every match in this batch, subject to rollout and daily cap")

	compareCmdFlags := func(cmd *cobra.Command, live, recorded, ids *string) {
		cmd.Flags().StringVar(live, "live", "live", "live connector name")
		cmd.Flags().StringVar(recorded, "recorded", "recorded", "recorded connector name")
		cmd.Flags().StringVar(ids, "match-ids", "", "comma-separated match ids (required)")
		_ = cmd.MarkFlagRequired("match-ids")
	}
	compareCmdFlags(batchCompareCmd, &compareLiveConn, &compareRecordedConn, &compareMatchIDs)
	compareCmdFlags(batchAnalyzeCmd, &analyzeLiveConn, &analyzeRecordedConn, &analyzeMatchIDs)
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runBatchRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fc, err := loadFileConfig()
	if err != nil {
		return err
	}
	env := loadEnv()
	tiers, err := loadTiersConfig()
	if err != nil {
		return err
	}
	switches := buildSwitchManager(fc)
	connectors := buildConnectors(fc, env, switches)
	repo, closeRepo, err := buildRepository(fc)
	if err != nil {
		return err
	}
	defer closeRepo()

	pipeline := &shadow.Pipeline{
		Connectors:    connectors,
		Policy:        policy.Bootstrap(),
		Thresholds:    analyzer.DefaultThresholds(),
		Guardrail:     analyzer.NewGuardrailStore(),
		Repo:          repo,
		ActivationCfg: env.ActivationConfig(tiers),
		Readiness:     repositoryReadiness{repo: repo},
		Alerts:        switchAlertScanner{switches: switches},
		ObjectiveCfg:  policy.DefaultObjectiveConfig(),
		LiveIOAllowed: func() bool { return env.LiveIOAllowed && switches.IsLiveIOAllowed() },
	}

	runner := &batch.Runner{Pipeline: pipeline}
	report, err := runner.Run(ctx, batch.Input{
		ConnectorName: batchRunConnector,
		MatchIDs:      splitCSV(batchRunMatchIDs),
		Concurrency:   batchRunConcurrency,
		Shared: shadow.Input{
			Activation:                  batchRunActivation,
			AllowActivationForThisMatch: batchRunAllowActivate,
		},
	})
	if err != nil {
		return fmt.Errorf("batch run: %w", err)
	}

	log.Info().Int("matches", len(report.MatchIDs)).Int("play", report.Counts.Play).
		Int("no_bet", report.Counts.NoBet).Int("no_prediction", report.Counts.NoPrediction).
		Int("activated", report.ActivatedCount).Str("activation_denial_reason", report.ActivationDenialReason).
		Msg("batch run complete")
	return printJSON(report)
}

func runBatchCompare(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fc, err := loadFileConfig()
	if err != nil {
		return err
	}
	env := loadEnv()
	switches := buildSwitchManager(fc)
	connectors := buildConnectors(fc, env, switches)

	live, ok := connectors[compareLiveConn]
	if !ok {
		return fmt.Errorf("unknown live connector %q", compareLiveConn)
	}
	recorded, ok := connectors[compareRecordedConn]
	if !ok {
		return fmt.Errorf("unknown recorded connector %q", compareRecordedConn)
	}

	report, err := batch.Compare(ctx, live, recorded, splitCSV(compareMatchIDs))
	if err != nil {
		return fmt.Errorf("batch compare: %w", err)
	}
	return printJSON(report)
}

func runBatchAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fc, err := loadFileConfig()
	if err != nil {
		return err
	}
	env := loadEnv()
	switches := buildSwitchManager(fc)
	connectors := buildConnectors(fc, env, switches)

	live, ok := connectors[analyzeLiveConn]
	if !ok {
		return fmt.Errorf("unknown live connector %q", analyzeLiveConn)
	}
	recorded, ok := connectors[analyzeRecordedConn]
	if !ok {
		return fmt.Errorf("unknown recorded connector %q", analyzeRecordedConn)
	}

	report, err := batch.Analyze(ctx, live, recorded, policy.Bootstrap(), analyzer.DefaultThresholds(), splitCSV(analyzeMatchIDs))
	if err != nil {
		return fmt.Errorf("batch analyze: %w", err)
	}
	return printJSON(report)
}
