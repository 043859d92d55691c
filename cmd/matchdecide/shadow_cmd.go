package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/matchdecide/internal/analyzer"
	"github.com/sawpanic/matchdecide/internal/evaluation"
	"github.com/sawpanic/matchdecide/internal/obslog"
	"github.com/sawpanic/matchdecide/internal/policy"
	"github.com/sawpanic/matchdecide/internal/shadow"
)

var shadowCmd = &cobra.Command{
	Use:   "shadow",
	Short: "Single-match shadow pipeline (spec.md §4.5)",
}

var (
	shadowConnector      string
	shadowMatchID        string
	shadowDryRun         bool
	shadowHardBlock      bool
	shadowActivation     bool
	shadowAllowActivate  bool
	shadowFinalHomeScore int
	shadowFinalAwayScore int
	shadowHasFinalScore  bool
)

var shadowRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the shadow pipeline for one match",
	RunE:  runShadowRun,
}

var (
	replayConnector     string
	replayMatchID       string
	replayPolicyVersion int
)

var shadowReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-run Analyzer v2 over one match's evidence under a candidate policy, never persisting",
	RunE:  runShadowReplay,
}

func init() {
	shadowCmd.AddCommand(shadowRunCmd)
	shadowCmd.AddCommand(shadowReplayCmd)

	shadowRunCmd.Flags().StringVar(&shadowConnector, "connector", "recorded", "connector to run against")
	shadowRunCmd.Flags().StringVar(&shadowMatchID, "match-id", "", "match identifier (required)")
	shadowRunCmd.Flags().BoolVar(&shadowDryRun, "dry-run", false, "never persist, regardless of activation")
	shadowRunCmd.Flags().BoolVar(&shadowHardBlock, "hard-block-persistence", false, "block persistence unconditionally")
	shadowRunCmd.Flags().BoolVar(&shadowActivation, "activation", false, "enable the activation gate for this run")
	shadowRunCmd.Flags().BoolVar(&shadowAllowActivate, "allow-activation", false, "request activation consideration for this specific match")
	shadowRunCmd.Flags().IntVar(&shadowFinalHomeScore, "final-home", 0, "final home score, enables attach-result")
	shadowRunCmd.Flags().IntVar(&shadowFinalAwayScore, "final-away", 0, "final away score, enables attach-result")
	shadowRunCmd.Flags().BoolVar(&shadowHasFinalScore, "with-final-score", false, "treat --final-home/--final-away as set even when both are zero")
	_ = shadowRunCmd.MarkFlagRequired("match-id")

	shadowReplayCmd.Flags().StringVar(&replayConnector, "connector", "recorded", "connector to run against")
	shadowReplayCmd.Flags().StringVar(&replayMatchID, "match-id", "", "match identifier (required)")
	shadowReplayCmd.Flags().IntVar(&replayPolicyVersion, "policy-version", 0, "candidate policy version to stamp onto the replay; 0 keeps the bootstrap version")
	_ = shadowReplayCmd.MarkFlagRequired("match-id")
}

func runShadowRun(cmd *cobra.Command, args []string) error {
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

	in := shadow.Input{
		ConnectorName:               shadowConnector,
		MatchID:                     shadowMatchID,
		DryRun:                      shadowDryRun,
		HardBlockPersistence:        shadowHardBlock,
		Activation:                  shadowActivation,
		AllowActivationForThisMatch: shadowAllowActivate,
	}
	if shadowHasFinalScore || shadowFinalHomeScore != 0 || shadowFinalAwayScore != 0 {
		final := evaluation.FinalScore{Home: shadowFinalHomeScore, Away: shadowFinalAwayScore}
		in.FinalScore = &final
	}

	report, err := pipeline.Run(ctx, in)
	if err != nil {
		return fmt.Errorf("shadow run: %w", err)
	}

	log.Info().Str(obslog.FieldMatchID, shadowMatchID).Str("status", string(report.Analysis.Status)).
		Bool("activated", report.Activation.Activated).Msg("shadow run complete")
	return printJSON(report)
}

func runShadowReplay(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	fc, err := loadFileConfig()
	if err != nil {
		return err
	}
	env := loadEnv()
	switches := buildSwitchManager(fc)
	connectors := buildConnectors(fc, env, switches)

	conn, ok := connectors[replayConnector]
	if !ok {
		return fmt.Errorf("unknown connector %q", replayConnector)
	}

	candidate := policy.Bootstrap()
	if replayPolicyVersion != 0 {
		candidate.Meta.Version = replayPolicyVersion
	}

	result, err := shadow.DryRunReplay(ctx, conn, shadow.ReplayInput{
		ConnectorName: replayConnector,
		MatchID:       replayMatchID,
		Policy:        candidate,
		Thresholds:    analyzer.DefaultThresholds(),
	})
	if err != nil {
		return fmt.Errorf("shadow replay: %w", err)
	}
	return printJSON(result)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
