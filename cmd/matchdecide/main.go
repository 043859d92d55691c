// Package main is the matchdecide CLI entrypoint: a cobra root command with
// one subcommand per pipeline entry point (spec.md §6, SPEC_FULL.md §1's
// CLI bullet), adapted from the teacher's cmd/cryptorun/main.go shape.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sawpanic/matchdecide/internal/obslog"
)

const (
	appName = "matchdecide"
	version = "v0.1.0"
)

var (
	flagConfigPath string
	flagTiersPath  string
	flagJSONLogs   bool
)

var rootCmd = &cobra.Command{
	Use:     appName,
	Short:   "Deterministic, offline-first football-match decision engine",
	Version: version,
	Long: `matchdecide runs a deterministic gates-then-scoring analyzer over
connector-supplied match evidence, gated behind an explicit, multi-layer
activation check before anything is ever persisted or counted as live.

There is no interactive menu: every subcommand is a direct, scriptable
entry point. Run 'matchdecide --help' for the full command list.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) { obslog.Bootstrap(flagJSONLogs) },
	Run:              runDefaultEntry,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to config.yaml (connectors/database/switches); defaults if unset")
	rootCmd.PersistentFlags().StringVar(&flagTiersPath, "tiers", "", "path to tiers.yaml (activation tier profiles); built-in defaults if unset")
	rootCmd.PersistentFlags().BoolVar(&flagJSONLogs, "json-logs", false, "emit newline-delimited JSON logs instead of the console writer (for batch/cron runs)")
}

func main() {
	rootCmd.AddCommand(shadowCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(activationCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(opsServeCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// runDefaultEntry replaces the teacher's TTY-routed interactive menu: this
// domain has no menu, so a bare invocation in a terminal prints usage
// guidance instead of launching one.
func runDefaultEntry(cmd *cobra.Command, args []string) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "matchdecide has no interactive mode. Use a subcommand:")
	}
	fmt.Fprintln(os.Stderr, `
  matchdecide shadow run --connector recorded --match-id a1
  matchdecide shadow replay --connector recorded --match-id a1
  matchdecide batch run --connector recorded
  matchdecide batch compare --live live --recorded recorded --match-ids a1,b1
  matchdecide batch analyze --live live --recorded recorded --match-ids a1,b1
  matchdecide activation status
  matchdecide evaluate --period day
  matchdecide ops-serve --addr :8080

See 'matchdecide <command> --help' for flags.`)
	os.Exit(2)
}
