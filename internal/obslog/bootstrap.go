// Package obslog centralizes zerolog bootstrap and the structured field
// names every pipeline stage logs with, so "match_id"/"connector"/"stage"
// aren't respelled slightly differently at each call site. Grounded on the
// teacher's cmd/cryptorun/main.go bootstrap, split out so every subcommand
// in cmd/matchdecide shares one setup path instead of repeating it.
package obslog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Field names used consistently across pipeline stage logging (spec.md
// AMBIENT STACK: "match_id", "connector", "stage", "decision_count").
const (
	FieldMatchID       = "match_id"
	FieldConnector     = "connector"
	FieldStage         = "stage"
	FieldDecisionCount = "decision_count"
	FieldPolicyVersion = "policy_version"
)

// Bootstrap configures the global zerolog logger: a human-readable console
// writer on stderr for interactive runs (TTY), or newline-delimited JSON for
// batch/cron runs, matching the teacher's console-vs-JSON split.
func Bootstrap(jsonOutput bool) {
	zerolog.TimeFieldFormat = time.RFC3339

	if jsonOutput {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}
