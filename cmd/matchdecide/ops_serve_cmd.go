package main

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/matchdecide/internal/ops"
)

var opsServeAddr string

// opsServeCmd serves internal/ops's liveness/switches/metrics mux. Nothing
// in the core pipeline ever calls this endpoint; it exists purely for an
// operator or a separate health-check probe to poll.
var opsServeCmd = &cobra.Command{
	Use:   "ops-serve",
	Short: "Serve the ops status mux (/healthz, /switches, /metrics)",
	RunE:  runOpsServe,
}

func init() {
	opsServeCmd.Flags().StringVar(&opsServeAddr, "addr", ":8080", "listen address")
}

func runOpsServe(cmd *cobra.Command, args []string) error {
	fc, err := loadFileConfig()
	if err != nil {
		return err
	}

	switches := buildSwitchManager(fc)
	metrics := ops.NewMetricsRegistry()
	router := ops.NewStatusServer(switches, metrics)

	log.Info().Str("addr", opsServeAddr).Msg("ops status server listening")
	return http.ListenAndServe(opsServeAddr, router)
}
