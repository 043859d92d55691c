package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sawpanic/matchdecide/internal/activation"
	"github.com/sawpanic/matchdecide/internal/config"
	"github.com/sawpanic/matchdecide/internal/connector"
	"github.com/sawpanic/matchdecide/internal/netio/budget"
	"github.com/sawpanic/matchdecide/internal/netio/circuit"
	"github.com/sawpanic/matchdecide/internal/netio/ratelimit"
	"github.com/sawpanic/matchdecide/internal/ops"
	"github.com/sawpanic/matchdecide/internal/repository"
	"github.com/sawpanic/matchdecide/internal/repository/postgres"
)

// liveFetchDailyBudget is the per-connector daily fetch ceiling for the live
// connector, independent of spec.md §6's ACTIVATION_MAX_MATCHES cap (that
// one bounds activations, this one bounds raw network calls).
const liveFetchDailyBudget = 500

// loadEnv loads every environment-backed toggle (spec.md §6).
func loadEnv() config.Env {
	return config.LoadEnv()
}

// loadFileConfig loads the YAML connector/database/switches config from
// --config, falling back to safe defaults when unset.
func loadFileConfig() (*config.FileConfig, error) {
	if flagConfigPath == "" {
		return config.DefaultFileConfig(), nil
	}
	return config.LoadFileConfig(flagConfigPath)
}

// loadTiersConfig loads the activation tier profiles from --tiers, falling
// back to the built-in default profiles when unset.
func loadTiersConfig() (*config.TiersConfig, error) {
	if flagTiersPath == "" {
		return config.DefaultTiersConfig(), nil
	}
	return config.LoadTiersConfig(flagTiersPath)
}

// buildSwitchManager seeds the runtime kill-switch/live-IO/read-only state
// from the file config's switches section.
func buildSwitchManager(fc *config.FileConfig) *ops.SwitchManager {
	return ops.NewSwitchManager(ops.SwitchConfig{
		ActivationKillSwitch: fc.Switches.ActivationKillSwitch,
		LiveIODisabled:       fc.Switches.LiveIODisabled,
		ReadOnlyMode:         fc.Switches.ReadOnlyMode,
	})
}

// buildConnectors wires the recorded fixture connector and, if a live base
// URL is configured, the live connector behind the circuit breaker, rate
// limiter, and fetch budget the teacher's provider wrapper applies.
func buildConnectors(fc *config.FileConfig, env config.Env, switches *ops.SwitchManager) map[string]connector.Connector {
	connectors := map[string]connector.Connector{
		"recorded": connector.NewRecorded("recorded", os.DirFS(fc.Connectors.RecordedFixtureDir), "."),
	}

	if fc.Connectors.LiveBaseURL != "" {
		liveIOAllowed := func() bool {
			return env.LiveIOAllowed && switches.IsLiveIOAllowed()
		}
		connectors["live"] = connector.NewLive(connector.LiveConfig{
			Name:    "live",
			BaseURL: fc.Connectors.LiveBaseURL,
			Host:    fc.Connectors.LiveHost,
			Client:  &http.Client{Timeout: time.Duration(env.LiveIOTimeoutSeconds) * time.Second},
			Limiter: ratelimit.NewLimiter(1, 3),
			Breaker: circuit.New(circuit.Config{
				RequestTimeout: time.Duration(env.LiveIOTimeoutSeconds) * time.Second,
			}),
			Budget:        budget.NewTracker("live", liveFetchDailyBudget, 0),
			LiveIOAllowed: liveIOAllowed,
		})
	}

	return connectors
}

// buildRepository wires the persistence layer: Postgres if a DSN is
// configured, otherwise an in-memory store so dry-run/shadow-only
// invocations never require a database.
func buildRepository(fc *config.FileConfig) (*repository.Repository, func(), error) {
	if fc.Database.DSN == "" {
		repo := repository.NewInMemory().Repository()
		return &repo, func() {}, nil
	}

	db, err := sqlx.Connect("postgres", fc.Database.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}

	timeout := time.Duration(fc.Database.QueryTimeoutMS) * time.Millisecond
	repo := repository.Repository{
		AnalysisRuns:   postgres.NewAnalysisRunRepo(db, timeout),
		Outcomes:       postgres.NewPredictionOutcomeRepo(db, timeout),
		RawPayloads:    postgres.NewRawPayloadRepo(db, timeout),
		ActivationRuns: postgres.NewActivationRunRepo(db, timeout),
	}
	return &repo, func() { _ = db.Close() }, nil
}

// repositoryReadiness adapts the repository connection itself into the
// activation gate's DB/cache health check (spec.md §4.7 step 6): a
// repository that answers HasAnyPriorRun is, by definition, reachable.
type repositoryReadiness struct {
	repo *repository.Repository
}

func (r repositoryReadiness) Ready() (bool, string) {
	if r.repo == nil || r.repo.ActivationRuns == nil {
		return false, "repository not configured"
	}
	if _, err := r.repo.ActivationRuns.HasAnyPriorRun(context.Background()); err != nil {
		return false, fmt.Sprintf("repository unreachable: %v", err)
	}
	return true, ""
}

// switchAlertScanner treats an active kill-switch or read-only mode as an
// unresolved critical alert for the activation gate's layer-10 check,
// keeping the ops switch state and the gate's alert check a single source
// of truth.
type switchAlertScanner struct {
	switches *ops.SwitchManager
}

func (s switchAlertScanner) HasUnresolvedCriticalAlert(_ int) (bool, string) {
	status := s.switches.Status()
	if status.AnyEmergencyActive {
		return true, "ops switch active: kill-switch or read-only mode"
	}
	return false, ""
}

var _ activation.Readiness = repositoryReadiness{}
var _ activation.AlertScanner = switchAlertScanner{}
