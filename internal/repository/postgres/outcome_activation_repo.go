package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/matchdecide/internal/repository"
)

type outcomeRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPredictionOutcomeRepo constructs the PredictionOutcome + SnapshotResolution repository.
func NewPredictionOutcomeRepo(db *sqlx.DB, timeout time.Duration) repository.PredictionOutcomeRepo {
	return &outcomeRepo{db: db, timeout: timeout}
}

func (r *outcomeRepo) RecordOutcome(ctx context.Context, outcome repository.PredictionOutcomeRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var id int64
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO prediction_outcomes
		(prediction_id, match_id, evaluated_at_utc, final_home_score, final_away_score, final_result_1x2, final_ou25, final_ggng, hit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		outcome.PredictionID, outcome.MatchID, outcome.EvaluatedAtUTC, outcome.FinalHomeScore, outcome.FinalAwayScore,
		outcome.FinalResult1X2, outcome.FinalOU25, outcome.FinalGGNG, outcome.Hit,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert prediction_outcome: %w", err)
	}
	return id, nil
}

func (r *outcomeRepo) UpsertResolution(ctx context.Context, resolution repository.SnapshotResolutionRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	outcomesJSON, err := json.Marshal(resolution.MarketOutcomes)
	if err != nil {
		return 0, fmt.Errorf("marshal market_outcomes: %w", err)
	}
	reasonsJSON, err := json.Marshal(resolution.ReasonCodesByMarket)
	if err != nil {
		return 0, fmt.Errorf("marshal reason_codes_by_market: %w", err)
	}

	var id int64
	err = r.db.QueryRowxContext(ctx, `
		INSERT INTO snapshot_resolutions (analysis_run_id, market_outcomes, reason_codes_by_market, created_at_utc)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (analysis_run_id) DO UPDATE SET
			market_outcomes = EXCLUDED.market_outcomes,
			reason_codes_by_market = EXCLUDED.reason_codes_by_market
		RETURNING id`,
		resolution.AnalysisRunID, outcomesJSON, reasonsJSON, resolution.CreatedAtUTC,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert snapshot_resolution: %w", err)
	}
	return id, nil
}

func (r *outcomeRepo) ListOutcomes(ctx context.Context, tr repository.TimeRange) ([]repository.PredictionOutcomeRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var out []repository.PredictionOutcomeRecord
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, prediction_id, match_id, evaluated_at_utc, final_home_score, final_away_score, final_result_1x2, final_ou25, final_ggng, hit
		FROM prediction_outcomes WHERE evaluated_at_utc BETWEEN $1 AND $2 ORDER BY evaluated_at_utc ASC`, tr.From, tr.To)
	if err != nil {
		return nil, fmt.Errorf("list prediction_outcomes: %w", err)
	}
	return out, nil
}

type activationRunRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewActivationRunRepo constructs the activation-audit repository backing
// the daily cap and the approval gate's audit-trail condition.
func NewActivationRunRepo(db *sqlx.DB, timeout time.Duration) repository.ActivationRunRepo {
	return &activationRunRepo{db: db, timeout: timeout}
}

func (r *activationRunRepo) Record(ctx context.Context, run repository.ActivationRunRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var id int64
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO activation_runs (created_at_utc, activated) VALUES ($1, $2) RETURNING id`,
		run.CreatedAtUTC, run.Activated,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert activation_run: %w", err)
	}
	return id, nil
}

func (r *activationRunRepo) CountActivatedToday(ctx context.Context, today time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM activation_runs
		WHERE activated = true AND created_at_utc::date = $1::date`, today)
	if err != nil {
		return 0, fmt.Errorf("count activated today: %w", err)
	}
	return count, nil
}

func (r *activationRunRepo) HasAnyPriorRun(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM activation_runs LIMIT 1`)
	if err != nil {
		return false, fmt.Errorf("count activation_runs: %w", err)
	}
	return count > 0, nil
}
