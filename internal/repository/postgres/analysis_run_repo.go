// Package postgres implements repository.Repository over PostgreSQL, in the
// same shape as the teacher's internal/persistence/postgres repositories:
// one struct per contract, sqlx for scanning, a per-call context timeout.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/matchdecide/internal/repository"
)

type analysisRunRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewAnalysisRunRepo constructs the AnalysisRun + Prediction repository.
func NewAnalysisRunRepo(db *sqlx.DB, timeout time.Duration) repository.AnalysisRunRepo {
	return &analysisRunRepo{db: db, timeout: timeout}
}

func (r *analysisRunRepo) Create(ctx context.Context, run repository.AnalysisRunRecord, predictions []repository.PredictionRecord) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO analysis_runs (match_id, connector_name, status, version, policy_version, input_hash, output_hash, created_at_utc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		run.MatchID, run.ConnectorName, run.Status, run.Version, run.PolicyVersion, run.InputHash, run.OutputHash, run.CreatedAtUTC,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert analysis_run: %w", err)
	}

	for _, p := range predictions {
		reasonsJSON, err := json.Marshal(p.Reasons)
		if err != nil {
			return 0, fmt.Errorf("marshal reasons: %w", err)
		}
		codesJSON, err := json.Marshal(p.ReasonCodes)
		if err != nil {
			return 0, fmt.Errorf("marshal reason_codes: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO predictions (analysis_run_id, market, decision, selection, confidence, reasons, reason_codes, created_at_utc)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			id, p.Market, p.Decision, p.Selection, p.Confidence, reasonsJSON, codesJSON, p.CreatedAtUTC,
		); err != nil {
			return 0, fmt.Errorf("insert prediction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func (r *analysisRunRepo) Get(ctx context.Context, id int64) (*repository.AnalysisRunRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var run repository.AnalysisRunRecord
	err := r.db.GetContext(ctx, &run, `SELECT id, match_id, connector_name, status, version, policy_version, input_hash, output_hash, created_at_utc FROM analysis_runs WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get analysis_run: %w", err)
	}
	return &run, nil
}

func (r *analysisRunRepo) ListByMatch(ctx context.Context, matchID string, limit int) ([]repository.AnalysisRunRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var runs []repository.AnalysisRunRecord
	err := r.db.SelectContext(ctx, &runs, `
		SELECT id, match_id, connector_name, status, version, policy_version, input_hash, output_hash, created_at_utc
		FROM analysis_runs WHERE match_id = $1 ORDER BY created_at_utc DESC LIMIT $2`, matchID, limit)
	if err != nil {
		return nil, fmt.Errorf("list analysis_runs: %w", err)
	}
	return runs, nil
}

func (r *analysisRunRepo) ListPredictions(ctx context.Context, analysisRunID int64) ([]repository.PredictionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, analysis_run_id, market, decision, selection, confidence, reasons, reason_codes, created_at_utc
		FROM predictions WHERE analysis_run_id = $1 ORDER BY id ASC`, analysisRunID)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var out []repository.PredictionRecord
	for rows.Next() {
		var p repository.PredictionRecord
		var reasonsJSON, codesJSON []byte
		if err := rows.Scan(&p.ID, &p.AnalysisRunID, &p.Market, &p.Decision, &p.Selection, &p.Confidence, &reasonsJSON, &codesJSON, &p.CreatedAtUTC); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		if len(reasonsJSON) > 0 {
			if err := json.Unmarshal(reasonsJSON, &p.Reasons); err != nil {
				return nil, fmt.Errorf("unmarshal reasons: %w", err)
			}
		}
		if len(codesJSON) > 0 {
			if err := json.Unmarshal(codesJSON, &p.ReasonCodes); err != nil {
				return nil, fmt.Errorf("unmarshal reason_codes: %w", err)
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
