// Package repository defines the persistence contracts the core consumes
// (spec.md §6): create/read for AnalysisRun, Prediction, PredictionOutcome,
// SnapshotResolution, RawPayload and activation runs. Alias and match lookups
// for the resolver are defined in internal/resolver, not here.
// The core only calls these; it owns none of the storage.
package repository

import (
	"context"
	"time"
)

// TimeRange bounds a query window, UTC.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// AnalysisRunRecord is one persisted analyzer invocation.
type AnalysisRunRecord struct {
	ID            int64     `db:"id"`
	MatchID       string    `db:"match_id"`
	ConnectorName string    `db:"connector_name"`
	Status        string    `db:"status"`
	Version       string    `db:"version"`
	PolicyVersion int       `db:"policy_version"`
	InputHash     string    `db:"input_hash"`
	OutputHash    string    `db:"output_hash"`
	CreatedAtUTC  time.Time `db:"created_at_utc"`
}

// PredictionRecord is one persisted per-market decision.
type PredictionRecord struct {
	ID            int64     `db:"id"`
	AnalysisRunID int64     `db:"analysis_run_id"`
	Market        string    `db:"market"`
	Decision      string    `db:"decision"`
	Selection     *string   `db:"selection"`
	Confidence    *float64  `db:"confidence"`
	Reasons       []string  `db:"-"`
	ReasonCodes   []string  `db:"-"`
	CreatedAtUTC  time.Time `db:"created_at_utc"`
}

// PredictionOutcomeRecord is a prediction evaluated against a final score.
type PredictionOutcomeRecord struct {
	ID             int64     `db:"id"`
	PredictionID   int64     `db:"prediction_id"`
	MatchID        string    `db:"match_id"`
	EvaluatedAtUTC time.Time `db:"evaluated_at_utc"`
	FinalHomeScore int       `db:"final_home_score"`
	FinalAwayScore int       `db:"final_away_score"`
	FinalResult1X2 string    `db:"final_result_1x2"`
	FinalOU25      string    `db:"final_ou25"`
	FinalGGNG      string    `db:"final_ggng"`
	Hit            bool      `db:"hit"`
}

// SnapshotResolutionRecord is the persisted outcome of attach-result for one
// analysis run (spec.md §4.8 step 4).
type SnapshotResolutionRecord struct {
	ID                  int64               `db:"id"`
	AnalysisRunID       int64               `db:"analysis_run_id"`
	MarketOutcomes      map[string]string   `db:"-"` // market -> SUCCESS|FAILURE|NEUTRAL
	ReasonCodesByMarket map[string][]string `db:"-"`
	CreatedAtUTC        time.Time           `db:"created_at_utc"`
}

// RawPayloadRecord is a cached raw fetch, keyed by the evidence cache key
// (spec.md §4.3).
type RawPayloadRecord struct {
	CacheKey     string    `db:"cache_key"`
	MatchID      string    `db:"match_id"`
	Domain       string    `db:"domain"`
	Payload      []byte    `db:"payload"`
	CreatedAtUTC time.Time `db:"created_at_utc"`
}

// ActivationRunRecord is one batch-level activation pass, used by the
// approval gate's audit-trail condition and the daily-cap count.
type ActivationRunRecord struct {
	ID           int64     `db:"id"`
	CreatedAtUTC time.Time `db:"created_at_utc"`
	Activated    bool      `db:"activated"`
}

// AnalysisRunRepo persists and reads AnalysisRun + Prediction rows.
type AnalysisRunRepo interface {
	Create(ctx context.Context, run AnalysisRunRecord, predictions []PredictionRecord) (int64, error)
	Get(ctx context.Context, id int64) (*AnalysisRunRecord, error)
	ListByMatch(ctx context.Context, matchID string, limit int) ([]AnalysisRunRecord, error)
	ListPredictions(ctx context.Context, analysisRunID int64) ([]PredictionRecord, error)
}

// PredictionOutcomeRepo persists and reads PredictionOutcome + SnapshotResolution rows.
type PredictionOutcomeRepo interface {
	RecordOutcome(ctx context.Context, outcome PredictionOutcomeRecord) (int64, error)
	UpsertResolution(ctx context.Context, resolution SnapshotResolutionRecord) (int64, error)
	ListOutcomes(ctx context.Context, tr TimeRange) ([]PredictionOutcomeRecord, error)
}

// RawPayloadRepo is the cache-backing store for evidence fetches.
type RawPayloadRepo interface {
	Get(ctx context.Context, cacheKey string) (*RawPayloadRecord, error)
	Put(ctx context.Context, record RawPayloadRecord) error
}

// ActivationRunRepo tracks activation passes for the daily cap and the
// approval gate's audit-trail condition (spec.md §4.7).
type ActivationRunRepo interface {
	Record(ctx context.Context, run ActivationRunRecord) (int64, error)
	CountActivatedToday(ctx context.Context, today time.Time) (int, error)
	HasAnyPriorRun(ctx context.Context) (bool, error)
}

// Repository aggregates every persistence contract the core consumes.
type Repository struct {
	AnalysisRuns    AnalysisRunRepo
	Outcomes        PredictionOutcomeRepo
	RawPayloads     RawPayloadRepo
	ActivationRuns  ActivationRunRepo
}
