package repository

import (
	"context"
	"sync"
	"time"
)

// InMemory implements every repository contract over plain Go maps. It is
// the default for tests and for dry-run/shadow invocations that should never
// touch a real database.
type InMemory struct {
	mu sync.Mutex

	nextRunID        int64
	nextPredictionID int64
	nextOutcomeID    int64
	nextResolutionID int64
	nextActivationID int64

	runs            map[int64]AnalysisRunRecord
	predictions     map[int64][]PredictionRecord
	runsByMatch     map[string][]int64
	outcomes        []PredictionOutcomeRecord
	resolutions     map[int64]SnapshotResolutionRecord
	rawPayloads     map[string]RawPayloadRecord
	activationRuns  []ActivationRunRecord
}

// NewInMemory constructs an empty in-memory repository set.
func NewInMemory() *InMemory {
	return &InMemory{
		runs:        map[int64]AnalysisRunRecord{},
		predictions: map[int64][]PredictionRecord{},
		runsByMatch: map[string][]int64{},
		resolutions: map[int64]SnapshotResolutionRecord{},
		rawPayloads: map[string]RawPayloadRecord{},
	}
}

// Repository returns this in-memory store wired as a Repository.
func (m *InMemory) Repository() Repository {
	return Repository{
		AnalysisRuns:   m,
		Outcomes:       m,
		RawPayloads:    m,
		ActivationRuns: m,
	}
}

func (m *InMemory) Create(_ context.Context, run AnalysisRunRecord, predictions []PredictionRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextRunID++
	id := m.nextRunID
	run.ID = id
	m.runs[id] = run
	m.runsByMatch[run.MatchID] = append(m.runsByMatch[run.MatchID], id)

	stored := make([]PredictionRecord, len(predictions))
	for i, p := range predictions {
		m.nextPredictionID++
		p.ID = m.nextPredictionID
		p.AnalysisRunID = id
		stored[i] = p
	}
	m.predictions[id] = stored
	return id, nil
}

func (m *InMemory) Get(_ context.Context, id int64) (*AnalysisRunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, nil
	}
	return &run, nil
}

func (m *InMemory) ListByMatch(_ context.Context, matchID string, limit int) ([]AnalysisRunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := m.runsByMatch[matchID]
	out := make([]AnalysisRunRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.runs[id])
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *InMemory) ListPredictions(_ context.Context, analysisRunID int64) ([]PredictionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PredictionRecord(nil), m.predictions[analysisRunID]...), nil
}

func (m *InMemory) RecordOutcome(_ context.Context, outcome PredictionOutcomeRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextOutcomeID++
	outcome.ID = m.nextOutcomeID
	m.outcomes = append(m.outcomes, outcome)
	return outcome.ID, nil
}

func (m *InMemory) UpsertResolution(_ context.Context, resolution SnapshotResolutionRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if resolution.ID == 0 {
		m.nextResolutionID++
		resolution.ID = m.nextResolutionID
	}
	m.resolutions[resolution.AnalysisRunID] = resolution
	return resolution.ID, nil
}

func (m *InMemory) ListOutcomes(_ context.Context, tr TimeRange) ([]PredictionOutcomeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PredictionOutcomeRecord, 0, len(m.outcomes))
	for _, o := range m.outcomes {
		if withinRange(o.EvaluatedAtUTC, tr) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *InMemory) Get(_ context.Context, cacheKey string) (*RawPayloadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rawPayloads[cacheKey]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *InMemory) Put(_ context.Context, record RawPayloadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rawPayloads[record.CacheKey] = record
	return nil
}

func (m *InMemory) Record(_ context.Context, run ActivationRunRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextActivationID++
	run.ID = m.nextActivationID
	m.activationRuns = append(m.activationRuns, run)
	return run.ID, nil
}

func (m *InMemory) CountActivatedToday(_ context.Context, today time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	y, mo, d := today.Date()
	for _, r := range m.activationRuns {
		ry, rmo, rd := r.CreatedAtUTC.Date()
		if r.Activated && ry == y && rmo == mo && rd == d {
			count++
		}
	}
	return count, nil
}

func (m *InMemory) HasAnyPriorRun(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.activationRuns) > 0, nil
}

func withinRange(t time.Time, tr TimeRange) bool {
	if !tr.From.IsZero() && t.Before(tr.From) {
		return false
	}
	if !tr.To.IsZero() && t.After(tr.To) {
		return false
	}
	return true
}
