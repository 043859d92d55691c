package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sawpanic/matchdecide/internal/repository"
)

// rawPayloadRepo is the cold-storage counterpart to internal/cache's Redis
// hot cache: it durably keeps whatever records callers Put. No pipeline in
// this module calls Put, so fetches are not stored here automatically.
type rawPayloadRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewRawPayloadRepo constructs the durable raw-payload repository.
func NewRawPayloadRepo(db *sqlx.DB, timeout time.Duration) repository.RawPayloadRepo {
	return &rawPayloadRepo{db: db, timeout: timeout}
}

func (r *rawPayloadRepo) Get(ctx context.Context, cacheKey string) (*repository.RawPayloadRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var rec repository.RawPayloadRecord
	err := r.db.GetContext(ctx, &rec, `
		SELECT cache_key, match_id, domain, payload, created_at_utc FROM raw_payloads WHERE cache_key = $1`, cacheKey)
	if err != nil {
		return nil, fmt.Errorf("get raw_payload: %w", err)
	}
	return &rec, nil
}

func (r *rawPayloadRepo) Put(ctx context.Context, record repository.RawPayloadRecord) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO raw_payloads (cache_key, match_id, domain, payload, created_at_utc)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cache_key) DO UPDATE SET payload = EXCLUDED.payload, created_at_utc = EXCLUDED.created_at_utc`,
		record.CacheKey, record.MatchID, record.Domain, record.Payload, record.CreatedAtUTC,
	)
	if err != nil {
		return fmt.Errorf("put raw_payload: %w", err)
	}
	return nil
}
