package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockCache() (*RawCache, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	return &RawCache{client: db, prefix: "matchdecide:"}, mock
}

func TestRawCache_GetHit(t *testing.T) {
	c, mock := newMockCache()
	mock.ExpectGet("matchdecide:key-1").SetVal(`{"a":1}`)

	val, err := c.Get(context.Background(), "key-1")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(val))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRawCache_GetMiss(t *testing.T) {
	c, mock := newMockCache()
	mock.ExpectGet("matchdecide:missing").RedisNil()

	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrMiss)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRawCache_GetErrorPropagates(t *testing.T) {
	c, mock := newMockCache()
	mock.ExpectGet("matchdecide:bad").SetErr(redis.TxFailedErr)

	_, err := c.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestRawCache_Set(t *testing.T) {
	c, mock := newMockCache()
	mock.ExpectSet("matchdecide:key-1", []byte(`{"a":1}`), 5*time.Minute).SetVal("OK")

	err := c.Set(context.Background(), "key-1", []byte(`{"a":1}`), 5*time.Minute)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchWithCache_HitBypassesFetch(t *testing.T) {
	c, mock := newMockCache()
	mock.ExpectGet("matchdecide:key-1").SetVal(`{"cached":true}`)

	called := false
	raw, fromCache, err := FetchWithCache(context.Background(), c, "key-1", time.Minute, false,
		func(ctx context.Context) ([]byte, error) { called = true; return nil, nil },
		func([]byte) bool { return true },
		nil,
	)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.False(t, called)
	assert.Equal(t, `{"cached":true}`, string(raw))
}

func TestFetchWithCache_ForceRefreshSkipsCacheRead(t *testing.T) {
	c, mock := newMockCache()
	mock.ExpectSet("matchdecide:key-1", []byte(`{"fresh":true}`), time.Minute).SetVal("OK")

	raw, fromCache, err := FetchWithCache(context.Background(), c, "key-1", time.Minute, true,
		func(ctx context.Context) ([]byte, error) { return []byte(`{"fresh":true}`), nil },
		func([]byte) bool { return true },
		nil,
	)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, `{"fresh":true}`, string(raw))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchWithCache_DoesNotWriteWhenQualityFailed(t *testing.T) {
	c, mock := newMockCache()
	mock.ExpectGet("matchdecide:key-1").RedisNil()

	raw, fromCache, err := FetchWithCache(context.Background(), c, "key-1", time.Minute, false,
		func(ctx context.Context) ([]byte, error) { return []byte(`{"poor":true}`), nil },
		func([]byte) bool { return false },
		nil,
	)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, `{"poor":true}`, string(raw))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchWithCache_DoesNotWriteWhenPersistenceBlocked(t *testing.T) {
	c, mock := newMockCache()
	mock.ExpectGet("matchdecide:key-1").RedisNil()

	raw, _, err := FetchWithCache(context.Background(), c, "key-1", time.Minute, false,
		func(ctx context.Context) ([]byte, error) { return []byte(`{"ok":true}`), nil },
		func([]byte) bool { return true },
		func() bool { return true },
	)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(raw))
	require.NoError(t, mock.ExpectationsWereMet())
}
