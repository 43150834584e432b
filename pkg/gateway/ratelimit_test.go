package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
)

// fakeRedisStore is an in-memory counter with scriptable failures.
type fakeRedisStore struct {
	counts    map[string]int64
	incrErr   error
	expireErr error
	expires   map[string]time.Duration
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{
		counts:  make(map[string]int64),
		expires: make(map[string]time.Duration),
	}
}

func (f *fakeRedisStore) Incr(ctx context.Context, key string) (int64, error) {
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeRedisStore) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	if f.expireErr != nil {
		return false, f.expireErr
	}
	f.expires[key] = expiration
	return true, nil
}

func TestRateLimiter_AllowsUnderCap(t *testing.T) {
	store := newFakeRedisStore()
	limiter := NewRateLimiter(store, 3, time.Minute, discardLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Allow(ctx, "auth0|alice"), "submission %d", i+1)
	}
}

func TestRateLimiter_RejectsOverCap(t *testing.T) {
	store := newFakeRedisStore()
	limiter := NewRateLimiter(store, 2, time.Minute, discardLogger())
	ctx := context.Background()

	require.NoError(t, limiter.Allow(ctx, "auth0|alice"))
	require.NoError(t, limiter.Allow(ctx, "auth0|alice"))

	err := limiter.Allow(ctx, "auth0|alice")
	require.Error(t, err)

	appErr, ok := apperrors.AsError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInvalidQuery, appErr.Code)
	assert.Equal(t, "Too many submissions", appErr.Title)
	assert.Contains(t, appErr.Details, "1m0s")
}

func TestRateLimiter_SubjectsCountedSeparately(t *testing.T) {
	store := newFakeRedisStore()
	limiter := NewRateLimiter(store, 1, time.Minute, discardLogger())
	ctx := context.Background()

	require.NoError(t, limiter.Allow(ctx, "auth0|alice"))
	require.NoError(t, limiter.Allow(ctx, "auth0|bob"))
	require.Error(t, limiter.Allow(ctx, "auth0|alice"))
}

func TestRateLimiter_WindowSetOnFirstSubmission(t *testing.T) {
	store := newFakeRedisStore()
	limiter := NewRateLimiter(store, 5, 30*time.Second, discardLogger())
	ctx := context.Background()

	require.NoError(t, limiter.Allow(ctx, "auth0|alice"))
	require.NoError(t, limiter.Allow(ctx, "auth0|alice"))

	assert.Equal(t, 30*time.Second, store.expires["ratelimit:execute:auth0|alice"])
}

func TestRateLimiter_FailsOpenOnRedisOutage(t *testing.T) {
	store := newFakeRedisStore()
	store.incrErr = errors.New("connection refused")
	limiter := NewRateLimiter(store, 1, time.Minute, discardLogger())

	// A broken counter must not block submissions.
	for i := 0; i < 5; i++ {
		require.NoError(t, limiter.Allow(context.Background(), "auth0|alice"))
	}
}

func TestRateLimiter_ExpireFailureIsNotFatal(t *testing.T) {
	store := newFakeRedisStore()
	store.expireErr = errors.New("connection reset")
	limiter := NewRateLimiter(store, 2, time.Minute, discardLogger())

	require.NoError(t, limiter.Allow(context.Background(), "auth0|alice"))
}

func TestRateLimiter_Defaults(t *testing.T) {
	limiter := NewRateLimiter(newFakeRedisStore(), 0, 0, nil)

	assert.Equal(t, int64(DefaultRateLimit), limiter.limit)
	assert.Equal(t, DefaultRateWindow, limiter.window)
	assert.NotNil(t, limiter.logger)
}
