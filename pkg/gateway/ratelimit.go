package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sqlground/sqlground-core/pkg/clients/redis"
	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
)

const (
	// DefaultRateLimit is the number of submissions allowed per window.
	DefaultRateLimit = 30
	// DefaultRateWindow is the counting window for the submission cap.
	DefaultRateWindow = time.Minute

	rateLimitKeyPrefix = "ratelimit:execute:"
)

// RedisStore is the counter storage the rate limiter depends on. Satisfied
// by [*redis.Client].
type RedisStore interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)
}

var _ RedisStore = (*redis.Client)(nil)

// RateLimiter bounds submissions per subject with a fixed-window Redis
// counter. The cap is a load bound, not a security control: when Redis is
// unreachable the limiter fails open with a logged warning rather than
// taking submissions down with it.
type RateLimiter struct {
	store  RedisStore
	limit  int64
	window time.Duration
	logger *slog.Logger
}

// NewRateLimiter creates a limiter. Non-positive limit or window fall back
// to the defaults; logger may be nil to use the process default.
func NewRateLimiter(store RedisStore, limit int64, window time.Duration, logger *slog.Logger) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
	}
}

// Allow counts a submission for the subject and fails once the window's
// cap is exceeded. The returned error carries the INVALID_QUERY code: the
// caller's own behavior caused it, so disclosing the reason is safe.
func (l *RateLimiter) Allow(ctx context.Context, subject string) error {
	key := rateLimitKeyPrefix + subject

	count, err := l.store.Incr(ctx, key)
	if err != nil {
		l.logger.WarnContext(ctx, "rate limiter unavailable, allowing submission",
			"subject", subject,
			"error", err,
		)
		return nil
	}
	if count == 1 {
		if _, err := l.store.Expire(ctx, key, l.window); err != nil {
			l.logger.WarnContext(ctx, "failed to set rate limit window",
				"subject", subject,
				"error", err,
			)
		}
	}
	if count > l.limit {
		return apperrors.New(apperrors.CodeInvalidQuery, "Too many submissions",
			fmt.Sprintf("You have submitted too many queries. Try again within %s.", l.window))
	}
	return nil
}
