// Package redis provides the Redis client backing the gateway's
// submission rate limiter.
//
// The client wraps go-redis behind the narrow [Cmdable] interface so tests
// can inject a mock via [NewFromClient]. All operations create
// OpenTelemetry spans with standard database semantic attributes.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope name for this package.
const tracerName = "github.com/sqlground/sqlground-core/pkg/clients/redis"

// Cmdable is the command surface the client depends on, satisfied by
// [*redis.Client] and by mocks. Intentionally narrow: only the commands
// the rate limiter and health checks use.
type Cmdable interface {
	// Incr increments the integer value of a key by one.
	Incr(ctx context.Context, key string) *redis.IntCmd

	// Expire sets an expiration on a key.
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd

	// TTL returns the remaining time to live of a key.
	TTL(ctx context.Context, key string) *redis.DurationCmd

	// Get returns the string value of a key.
	Get(ctx context.Context, key string) *redis.StringCmd

	// Del deletes one or more keys.
	Del(ctx context.Context, keys ...string) *redis.IntCmd

	// Ping pings the Redis server.
	Ping(ctx context.Context) *redis.StatusCmd

	// Close closes the client connection.
	Close() error
}

var _ Cmdable = (*redis.Client)(nil)

// Client is a Redis client with OpenTelemetry tracing. It is safe for
// concurrent use; create one per Redis instance and share it.
type Client struct {
	cmdable Cmdable
	config  *Config
	tracer  trace.Tracer
}

// NewClient creates a client and verifies connectivity with a ping. The
// caller must call [Client.Close] when the client is no longer needed.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts *redis.Options
	if cfg.URI != "" {
		parsed, err := redis.ParseURL(cfg.URI)
		if err != nil {
			return nil, apperrors.WrapInternal(err, "The rate limiter store is misconfigured.")
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Addr(),
			DB:       cfg.DB,
			Password: cfg.Password.Value(),
		}
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	rdb := redis.NewClient(opts)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, apperrors.WrapInternal(err, "The rate limiter store is unavailable.")
	}

	return &Client{
		cmdable: rdb,
		config:  &cfg,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// NewFromClient creates a Client around an existing [Cmdable]. Intended
// for tests with mock implementations.
func NewFromClient(cmdable Cmdable, cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Client{
		cmdable: cmdable,
		config:  cfg,
		tracer:  otel.Tracer(tracerName),
	}
}

// Incr increments the integer value of key by one and returns the new
// value.
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	ctx, span := c.startSpan(ctx, "Incr", key)

	n, err := c.cmdable.Incr(ctx, key).Result()
	finishSpan(span, err)
	if err != nil {
		return 0, apperrors.WrapInternal(err, "An internal error occurred")
	}
	return n, nil
}

// Expire sets an expiration on key. Returns whether the key existed.
func (c *Client) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	ctx, span := c.startSpan(ctx, "Expire", key)

	ok, err := c.cmdable.Expire(ctx, key, expiration).Result()
	finishSpan(span, err)
	if err != nil {
		return false, apperrors.WrapInternal(err, "An internal error occurred")
	}
	return ok, nil
}

// TTL returns the remaining time to live of key.
func (c *Client) TTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, span := c.startSpan(ctx, "TTL", key)

	ttl, err := c.cmdable.TTL(ctx, key).Result()
	finishSpan(span, err)
	if err != nil {
		return 0, apperrors.WrapInternal(err, "An internal error occurred")
	}
	return ttl, nil
}

// Get returns the string value of key. A missing key returns
// [redis.Nil] unwrapped so callers can distinguish it.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	ctx, span := c.startSpan(ctx, "Get", key)

	val, err := c.cmdable.Get(ctx, key).Result()
	if err == redis.Nil {
		finishSpan(span, nil)
		return "", err
	}
	finishSpan(span, err)
	if err != nil {
		return "", apperrors.WrapInternal(err, "An internal error occurred")
	}
	return val, nil
}

// Del deletes keys and returns how many existed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	ctx, span := c.startSpan(ctx, "Del", "")

	n, err := c.cmdable.Del(ctx, keys...).Result()
	finishSpan(span, err)
	if err != nil {
		return 0, apperrors.WrapInternal(err, "An internal error occurred")
	}
	return n, nil
}

// Health pings Redis, applying [DefaultHealthTimeout] when the caller's
// context has no deadline. Designed for readiness probes.
func (c *Client) Health(ctx context.Context) error {
	ctx, span := c.startSpan(ctx, "Health", "")

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultHealthTimeout)
		defer cancel()
	}

	err := c.cmdable.Ping(ctx).Err()
	finishSpan(span, err)
	if err != nil {
		return apperrors.WrapInternal(err, "The rate limiter store is unavailable.")
	}
	return nil
}

// Close releases the underlying connection resources.
func (c *Client) Close() error {
	return c.cmdable.Close()
}

// startSpan creates a database client span following the OpenTelemetry
// database semantic conventions.
func (c *Client) startSpan(ctx context.Context, operationName, key string) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, "redis."+operationName,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	attrs := []attribute.KeyValue{
		attribute.String("db.system", "redis"),
		attribute.String("db.operation", operationName),
	}
	if key != "" {
		attrs = append(attrs, attribute.String("db.redis.key", key))
	}
	span.SetAttributes(attrs...)
	return ctx, span
}

// finishSpan records err on the span if non-nil and ends it.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
