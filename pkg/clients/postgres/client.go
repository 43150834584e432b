// Package postgres provides the catalog's PostgreSQL client with
// connection pooling and OpenTelemetry tracing.
//
// The client wraps pgxpool behind the [Pool] interface so tests can inject
// a pgxmock pool via [NewFromPool]. Connection retry for transient
// failures is pgxpool's job: failed connections are replaced and the
// health check period keeps the pool healthy, so callers never implement
// their own connection-level retry.
//
// All operations create OpenTelemetry spans with standard database
// semantic attributes. SQL statements are truncated in spans so result
// values never leak into telemetry.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope name for this package.
const tracerName = "github.com/sqlground/sqlground-core/pkg/clients/postgres"

// Pool is the connection pool surface the client depends on. It is
// satisfied by [*pgxpool.Pool] and by pgxmock, enabling unit tests without
// a database. Method signatures follow the pgx v5 API exactly.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var _ Pool = (*pgxpool.Pool)(nil)

// Client is a pooled PostgreSQL client with OpenTelemetry tracing. It is
// safe for concurrent use; create one per database and share it.
type Client struct {
	pool         Pool
	config       *Config
	tracer       trace.Tracer
	databaseName string
}

// NewClient creates a client, establishes the connection pool, and
// verifies connectivity with a ping. The caller must call [Client.Close]
// when done.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, apperrors.WrapInternal(err, "The catalog database is misconfigured.")
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, apperrors.WrapInternal(err, "The catalog database is unavailable.")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.WrapInternal(err, "The catalog database is unavailable.")
	}

	return &Client{
		pool:         pool,
		config:       &cfg,
		tracer:       otel.Tracer(tracerName),
		databaseName: cfg.Database,
	}, nil
}

// NewFromPool creates a Client around an existing [Pool]. Intended for
// tests with pgxmock. Pass nil cfg for a zero-value config.
func NewFromPool(pool Pool, cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Client{
		pool:         pool,
		config:       cfg,
		tracer:       otel.Tracer(tracerName),
		databaseName: cfg.Database,
	}
}

// Query executes a SQL query that returns rows. The returned [pgx.Rows]
// must be closed by the caller.
func (c *Client) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ctx, span := c.startSpan(ctx, "Query", sql)

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		finishSpan(span, err)
		return nil, apperrors.WrapInternal(err, "An internal error occurred")
	}
	// Row-level errors surface during iteration, outside this span.
	finishSpan(span, nil)
	return rows, nil
}

// QueryRow executes a SQL query that returns at most one row. Errors are
// deferred until Scan on the returned row, so the span covers only query
// dispatch.
func (c *Client) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ctx, span := c.startSpan(ctx, "QueryRow", sql)
	defer span.End()

	return c.pool.QueryRow(ctx, sql, args...)
}

// Exec executes a SQL statement that does not return rows.
func (c *Client) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ctx, span := c.startSpan(ctx, "Exec", sql)

	tag, err := c.pool.Exec(ctx, sql, args...)
	finishSpan(span, err)
	if err != nil {
		return tag, apperrors.WrapInternal(err, "An internal error occurred")
	}
	return tag, nil
}

// Begin starts a database transaction. Callers must commit or roll back;
// defer tx.Rollback(ctx) immediately after Begin is the recommended
// pattern since rollback of a committed transaction is a no-op in pgx.
func (c *Client) Begin(ctx context.Context) (pgx.Tx, error) {
	ctx, span := c.startSpan(ctx, "Begin", "BEGIN")

	tx, err := c.pool.Begin(ctx)
	finishSpan(span, err)
	if err != nil {
		return nil, apperrors.WrapInternal(err, "An internal error occurred")
	}
	return tx, nil
}

// Health pings the database, applying [DefaultHealthTimeout] when the
// caller's context has no deadline. Designed for readiness probes.
func (c *Client) Health(ctx context.Context) error {
	ctx, span := c.startSpan(ctx, "Health", "SELECT 1")

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultHealthTimeout)
		defer cancel()
	}

	err := c.pool.Ping(ctx)
	finishSpan(span, err)
	if err != nil {
		return apperrors.WrapInternal(err, "The catalog database is unavailable.")
	}
	return nil
}

// Close releases all pool resources. Safe to call multiple times.
func (c *Client) Close() {
	c.pool.Close()
}

// Pool returns the underlying pool for operations the Client does not
// wrap (CopyFrom, SendBatch). Do not close it directly.
func (c *Client) Pool() Pool {
	return c.pool
}

// startSpan creates a database client span following the OpenTelemetry
// database semantic conventions.
func (c *Client) startSpan(ctx context.Context, operationName, sql string) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, "postgres."+operationName,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.name", c.databaseName),
		attribute.String("db.statement", truncateSQL(sql)),
	)
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
