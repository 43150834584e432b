// Package dbrunner is the client for the query execution service. The
// service runs submitted SQL inside an isolated sandbox seeded with a
// schema setup script, streams back result rows on request, and can
// compare the output of two prior executions.
//
// The three operations map onto the service's RPC surface:
//
//   - [Client.Execute] submits SQL and classifies the response into an
//     [Outcome]: started successfully (a retrievable handle), or accepted
//     but failed at runtime (the service's error message).
//   - [Client.Rows] folds the service's result stream into a [Table],
//     preserving row arrival order.
//   - [Client.AreOutputsSame] asks the service whether two executions
//     produced equivalent result sets. The comparison semantics are the
//     service's contract.
//
// Nothing here retries: a submission failure is authoritative for that SQL
// text, and resubmission is the end user's decision.
package dbrunner

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/sqlground/sqlground-core/pkg/dbrunner/runnerv1"
	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope name for this package.
const tracerName = "github.com/sqlground/sqlground-core/pkg/dbrunner"

// Client talks to the dbrunner execution service. It is safe for
// concurrent use by multiple goroutines; create one per service endpoint
// and share it.
//
// Create a Client with [NewClient] for production use, or [NewFromRPC] for
// testing against an in-process server or a stub.
type Client struct {
	conn        *grpc.ClientConn
	rpc         runnerv1.DbRunnerServiceClient
	callTimeout time.Duration
	tracer      trace.Tracer
}

// NewClient connects to the execution service at cfg.Addr. The connection
// is established lazily; a bad address fails here, an unreachable service
// fails at first call.
//
// The caller must call [Client.Close] when the client is no longer needed.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	EnsureGRPCJSONCodec()

	target, secure, err := dialTarget(cfg.Addr)
	if err != nil {
		return nil, err
	}

	creds := insecure.NewCredentials()
	if secure {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	conn, err := grpc.NewClient(target,
		grpc.WithTransportCredentials(creds),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(grpcJSONCodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("dbrunner: dial %s: %w", target, err)
	}

	return &Client{
		conn:        conn,
		rpc:         runnerv1.NewDbRunnerServiceClient(conn),
		callTimeout: cfg.CallTimeout,
		tracer:      otel.Tracer(tracerName),
	}, nil
}

// NewFromRPC creates a Client around an existing RPC client. Used in tests
// to inject an in-process server or a stub.
func NewFromRPC(rpc runnerv1.DbRunnerServiceClient) *Client {
	return &Client{
		rpc:         rpc,
		callTimeout: DefaultCallTimeout,
		tracer:      otel.Tracer(tracerName),
	}
}

// Close releases the underlying connection. No-op for clients created with
// [NewFromRPC].
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// withTimeout applies the configured call deadline when the caller's
// context has none.
func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.callTimeout)
}

// Outcome is the classified result of a submission. Exactly one of the two
// fields is set: Handle when the execution started, RuntimeError when the
// service accepted the SQL but its execution failed (e.g., a missing
// table). Both are expected business results, not errors.
type Outcome struct {
	// Handle references the started execution for later retrieval or
	// comparison.
	Handle string

	// RuntimeError is the service's failure message, originating from the
	// user's own SQL and safe to show them verbatim.
	RuntimeError string
}

// Succeeded reports whether the execution started and produced a handle.
func (o *Outcome) Succeeded() bool {
	return o.Handle != ""
}

// Execute submits query against a sandbox seeded with schema and
// classifies the response.
//
// SQL the service rejects outright (its InvalidArgument status) returns an
// INVALID_QUERY error carrying the service's message verbatim. Any other
// transport failure returns an INTERNAL_ERROR with a generic message; the
// raw cause is retained for logs only. A response carrying neither a
// handle nor a runtime error is a protocol violation.
func (c *Client) Execute(ctx context.Context, schema, query string) (*Outcome, error) {
	ctx, span := c.tracer.Start(ctx, "dbrunner.Execute",
		trace.WithAttributes(attribute.Int("db.statement_length", len(query))))
	defer span.End()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.rpc.RunQuery(ctx, &runnerv1.RunQueryRequest{
		Schema: schema,
		Query:  query,
	})
	if err != nil {
		var wrapped error
		if st, ok := status.FromError(err); ok && st.Code() == codes.InvalidArgument {
			// The service rejected the SQL itself. This is the expected
			// "your SQL is wrong" path and the message describes the
			// user's own input.
			wrapped = apperrors.InvalidQuery(st.Message(), err)
		} else {
			wrapped = apperrors.WrapInternal(err, "Unable to run your query.")
		}
		recordSpanError(span, wrapped)
		return nil, wrapped
	}

	switch {
	case resp.Id != nil:
		span.SetAttributes(attribute.String("dbrunner.handle", *resp.Id))
		return &Outcome{Handle: *resp.Id}, nil
	case resp.Error != nil:
		span.SetAttributes(attribute.Bool("dbrunner.runtime_failed", true))
		return &Outcome{RuntimeError: *resp.Error}, nil
	default:
		err := apperrors.Internal("Unknown response type.")
		recordSpanError(span, err)
		return nil, err
	}
}

// Table is an assembled query result: the column names from the stream's
// header and the rows in exactly the order the service streamed them. A
// nil cell is SQL NULL.
type Table struct {
	Columns []string
	Rows    [][]*string
}

// Rows retrieves the full result of a prior successful execution by
// consuming the service's stream to completion.
//
// The stream must deliver a header before any row; a row arriving first,
// or a message carrying neither kind, is a protocol violation. A transport
// interruption mid-stream fails the whole retrieval and discards partial
// rows: a truncated table is worse than an explicit error.
func (c *Client) Rows(ctx context.Context, handle string) (*Table, error) {
	ctx, span := c.tracer.Start(ctx, "dbrunner.Rows",
		trace.WithAttributes(attribute.String("dbrunner.handle", handle)))
	defer span.End()

	stream, err := c.rpc.RetrieveQuery(ctx, &runnerv1.RetrieveQueryRequest{Id: handle})
	if err != nil {
		wrapped := apperrors.WrapInternal(err, "Unable to retrieve query results.")
		recordSpanError(span, wrapped)
		return nil, wrapped
	}

	table := &Table{}
	headerSeen := false
	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			wrapped := apperrors.WrapInternal(err, "Unable to retrieve query results.")
			recordSpanError(span, wrapped)
			return nil, wrapped
		}

		switch {
		case msg.Header != nil:
			table.Columns = msg.Header.Cells
			headerSeen = true
		case msg.Row != nil:
			if !headerSeen {
				err := apperrors.Internal("Unknown response type.")
				recordSpanError(span, err)
				return nil, err
			}
			row := make([]*string, len(msg.Row.Cells))
			for i, cell := range msg.Row.Cells {
				if cell != nil {
					row[i] = cell.Value
				}
			}
			table.Rows = append(table.Rows, row)
		default:
			err := apperrors.Internal("Unknown response type.")
			recordSpanError(span, err)
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int("dbrunner.row_count", len(table.Rows)))
	return table, nil
}

// AreOutputsSame asks the service whether two executions produced
// equivalent result sets and returns its verdict verbatim. Whether the
// comparison is order-sensitive is the service's contract.
func (c *Client) AreOutputsSame(ctx context.Context, leftHandle, rightHandle string) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "dbrunner.AreOutputsSame")
	defer span.End()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.rpc.AreQueriesOutputSame(ctx, &runnerv1.AreQueriesOutputSameRequest{
		LeftId:  leftHandle,
		RightId: rightHandle,
	})
	if err != nil {
		wrapped := apperrors.WrapInternal(err, "Unable to verify your answer.")
		recordSpanError(span, wrapped)
		return false, wrapped
	}

	span.SetAttributes(attribute.Bool("dbrunner.same", resp.Same))
	return resp.Same, nil
}

// recordSpanError records err on the span and marks the span status as
// Error. No-op when err is nil.
func recordSpanError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
}
