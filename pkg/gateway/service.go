// Package gateway is the scoped operation surface of the platform. Every
// operation resolves the caller's credential from the request context,
// enforces its required scope before any catalog or execution work, and
// funnels all failures through the shared error taxonomy.
package gateway

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/sqlground/sqlground-core/pkg/catalog"
	"github.com/sqlground/sqlground-core/pkg/dbrunner"
)

// tracerName is the OpenTelemetry instrumentation scope name for this package.
const tracerName = "github.com/sqlground/sqlground-core/pkg/gateway"

// Catalog is the question, schema, user and group storage the gateway
// reads from. Satisfied by [*catalog.Store].
type Catalog interface {
	ListQuestions(ctx context.Context, cursor catalog.Cursor) ([]catalog.Question, error)
	GetQuestion(ctx context.Context, id int64) (*catalog.Question, error)
	GetQuestionAnswer(ctx context.Context, id int64) (string, error)
	GetQuestionSolution(ctx context.Context, id int64) (*string, error)
	GetQuestionSchemaInitialSQL(ctx context.Context, id int64) (string, error)
	GetSchema(ctx context.Context, schemaID string) (*catalog.Schema, error)
	GetSchemaInitialSQL(ctx context.Context, schemaID string) (string, error)
	GetOrInitializeUser(ctx context.Context, userID string) (*catalog.User, error)
	DeleteUser(ctx context.Context, userID string) error
	CreateGroup(ctx context.Context, name, description string) (int64, error)
	GetGroup(ctx context.Context, id int64) (*catalog.Group, error)
	AssignUserToGroup(ctx context.Context, userID string, groupID int64) error
	RecordAttempt(ctx context.Context, userID string, questionID int64, query string, status catalog.AttemptStatus) error
	RecordSolutionView(ctx context.Context, userID string, questionID int64) error
}

var _ Catalog = (*catalog.Store)(nil)

// Executor submits SQL to the remote execution service. Satisfied by
// [*dbrunner.Client].
type Executor interface {
	Execute(ctx context.Context, schema, query string) (*dbrunner.Outcome, error)
	Rows(ctx context.Context, handle string) (*dbrunner.Table, error)
	AreOutputsSame(ctx context.Context, leftHandle, rightHandle string) (bool, error)
}

var _ Executor = (*dbrunner.Client)(nil)

// Limiter bounds how often a subject may submit queries. A nil Limiter on
// the service means no cap.
type Limiter interface {
	Allow(ctx context.Context, subject string) error
}

// Service is the gateway's operation surface. It is safe for concurrent
// use.
type Service struct {
	catalog Catalog
	runner  Executor
	limiter Limiter
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewService creates the gateway service. limiter may be nil to disable
// the submission cap; logger may be nil to use the process default.
func NewService(cat Catalog, runner Executor, limiter Limiter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		catalog: cat,
		runner:  runner,
		limiter: limiter,
		logger:  logger,
		tracer:  otel.Tracer(tracerName),
	}
}
