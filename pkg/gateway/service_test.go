package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"testing"

	"github.com/sqlground/sqlground-core/pkg/auth"
	"github.com/sqlground/sqlground-core/pkg/catalog"
	"github.com/sqlground/sqlground-core/pkg/dbrunner"
)

// fakeCatalog counts every call so tests can assert the scope guard runs
// before any storage work.
type fakeCatalog struct {
	calls int

	questions  []catalog.Question
	question   *catalog.Question
	answer     string
	solution   *string
	initialSQL string
	schema     *catalog.Schema
	user       *catalog.User
	groupID    int64
	group      *catalog.Group

	err        error
	attemptErr error

	attempts      []recordedAttempt
	solutionViews []string
}

type recordedAttempt struct {
	userID     string
	questionID int64
	query      string
	status     catalog.AttemptStatus
}

func (f *fakeCatalog) ListQuestions(ctx context.Context, cursor catalog.Cursor) ([]catalog.Question, error) {
	f.calls++
	return f.questions, f.err
}

func (f *fakeCatalog) GetQuestion(ctx context.Context, id int64) (*catalog.Question, error) {
	f.calls++
	return f.question, f.err
}

func (f *fakeCatalog) GetQuestionAnswer(ctx context.Context, id int64) (string, error) {
	f.calls++
	return f.answer, f.err
}

func (f *fakeCatalog) GetQuestionSolution(ctx context.Context, id int64) (*string, error) {
	f.calls++
	return f.solution, f.err
}

func (f *fakeCatalog) GetQuestionSchemaInitialSQL(ctx context.Context, id int64) (string, error) {
	f.calls++
	return f.initialSQL, f.err
}

func (f *fakeCatalog) GetSchema(ctx context.Context, schemaID string) (*catalog.Schema, error) {
	f.calls++
	return f.schema, f.err
}

func (f *fakeCatalog) GetSchemaInitialSQL(ctx context.Context, schemaID string) (string, error) {
	f.calls++
	return f.initialSQL, f.err
}

func (f *fakeCatalog) GetOrInitializeUser(ctx context.Context, userID string) (*catalog.User, error) {
	f.calls++
	return f.user, f.err
}

func (f *fakeCatalog) DeleteUser(ctx context.Context, userID string) error {
	f.calls++
	return f.err
}

func (f *fakeCatalog) CreateGroup(ctx context.Context, name, description string) (int64, error) {
	f.calls++
	return f.groupID, f.err
}

func (f *fakeCatalog) GetGroup(ctx context.Context, id int64) (*catalog.Group, error) {
	f.calls++
	return f.group, f.err
}

func (f *fakeCatalog) AssignUserToGroup(ctx context.Context, userID string, groupID int64) error {
	f.calls++
	return f.err
}

func (f *fakeCatalog) RecordAttempt(ctx context.Context, userID string, questionID int64, query string, status catalog.AttemptStatus) error {
	f.attempts = append(f.attempts, recordedAttempt{userID, questionID, query, status})
	return f.attemptErr
}

func (f *fakeCatalog) RecordSolutionView(ctx context.Context, userID string, questionID int64) error {
	f.solutionViews = append(f.solutionViews, fmt.Sprintf("%s/%d", userID, questionID))
	return f.attemptErr
}

// fakeExecutor simulates the execution service: every successful Execute
// stores the query text under a fresh handle, and AreOutputsSame compares
// the stored texts, so two submissions agree exactly when their SQL does.
type fakeExecutor struct {
	executeErr   error
	outcome      *dbrunner.Outcome
	failNext     bool
	rowsErr      error
	table        *dbrunner.Table
	compareErr   error
	executeCalls int

	outputs map[string]string
}

func (f *fakeExecutor) Execute(ctx context.Context, schema, query string) (*dbrunner.Outcome, error) {
	f.executeCalls++
	if f.executeErr != nil {
		return nil, f.executeErr
	}
	if f.outcome != nil {
		return f.outcome, nil
	}
	if f.failNext {
		f.failNext = false
		return &dbrunner.Outcome{RuntimeError: "division by zero"}, nil
	}
	if f.outputs == nil {
		f.outputs = make(map[string]string)
	}
	handle := fmt.Sprintf("run-%d", f.executeCalls)
	f.outputs[handle] = schema + "\n" + query
	return &dbrunner.Outcome{Handle: handle}, nil
}

func (f *fakeExecutor) Rows(ctx context.Context, handle string) (*dbrunner.Table, error) {
	if f.rowsErr != nil {
		return nil, f.rowsErr
	}
	return f.table, nil
}

func (f *fakeExecutor) AreOutputsSame(ctx context.Context, leftHandle, rightHandle string) (bool, error) {
	if f.compareErr != nil {
		return false, f.compareErr
	}
	return f.outputs[leftHandle] == f.outputs[rightHandle], nil
}

// fakeLimiter returns its configured error on every check.
type fakeLimiter struct {
	err    error
	checks int
}

func (f *fakeLimiter) Allow(ctx context.Context, subject string) error {
	f.checks++
	return f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ctxWithScopes builds a request context carrying a credential with the
// given space-separated scopes.
func ctxWithScopes(subject, scopes string) context.Context {
	return auth.ContextWithCredential(context.Background(), auth.NewCredential(subject, scopes))
}

func newTestService(t *testing.T, cat *fakeCatalog, runner *fakeExecutor, limiter Limiter) *Service {
	t.Helper()
	return NewService(cat, runner, limiter, discardLogger())
}
