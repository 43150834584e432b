package gateway

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sqlground/sqlground-core/pkg/auth"
	"github.com/sqlground/sqlground-core/pkg/catalog"
	"github.com/sqlground/sqlground-core/pkg/dbrunner"
	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
)

// ExecuteResult is the outcome of a submission: either [*ExecutionSuccess]
// or [*ExecutionFailed].
type ExecuteResult interface {
	executeResult()
}

// ExecutionSuccess is a submission the execution service accepted and ran.
// Result rows and the answer check are fetched lazily so callers that only
// care about one of them pay for exactly that.
type ExecutionSuccess struct {
	// InitialSQL is the schema setup the submission ran against, retained
	// so the answer check reuses it without another catalog read.
	InitialSQL string
	// Handle references the stored execution output.
	Handle string

	svc        *Service
	questionID int64
	query      string
	subject    string
}

// ExecutionFailed is a submission that ran but failed inside the database,
// for example a constraint violation at runtime. Error carries the
// execution service's message verbatim.
type ExecutionFailed struct {
	Error string
}

func (*ExecutionSuccess) executeResult() {}
func (*ExecutionFailed) executeResult()  {}

// Execute submits SQL for a question. Requires the execute:query scope.
// The scope check and the submission cap run before any catalog read.
func (s *Service) Execute(ctx context.Context, questionID int64, sql string) (ExecuteResult, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.Execute")
	defer span.End()
	span.SetAttributes(attribute.Int64("gateway.question.id", questionID))

	cred := auth.CredentialFromContext(ctx)
	if err := auth.Require(cred, auth.ScopeExecuteQuery); err != nil {
		return nil, recordSpanError(span, err)
	}
	if s.limiter != nil {
		if err := s.limiter.Allow(ctx, cred.Subject); err != nil {
			return nil, recordSpanError(span, err)
		}
	}

	initialSQL, err := s.catalog.GetQuestionSchemaInitialSQL(ctx, questionID)
	if err != nil {
		return nil, recordSpanError(span, err)
	}

	outcome, err := s.runner.Execute(ctx, initialSQL, sql)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	if !outcome.Succeeded() {
		s.recordAttempt(ctx, cred.Subject, questionID, sql, catalog.AttemptFailed)
		return &ExecutionFailed{Error: outcome.RuntimeError}, nil
	}

	s.recordAttempt(ctx, cred.Subject, questionID, sql, catalog.AttemptPending)
	return &ExecutionSuccess{
		InitialSQL: initialSQL,
		Handle:     outcome.Handle,
		svc:        s,
		questionID: questionID,
		query:      sql,
		subject:    cred.Subject,
	}, nil
}

// Rows retrieves the full result table of the submission, in the order the
// execution service streamed it.
func (r *ExecutionSuccess) Rows(ctx context.Context) (*dbrunner.Table, error) {
	return r.svc.runner.Rows(ctx, r.Handle)
}

// SameAsAnswer reports whether the submission's output matches the
// question's reference answer. Requires the read:answer scope. The
// reference answer is executed against the same initial SQL as the
// submission; the comparison itself happens inside the execution service
// and its verdict is returned verbatim.
func (r *ExecutionSuccess) SameAsAnswer(ctx context.Context) (bool, error) {
	s := r.svc
	ctx, span := s.tracer.Start(ctx, "gateway.SameAsAnswer")
	defer span.End()
	span.SetAttributes(attribute.Int64("gateway.question.id", r.questionID))

	cred := auth.CredentialFromContext(ctx)
	if err := auth.Require(cred, auth.ScopeReadAnswer); err != nil {
		return false, recordSpanError(span, err)
	}

	answer, err := s.catalog.GetQuestionAnswer(ctx, r.questionID)
	if err != nil {
		return false, recordSpanError(span, err)
	}

	refOutcome, err := s.runner.Execute(ctx, r.InitialSQL, answer)
	switch {
	case apperrors.HasCode(err, apperrors.CodeInvalidQuery):
		// The stored answer does not even parse. That is a content
		// problem on our side, never the user's fault.
		return false, recordSpanError(span, answerInvalidError(err))
	case err != nil:
		return false, recordSpanError(span, err)
	case !refOutcome.Succeeded():
		return false, recordSpanError(span, answerInvalidError(apperrors.Internal(refOutcome.RuntimeError)))
	}

	same, err := s.runner.AreOutputsSame(ctx, r.Handle, refOutcome.Handle)
	if err != nil {
		return false, recordSpanError(span, err)
	}

	status := catalog.AttemptFailed
	if same {
		status = catalog.AttemptPassed
	}
	s.recordAttempt(ctx, r.subject, r.questionID, r.query, status)

	span.SetAttributes(attribute.Bool("gateway.answer.same", same))
	return same, nil
}

// answerInvalidError masks a broken reference answer as an internal
// problem, keeping the cause chained for operators.
func answerInvalidError(cause error) error {
	return apperrors.Wrap(cause, apperrors.CodeInternal, "Internal error", "The answer of this question is invalid.")
}

// recordAttempt stores a submission event. Event recording is telemetry;
// a failure is logged and never surfaces to the caller.
func (s *Service) recordAttempt(ctx context.Context, subject string, questionID int64, query string, status catalog.AttemptStatus) {
	if subject == "" {
		return
	}
	if err := s.catalog.RecordAttempt(ctx, subject, questionID, query, status); err != nil {
		s.logger.WarnContext(ctx, "failed to record attempt event",
			"subject", subject,
			"question_id", questionID,
			"status", string(status),
			"error", err,
		)
	}
}
