package gateway

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sqlground/sqlground-core/pkg/auth"
	"github.com/sqlground/sqlground-core/pkg/catalog"
)

// Questions lists a page of practice questions. Requires the read:public
// scope.
func (s *Service) Questions(ctx context.Context, cursor catalog.Cursor) ([]catalog.Question, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.Questions")
	defer span.End()

	if err := auth.Require(auth.CredentialFromContext(ctx), auth.ScopeReadPublic); err != nil {
		return nil, recordSpanError(span, err)
	}
	return s.catalog.ListQuestions(ctx, cursor)
}

// Question returns a single question. Requires the read:public scope.
func (s *Service) Question(ctx context.Context, id int64) (*catalog.Question, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.Question")
	defer span.End()
	span.SetAttributes(attribute.Int64("gateway.question.id", id))

	if err := auth.Require(auth.CredentialFromContext(ctx), auth.ScopeReadPublic); err != nil {
		return nil, recordSpanError(span, err)
	}
	return s.catalog.GetQuestion(ctx, id)
}

// QuestionAnswer returns the reference answer SQL for a question. Requires
// the read:answer scope.
func (s *Service) QuestionAnswer(ctx context.Context, id int64) (string, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.QuestionAnswer")
	defer span.End()
	span.SetAttributes(attribute.Int64("gateway.question.id", id))

	if err := auth.Require(auth.CredentialFromContext(ctx), auth.ScopeReadAnswer); err != nil {
		return "", recordSpanError(span, err)
	}
	return s.catalog.GetQuestionAnswer(ctx, id)
}

// QuestionSolution returns the solution video URL for a question, or nil
// when none exists. Requires the read:answer scope. Viewing a solution is
// recorded as an event when the caller has a subject.
func (s *Service) QuestionSolution(ctx context.Context, id int64) (*string, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.QuestionSolution")
	defer span.End()
	span.SetAttributes(attribute.Int64("gateway.question.id", id))

	cred := auth.CredentialFromContext(ctx)
	if err := auth.Require(cred, auth.ScopeReadAnswer); err != nil {
		return nil, recordSpanError(span, err)
	}

	video, err := s.catalog.GetQuestionSolution(ctx, id)
	if err != nil {
		return nil, recordSpanError(span, err)
	}

	if cred.Subject != "" {
		if recErr := s.catalog.RecordSolutionView(ctx, cred.Subject, id); recErr != nil {
			s.logger.WarnContext(ctx, "failed to record solution event",
				"subject", cred.Subject,
				"question_id", id,
				"error", recErr,
			)
		}
	}
	return video, nil
}

// Schema returns a schema. Requires the read:resource scope.
func (s *Service) Schema(ctx context.Context, schemaID string) (*catalog.Schema, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.Schema")
	defer span.End()
	span.SetAttributes(attribute.String("gateway.schema.id", schemaID))

	if err := auth.Require(auth.CredentialFromContext(ctx), auth.ScopeReadResource); err != nil {
		return nil, recordSpanError(span, err)
	}
	return s.catalog.GetSchema(ctx, schemaID)
}

// SchemaInitialSQL returns the initial SQL of a schema. Requires the
// read:resource scope.
func (s *Service) SchemaInitialSQL(ctx context.Context, schemaID string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.SchemaInitialSQL")
	defer span.End()
	span.SetAttributes(attribute.String("gateway.schema.id", schemaID))

	if err := auth.Require(auth.CredentialFromContext(ctx), auth.ScopeReadResource); err != nil {
		return "", recordSpanError(span, err)
	}
	return s.catalog.GetSchemaInitialSQL(ctx, schemaID)
}

// recordSpanError records err on the span and returns it unchanged.
func recordSpanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}
