package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/sqlground/sqlground-core/pkg/clients/postgres"
	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope name for this package.
const tracerName = "github.com/sqlground/sqlground-core/pkg/catalog"

// Sentinel causes the store attaches to the generic internal error. Callers
// that care can detect them with errors.Is; everyone else sees the shared
// taxonomy.
var (
	// ErrNotPositiveID is returned when a caller-supplied numeric id is
	// negative.
	ErrNotPositiveID = errors.New("id must be a positive integer")
	// ErrUserDeleted is returned when the account for a credential subject
	// has been soft-deleted.
	ErrUserDeleted = errors.New("user has been deleted")
)

const questionColumns = "question_id, schema_id, type, difficulty, title, description, created_at, updated_at"

// Store reads and writes catalog entities through the shared PostgreSQL
// client. It is safe for concurrent use.
type Store struct {
	db     *postgres.Client
	tracer trace.Tracer
}

// NewStore creates a Store on top of an established database client.
func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		tracer: otel.Tracer(tracerName),
	}
}

// ListQuestions returns a page of questions ordered by id, skipping
// soft-deleted rows. An empty page is not an error.
func (s *Store) ListQuestions(ctx context.Context, cursor Cursor) ([]Question, error) {
	ctx, span := s.startSpan(ctx, "ListQuestions",
		attribute.Int64("catalog.cursor.offset", cursor.OffsetValue()),
		attribute.Int64("catalog.cursor.limit", cursor.LimitValue()),
	)
	defer span.End()

	rows, err := s.db.Query(ctx,
		"SELECT "+questionColumns+" FROM dp_questions WHERE deleted_at IS NULL ORDER BY question_id LIMIT $1 OFFSET $2",
		cursor.LimitValue(), cursor.OffsetValue(),
	)
	if err != nil {
		return nil, recordSpanError(span, err)
	}
	defer rows.Close()

	questions := make([]Question, 0, cursor.LimitValue())
	for rows.Next() {
		var q Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, recordSpanError(span, apperrors.WrapInternal(err, "An internal error occurred"))
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, recordSpanError(span, apperrors.WrapInternal(err, "An internal error occurred"))
	}

	span.SetAttributes(attribute.Int("catalog.questions.count", len(questions)))
	return questions, nil
}

// GetQuestion returns a single question by id.
func (s *Store) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	ctx, span := s.startSpan(ctx, "GetQuestion", attribute.Int64("catalog.question.id", id))
	defer span.End()

	if err := checkPositiveID(id); err != nil {
		return nil, recordSpanError(span, err)
	}

	row := s.db.QueryRow(ctx,
		"SELECT "+questionColumns+" FROM dp_questions WHERE question_id = $1 AND deleted_at IS NULL",
		id,
	)

	var q Question
	if err := scanQuestion(row, &q); err != nil {
		return nil, recordSpanError(span, mapRowError(err, "question", formatID(id)))
	}
	return &q, nil
}

// GetQuestionAnswer returns the reference answer SQL for a question. The
// caller is responsible for the read:answer scope check.
func (s *Store) GetQuestionAnswer(ctx context.Context, id int64) (string, error) {
	ctx, span := s.startSpan(ctx, "GetQuestionAnswer", attribute.Int64("catalog.question.id", id))
	defer span.End()

	if err := checkPositiveID(id); err != nil {
		return "", recordSpanError(span, err)
	}

	var answer string
	err := s.db.QueryRow(ctx,
		"SELECT answer FROM dp_questions WHERE question_id = $1 AND deleted_at IS NULL",
		id,
	).Scan(&answer)
	if err != nil {
		return "", recordSpanError(span, mapRowError(err, "question", formatID(id)))
	}
	return answer, nil
}

// GetQuestionSolution returns the solution video URL for a question, or nil
// when the question has no recorded solution.
func (s *Store) GetQuestionSolution(ctx context.Context, id int64) (*string, error) {
	ctx, span := s.startSpan(ctx, "GetQuestionSolution", attribute.Int64("catalog.question.id", id))
	defer span.End()

	if err := checkPositiveID(id); err != nil {
		return nil, recordSpanError(span, err)
	}

	var video *string
	err := s.db.QueryRow(ctx,
		"SELECT solution_video FROM dp_questions WHERE question_id = $1 AND deleted_at IS NULL",
		id,
	).Scan(&video)
	if err != nil {
		return nil, recordSpanError(span, mapRowError(err, "question", formatID(id)))
	}
	return video, nil
}

// GetQuestionSchemaInitialSQL returns the initial SQL of the schema a
// question runs against. A question without a schema, like a deleted
// question, reports not found.
func (s *Store) GetQuestionSchemaInitialSQL(ctx context.Context, id int64) (string, error) {
	ctx, span := s.startSpan(ctx, "GetQuestionSchemaInitialSQL", attribute.Int64("catalog.question.id", id))
	defer span.End()

	if err := checkPositiveID(id); err != nil {
		return "", recordSpanError(span, err)
	}

	var initialSQL string
	err := s.db.QueryRow(ctx,
		"SELECT initial_sql FROM dp_questions JOIN dp_schemas USING (schema_id) WHERE question_id = $1 AND dp_questions.deleted_at IS NULL",
		id,
	).Scan(&initialSQL)
	if err != nil {
		return "", recordSpanError(span, mapRowError(err, "question", formatID(id)))
	}
	return initialSQL, nil
}

// GetSchema returns a schema by id.
func (s *Store) GetSchema(ctx context.Context, schemaID string) (*Schema, error) {
	ctx, span := s.startSpan(ctx, "GetSchema", attribute.String("catalog.schema.id", schemaID))
	defer span.End()

	row := s.db.QueryRow(ctx,
		"SELECT schema_id, picture, description, created_at, updated_at FROM dp_schemas WHERE schema_id = $1",
		schemaID,
	)

	var sc Schema
	err := row.Scan(&sc.ID, &sc.Picture, &sc.Description, &sc.CreatedAt, &sc.UpdatedAt)
	if err != nil {
		return nil, recordSpanError(span, mapRowError(err, "schema", schemaID))
	}
	return &sc, nil
}

// GetSchemaInitialSQL returns the initial SQL for a schema.
func (s *Store) GetSchemaInitialSQL(ctx context.Context, schemaID string) (string, error) {
	ctx, span := s.startSpan(ctx, "GetSchemaInitialSQL", attribute.String("catalog.schema.id", schemaID))
	defer span.End()

	var initialSQL string
	err := s.db.QueryRow(ctx,
		"SELECT initial_sql FROM dp_schemas WHERE schema_id = $1",
		schemaID,
	).Scan(&initialSQL)
	if err != nil {
		return "", recordSpanError(span, mapRowError(err, "schema", schemaID))
	}
	return initialSQL, nil
}

// GetOrInitializeUser returns the user for a credential subject, creating
// the account on first contact. A soft-deleted account is never revived;
// the error carries [ErrUserDeleted] in its chain.
func (s *Store) GetOrInitializeUser(ctx context.Context, userID string) (*User, error) {
	ctx, span := s.startSpan(ctx, "GetOrInitializeUser", attribute.String("catalog.user.id", userID))
	defer span.End()

	var u User
	err := s.db.QueryRow(ctx,
		"SELECT user_id, group_id, created_at, updated_at, deleted_at FROM dp_users WHERE user_id = $1",
		userID,
	).Scan(&u.ID, &u.GroupID, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	switch {
	case err == nil:
		if u.DeletedAt != nil {
			return nil, recordSpanError(span, apperrors.WrapInternal(ErrUserDeleted, "An internal error occurred"))
		}
		return &u, nil
	case errors.Is(err, pgx.ErrNoRows):
		// First contact; fall through to the insert.
	default:
		return nil, recordSpanError(span, apperrors.WrapInternal(err, "An internal error occurred"))
	}

	err = s.db.QueryRow(ctx,
		"INSERT INTO dp_users (user_id) VALUES ($1) RETURNING user_id, group_id, created_at, updated_at, deleted_at",
		userID,
	).Scan(&u.ID, &u.GroupID, &u.CreatedAt, &u.UpdatedAt, &u.DeletedAt)
	if err != nil {
		return nil, recordSpanError(span, apperrors.WrapInternal(err, "An internal error occurred"))
	}
	span.SetAttributes(attribute.Bool("catalog.user.initialized", true))
	return &u, nil
}

// DeleteUser soft-deletes a user account.
func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	ctx, span := s.startSpan(ctx, "DeleteUser", attribute.String("catalog.user.id", userID))
	defer span.End()

	tag, err := s.db.Exec(ctx,
		"UPDATE dp_users SET deleted_at = now() WHERE user_id = $1 AND deleted_at IS NULL",
		userID,
	)
	if err != nil {
		return recordSpanError(span, apperrors.WrapInternal(err, "An internal error occurred"))
	}
	if tag.RowsAffected() == 0 {
		return recordSpanError(span, apperrors.NotFound("user", userID))
	}
	return nil
}

// AssignUserToGroup moves a user into a group. The group must exist and
// the user must not be soft-deleted.
func (s *Store) AssignUserToGroup(ctx context.Context, userID string, groupID int64) error {
	ctx, span := s.startSpan(ctx, "AssignUserToGroup",
		attribute.String("catalog.user.id", userID),
		attribute.Int64("catalog.group.id", groupID),
	)
	defer span.End()

	if _, err := s.GetGroup(ctx, groupID); err != nil {
		return recordSpanError(span, err)
	}

	tag, err := s.db.Exec(ctx,
		"UPDATE dp_users SET group_id = $1, updated_at = now() WHERE user_id = $2 AND deleted_at IS NULL",
		groupID, userID,
	)
	if err != nil {
		return recordSpanError(span, apperrors.WrapInternal(err, "An internal error occurred"))
	}
	if tag.RowsAffected() == 0 {
		return recordSpanError(span, apperrors.NotFound("user", userID))
	}
	return nil
}

// CreateGroup creates a group and returns its id. An empty description is
// stored as the empty string.
func (s *Store) CreateGroup(ctx context.Context, name, description string) (int64, error) {
	ctx, span := s.startSpan(ctx, "CreateGroup", attribute.String("catalog.group.name", name))
	defer span.End()

	var groupID int64
	err := s.db.QueryRow(ctx,
		"INSERT INTO dp_groups (name, description) VALUES ($1, $2) RETURNING group_id",
		name, description,
	).Scan(&groupID)
	if err != nil {
		return 0, recordSpanError(span, apperrors.WrapInternal(err, "An internal error occurred"))
	}
	span.SetAttributes(attribute.Int64("catalog.group.id", groupID))
	return groupID, nil
}

// GetGroup returns a group by id, skipping soft-deleted groups.
func (s *Store) GetGroup(ctx context.Context, id int64) (*Group, error) {
	ctx, span := s.startSpan(ctx, "GetGroup", attribute.Int64("catalog.group.id", id))
	defer span.End()

	if err := checkPositiveID(id); err != nil {
		return nil, recordSpanError(span, err)
	}

	var g Group
	err := s.db.QueryRow(ctx,
		"SELECT group_id, name, description, created_at, updated_at FROM dp_groups WHERE group_id = $1 AND deleted_at IS NULL",
		id,
	).Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, recordSpanError(span, mapRowError(err, "group", formatID(id)))
	}
	return &g, nil
}

// RecordAttempt stores a submission event for audit and progress tracking.
func (s *Store) RecordAttempt(ctx context.Context, userID string, questionID int64, query string, status AttemptStatus) error {
	ctx, span := s.startSpan(ctx, "RecordAttempt",
		attribute.String("catalog.user.id", userID),
		attribute.Int64("catalog.question.id", questionID),
		attribute.String("catalog.attempt.status", string(status)),
	)
	defer span.End()

	_, err := s.db.Exec(ctx,
		"INSERT INTO dp_attempt_events (user_id, question_id, query, status) VALUES ($1, $2, $3, $4)",
		userID, questionID, query, string(status),
	)
	if err != nil {
		return recordSpanError(span, apperrors.WrapInternal(err, "An internal error occurred"))
	}
	return nil
}

// RecordSolutionView stores a solution-access event.
func (s *Store) RecordSolutionView(ctx context.Context, userID string, questionID int64) error {
	ctx, span := s.startSpan(ctx, "RecordSolutionView",
		attribute.String("catalog.user.id", userID),
		attribute.Int64("catalog.question.id", questionID),
	)
	defer span.End()

	_, err := s.db.Exec(ctx,
		"INSERT INTO dp_solution_events (user_id, question_id) VALUES ($1, $2)",
		userID, questionID,
	)
	if err != nil {
		return recordSpanError(span, apperrors.WrapInternal(err, "An internal error occurred"))
	}
	return nil
}

func scanQuestion(row pgx.Row, q *Question) error {
	return row.Scan(&q.ID, &q.SchemaID, &q.Type, &q.Difficulty, &q.Title, &q.Description, &q.CreatedAt, &q.UpdatedAt)
}

// checkPositiveID rejects non-positive numeric ids before they reach the
// database.
func checkPositiveID(id int64) error {
	if id <= 0 {
		return apperrors.WrapInternal(ErrNotPositiveID, "An internal error occurred")
	}
	return nil
}

// mapRowError converts a row-scan error into the shared taxonomy: a miss
// becomes not-found, everything else the generic internal error.
func mapRowError(err error, entity, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NotFound(entity, id)
	}
	return apperrors.WrapInternal(err, "An internal error occurred")
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *Store) startSpan(ctx context.Context, operationName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	ctx, span := s.tracer.Start(ctx, "catalog."+operationName,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(attrs...)
	return ctx, span
}

// recordSpanError records err on the span and returns it unchanged.
func recordSpanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}
