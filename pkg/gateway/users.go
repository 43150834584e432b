package gateway

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sqlground/sqlground-core/pkg/auth"
	"github.com/sqlground/sqlground-core/pkg/catalog"
	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
)

// CurrentUser returns the account for the caller's token subject, creating
// it on first contact. Requires an authenticated credential; no scope
// beyond that.
func (s *Service) CurrentUser(ctx context.Context) (*catalog.User, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.CurrentUser")
	defer span.End()

	cred := auth.CredentialFromContext(ctx)
	if cred == nil || cred.Subject == "" {
		return nil, recordSpanError(span, apperrors.Unauthorized("You must provide a credential to access this API."))
	}
	return s.catalog.GetOrInitializeUser(ctx, cred.Subject)
}

// RemoveUser soft-deletes a user account. Requires the write:resource
// scope.
func (s *Service) RemoveUser(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "gateway.RemoveUser")
	defer span.End()
	span.SetAttributes(attribute.String("gateway.user.id", userID))

	if err := auth.Require(auth.CredentialFromContext(ctx), auth.ScopeWriteResource); err != nil {
		return recordSpanError(span, err)
	}
	return s.catalog.DeleteUser(ctx, userID)
}

// CreateGroup creates a group and returns its id. Requires the
// write:resource scope.
func (s *Service) CreateGroup(ctx context.Context, name, description string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.CreateGroup")
	defer span.End()

	if err := auth.Require(auth.CredentialFromContext(ctx), auth.ScopeWriteResource); err != nil {
		return 0, recordSpanError(span, err)
	}
	return s.catalog.CreateGroup(ctx, name, description)
}

// Group returns a group. Requires the read:resource scope.
func (s *Service) Group(ctx context.Context, id int64) (*catalog.Group, error) {
	ctx, span := s.tracer.Start(ctx, "gateway.Group")
	defer span.End()
	span.SetAttributes(attribute.Int64("gateway.group.id", id))

	if err := auth.Require(auth.CredentialFromContext(ctx), auth.ScopeReadResource); err != nil {
		return nil, recordSpanError(span, err)
	}
	return s.catalog.GetGroup(ctx, id)
}

// AssignUserToGroup moves a user into a group. Requires the write:resource
// scope.
func (s *Service) AssignUserToGroup(ctx context.Context, userID string, groupID int64) error {
	ctx, span := s.tracer.Start(ctx, "gateway.AssignUserToGroup")
	defer span.End()
	span.SetAttributes(
		attribute.String("gateway.user.id", userID),
		attribute.Int64("gateway.group.id", groupID),
	)

	if err := auth.Require(auth.CredentialFromContext(ctx), auth.ScopeWriteResource); err != nil {
		return recordSpanError(span, err)
	}
	return s.catalog.AssignUserToGroup(ctx, userID, groupID)
}
