package auth

import (
	"fmt"

	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
)

// Require checks that cred is present and carries the given scope.
//
// A nil credential (anonymous caller) and a credential missing the scope
// both fail with code UNAUTHORIZED, with messages that name the missing
// prerequisite but reveal nothing about the protected resource. Callers
// must invoke Require before touching any protected state so that a
// rejected request performs no work.
func Require(cred *Credential, scope Scope) error {
	if cred == nil {
		return apperrors.Unauthorized("You must provide a credential to access this API.")
	}
	if !cred.HasScope(scope) {
		return apperrors.Unauthorized(fmt.Sprintf("%s is required to perform this action", scope))
	}
	return nil
}
