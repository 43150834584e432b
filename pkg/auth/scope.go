// Package auth validates bearer credentials issued by the identity
// provider and enforces per-operation scope checks for the sqlground
// gateway.
//
// The package is organized around three pieces:
//
//   - [KeySetCache] fetches and caches the provider's published JWKS with a
//     fixed TTL and single-flight refresh, so concurrent validations never
//     trigger duplicate network fetches.
//   - [Validator] verifies a token's signature, issuer, audience, and time
//     claims against a cached key, and extracts the granted scopes into a
//     [Credential].
//   - [Require] is the scope guard: each protected operation declares the
//     one [Scope] it needs, and the guard rejects the call before any work
//     starts if the credential is absent or lacks it.
//
// Validation failures deliberately collapse to a single outward error (see
// [errors.InvalidToken]); the specific failing check is retained only as a
// wrapped cause for server-side logs.
package auth

// Scope is a named capability a caller must be granted to perform a
// protected operation. Scopes are granted by the identity provider through
// the token's space-delimited "scope" claim and checked at runtime as
// string-set membership; the set is not frozen by contract, so Scope is a
// string type rather than a closed enum.
type Scope string

// Scopes understood by the gateway. Each protected operation declares
// exactly one of these.
const (
	// ScopeReadPublic grants read access to public catalog resources
	// (question listings and question detail).
	ScopeReadPublic Scope = "read:public"

	// ScopeReadResource grants read access to protected catalog resources
	// (schemas and their setup SQL).
	ScopeReadResource Scope = "read:resource"

	// ScopeWriteResource grants write access to catalog resources
	// (group management, user removal).
	ScopeWriteResource Scope = "write:resource"

	// ScopeExecuteQuery grants the right to submit SQL for execution.
	ScopeExecuteQuery Scope = "execute:query"

	// ScopeReadAnswer grants access to a question's reference answer, its
	// solution, and the answer-equivalence check.
	ScopeReadAnswer Scope = "read:answer"
)

// String returns the scope's wire representation as it appears in the
// token's scope claim.
func (s Scope) String() string {
	return string(s)
}
