package errors

import "net/http"

// Code is a machine-readable error code. The set is fixed by the gateway's
// API contract: codes are stable, unique, and safe for clients to match on.
type Code string

const (
	// CodeNotFound indicates a catalog lookup missed. The entity name and
	// id are carried in the error details.
	CodeNotFound Code = "NOT_FOUND"

	// CodeInternal indicates a failure the user did not cause: transport
	// errors, unreachable collaborators, protocol violations. Details are
	// generic; the cause is retained for logs only.
	CodeInternal Code = "INTERNAL_ERROR"

	// CodeUnauthorized indicates a missing credential or one lacking the
	// scope a protected operation requires.
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeInvalidToken indicates the presented bearer token failed
	// validation. Which check failed is deliberately not disclosed.
	CodeInvalidToken Code = "INVALID_JWT_TOKEN"

	// CodeInvalidQuery indicates the execution service rejected the
	// submitted SQL, or its execution failed at runtime. The service's
	// message is passed through verbatim.
	CodeInvalidQuery Code = "INVALID_QUERY"
)

// String returns the string representation of the error code.
func (c Code) String() string {
	return string(c)
}

// Valid reports whether the code is one of the fixed set.
func (c Code) Valid() bool {
	switch c {
	case CodeNotFound, CodeInternal, CodeUnauthorized, CodeInvalidToken, CodeInvalidQuery:
		return true
	default:
		return false
	}
}

// HTTPStatus returns the HTTP status a serving layer should use for the code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized, CodeInvalidToken:
		return http.StatusUnauthorized
	case CodeInvalidQuery:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
