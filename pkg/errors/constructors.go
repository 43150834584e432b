package errors

import "fmt"

// New creates an Error with the given code, title, and details.
func New(code Code, title, details string) *Error {
	return &Error{
		Code:    code,
		Title:   title,
		Details: details,
	}
}

// Newf creates an Error with formatted details.
func Newf(code Code, title, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Title:   title,
		Details: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error that retains err as its cause. The cause is kept
// for logs only; title and details are what callers see. If err is nil,
// Wrap returns nil.
func Wrap(err error, code Code, title, details string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Title:   title,
		Details: details,
		Cause:   err,
	}
}

// NotFound creates the standard catalog-miss error. The entity name and id
// are interpolated into the details, matching the gateway's API contract.
//
// Example:
//
//	return errors.NotFound("question", "42")
func NotFound(entity, id string) *Error {
	return Newf(CodeNotFound, "No resource", "%s with id %s not found", entity, id)
}

// Internal creates a generic internal error. Use [WrapInternal] when there
// is an underlying cause worth logging.
func Internal(details string) *Error {
	return New(CodeInternal, "Internal error", details)
}

// WrapInternal wraps a transport or collaborator failure as INTERNAL_ERROR.
// The raw error text stays server-side; details should be a generic,
// non-leaking message such as "Unable to run your query.". If err is nil,
// WrapInternal returns nil.
func WrapInternal(err error, details string) *Error {
	return Wrap(err, CodeInternal, "Internal error", details)
}

// Unauthorized creates an UNAUTHORIZED error with the given details.
func Unauthorized(details string) *Error {
	return New(CodeUnauthorized, "Unauthorized", details)
}

// InvalidToken creates the single outward credential-validation error.
// All validation failures (malformed header, unknown key, bad signature,
// wrong issuer or audience, expired, not yet valid) collapse to this one
// error so callers cannot probe which check failed. The specific cause is
// retained for logs when non-nil.
func InvalidToken(cause error) *Error {
	return &Error{
		Code:    CodeInvalidToken,
		Title:   "Invalid token",
		Details: "The provided credential could not be validated.",
		Cause:   cause,
	}
}

// InvalidQuery creates an INVALID_QUERY error carrying the execution
// service's message verbatim. The message describes the user's own SQL,
// so disclosure is safe and helpful.
func InvalidQuery(details string, cause error) *Error {
	return &Error{
		Code:    CodeInvalidQuery,
		Title:   "Invalid query",
		Details: details,
		Cause:   cause,
	}
}
