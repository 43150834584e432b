package errors

import "errors"

// AsError attempts to convert an error to an *Error by traversing the
// error chain. Returns the Error and true on success.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetCode returns the error code from an error, or the empty string if the
// error is nil or not an *Error.
func GetCode(err error) Code {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// HasCode reports whether the error carries the given code.
func HasCode(err error, code Code) bool {
	return GetCode(err) == code
}

// IsNotFound reports whether the error is a catalog miss.
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsAuth reports whether the error is an authentication or authorization
// failure (UNAUTHORIZED or INVALID_JWT_TOKEN).
func IsAuth(err error) bool {
	code := GetCode(err)
	return code == CodeUnauthorized || code == CodeInvalidToken
}

// Normalize converts any error into an *Error. Errors that already carry a
// code pass through unchanged; everything else becomes a generic
// INTERNAL_ERROR with the original retained as cause. This is the last
// line of defense at the caller-facing boundary: no raw error text from a
// library or transport escapes it.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := AsError(err); ok {
		return e
	}
	return WrapInternal(err, "An internal error occurred")
}
