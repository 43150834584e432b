// Package errors provides the standardized error type used across the
// sqlground gateway. Every failure that crosses a component boundary is
// converted into an [*Error] carrying a stable machine-readable code, a
// short human-readable title, and user-facing details.
//
// # Error Codes
//
// The code set is fixed and small; clients match on it programmatically:
//
//   - NOT_FOUND — a catalog lookup missed (entity and id are interpolated
//     into the details)
//   - INTERNAL_ERROR — transport failures, unreachable collaborators, and
//     anything else the user did not cause; details are deliberately generic
//   - UNAUTHORIZED — no credential, or a credential lacking a required scope
//   - INVALID_JWT_TOKEN — the presented bearer token failed validation
//   - INVALID_QUERY — the execution service rejected the submitted SQL;
//     the service's own message is passed through because it describes the
//     user's input
//
// # Cause Retention
//
// The wrapped cause is kept for server-side logs and telemetry only. It is
// reachable through [Error.Unwrap] and the %+v format verb, but it is never
// part of [Error.Error] user-facing fields and is excluded from JSON
// serialization, so internal error chains cannot leak to callers.
//
// # Usage
//
// Create an error at a component boundary:
//
//	return errors.NotFound("question", strconv.FormatInt(id, 10))
//
// Wrap a transport failure without disclosing it:
//
//	return errors.WrapInternal(err, "Unable to run your query.")
//
// Check the code:
//
//	if errors.HasCode(err, errors.CodeNotFound) {
//	    // 404 path
//	}
package errors
