package errors

import (
	"encoding/json"
	"fmt"
)

// Error is the structured error that crosses every component boundary in
// the gateway. It pairs a stable [Code] with a short Title and user-facing
// Details, and optionally retains the underlying Cause.
//
// Error is designed to be:
//   - Immutable: fields are not modified after creation
//   - Chainable: Cause is reachable via Unwrap for errors.Is/As
//   - Non-leaking: Cause is excluded from Error() output and JSON
type Error struct {
	// Code is the machine-readable error code (e.g., "INVALID_QUERY").
	Code Code

	// Title is a short human-readable summary (e.g., "Invalid query").
	Title string

	// Details is the user-facing explanation. It must not contain internal
	// error text except where the code's contract allows disclosure
	// (INVALID_QUERY and NOT_FOUND).
	Details string

	// Cause is the underlying error, if any. Retained for server-side
	// logging and telemetry; never serialized toward callers.
	Cause error
}

// Error implements the error interface. The cause is intentionally not
// included so that formatting an Error with %v or %s stays safe to show.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Title, e.Details)
}

// Unwrap returns the underlying cause, supporting errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Format implements fmt.Formatter. %v and %s print the user-safe form;
// %+v appends the cause chain for logs.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprint(s, e.Error())
			if e.Cause != nil {
				fmt.Fprintf(s, "\ncause: %+v", e.Cause)
			}
			return
		}
		fallthrough
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// MarshalJSON serializes the code, title, and details only. The cause never
// crosses into a response body.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code    string `json:"code"`
		Title   string `json:"title"`
		Details string `json:"details"`
	}{
		Code:    string(e.Code),
		Title:   e.Title,
		Details: e.Details,
	})
}
