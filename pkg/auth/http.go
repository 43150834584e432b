package auth

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
)

// bearerPrefix is the standard "Bearer " prefix for authorization tokens.
const bearerPrefix = "Bearer "

// ExtractBearerToken extracts the token from an authorization header value.
// It handles the "Bearer " prefix case-insensitively. Returns an empty
// string when the header is absent, carries a different scheme, or has no
// token after the prefix.
func ExtractBearerToken(authHeader string) string {
	if len(authHeader) <= len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(authHeader[len(bearerPrefix):])
}

// TokenValidator validates a raw bearer token and produces a credential.
// *Validator implements this interface.
type TokenValidator interface {
	Validate(ctx context.Context, rawToken string) (*Credential, error)
}

// HTTPMiddleware returns an HTTP middleware that extracts and validates
// the caller's credential from the Authorization header.
//
// Requests without an Authorization header proceed as anonymous: no
// credential is stored in the context, and per-operation scope checks
// decide whether the request may continue. A header that is present but
// fails validation ends the request immediately with the validator's
// error rendered as JSON.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/api/questions", handleQuestions)
//	handler := auth.HTTPMiddleware(validator)(mux)
//	http.ListenAndServe(":8080", handler)
func HTTPMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				// Anonymous request. Scope checks downstream reject it if
				// the operation needs a credential.
				next.ServeHTTP(w, r)
				return
			}

			cred, err := validator.Validate(r.Context(), token)
			if err != nil {
				writeErrorResponse(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithCredential(r.Context(), cred)))
		})
	}
}

// writeErrorResponse renders err as a JSON error body with the status
// code matching its error code.
func writeErrorResponse(w http.ResponseWriter, err error) {
	appErr := apperrors.Normalize(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code.HTTPStatus())
	body, marshalErr := appErr.MarshalJSON()
	if marshalErr != nil {
		return
	}
	_, _ = w.Write(body)
}
