package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sqlground/sqlground-core/pkg/catalog"
	apperrors "github.com/sqlground/sqlground-core/pkg/errors"
	"github.com/sqlground/sqlground-core/pkg/gateway"
)

// registerRoutes binds the gateway operations to a plain JSON surface.
// The platform's primary API is the GraphQL layer deployed in front of
// this service; these routes carry the same semantics for direct access
// and smoke testing.
func registerRoutes(mux *http.ServeMux, svc *gateway.Service, logger *slog.Logger) {
	mux.HandleFunc("GET /v1/questions", func(w http.ResponseWriter, r *http.Request) {
		cursor := cursorFromQuery(r)
		questions, err := svc.Questions(r.Context(), cursor)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, map[string]any{"questions": questions})
	})

	mux.HandleFunc("GET /v1/questions/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, logger, apperrors.NotFound("question", r.PathValue("id")))
			return
		}
		question, err := svc.Question(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, question)
	})

	mux.HandleFunc("POST /v1/questions/{id}/execute", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			writeError(w, logger, apperrors.NotFound("question", r.PathValue("id")))
			return
		}

		var body struct {
			SQL         string `json:"sql"`
			IncludeRows bool   `json:"include_rows"`
			CheckAnswer bool   `json:"check_answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, logger, apperrors.InvalidQuery("The request body must be JSON with a \"sql\" field.", err))
			return
		}

		result, err := svc.Execute(r.Context(), id, body.SQL)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		switch res := result.(type) {
		case *gateway.ExecutionFailed:
			writeJSON(w, logger, http.StatusOK, map[string]any{"error": res.Error})
		case *gateway.ExecutionSuccess:
			response := map[string]any{"handle": res.Handle}

			// Rows are streamed from the execution service only on
			// request; a submission that just wants the verdict never
			// transfers the result set.
			if body.IncludeRows {
				table, err := res.Rows(r.Context())
				if err != nil {
					writeError(w, logger, err)
					return
				}
				response["columns"] = table.Columns
				response["rows"] = table.Rows
			}

			if body.CheckAnswer {
				same, err := res.SameAsAnswer(r.Context())
				if err != nil {
					writeError(w, logger, err)
					return
				}
				response["same_as_answer"] = same
			}
			writeJSON(w, logger, http.StatusOK, response)
		}
	})

	mux.HandleFunc("GET /v1/schemas/{id}", func(w http.ResponseWriter, r *http.Request) {
		schema, err := svc.Schema(r.Context(), r.PathValue("id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, schema)
	})

	mux.HandleFunc("GET /v1/me", func(w http.ResponseWriter, r *http.Request) {
		user, err := svc.CurrentUser(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, user)
	})
}

func cursorFromQuery(r *http.Request) catalog.Cursor {
	var cursor catalog.Cursor
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cursor.Offset = &v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cursor.Limit = &v
		}
	}
	return cursor
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	appErr := apperrors.Normalize(err)
	logger.Warn("request failed",
		"code", appErr.Code.String(),
		"details", appErr.Details,
		"error", err,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code.HTTPStatus())
	if encErr := json.NewEncoder(w).Encode(appErr); encErr != nil {
		logger.Warn("failed to encode error response", "error", encErr)
	}
}
