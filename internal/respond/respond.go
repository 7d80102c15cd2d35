// Package respond writes JSON response bodies, including the error shape
// shared by handlers and middleware.
package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/clefeel/storefront/internal/apperr"
)

// JSON writes v with the given status
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes {"error": message, ...details}. Internal errors are reduced
// to a generic message; debug adds the underlying cause as "detail".
func Error(w http.ResponseWriter, err error, debug bool) {
	status := apperr.HTTPStatus(apperr.KindOf(err))
	body := map[string]any{}

	if e, ok := apperr.As(err); ok && e.Kind != apperr.KindInternal {
		for k, v := range e.Details {
			body[k] = v
		}
		body["error"] = e.Message
	} else {
		body["error"] = "internal server error"
		if debug && err != nil {
			body["detail"] = err.Error()
		}
	}

	JSON(w, status, body)
}
