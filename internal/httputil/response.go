// Package httputil writes the uniform response envelope. Every response the
// gateway produces, success or failure, goes through here so the caller
// never sees a partial or untyped body.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gatewell-labs/formgate/internal/middleware"
	"github.com/gatewell-labs/formgate/internal/models"
)

// WriteSuccess writes a 200 envelope carrying data.
func WriteSuccess(w http.ResponseWriter, r *http.Request, data any, message string) {
	write(w, r, http.StatusOK, models.APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// WriteFailure writes an error envelope for the kind. fieldErrors is only
// meaningful for validation failures; detail overrides the generic message
// and must only be passed in development mode.
func WriteFailure(w http.ResponseWriter, r *http.Request, kind models.ErrorKind, fieldErrors map[string]string, detail string) {
	resp := models.APIResponse{
		Success:     false,
		Error:       kind.Message(),
		FieldErrors: fieldErrors,
	}
	if detail != "" {
		resp.Message = detail
	}
	write(w, r, kind.HTTPStatus(), resp)
}

func write(w http.ResponseWriter, r *http.Request, status int, resp models.APIResponse) {
	resp.Timestamp = time.Now().UTC().Format(time.RFC3339)
	resp.RequestID = middleware.GetRequestID(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response envelope", slog.String("error", err.Error()))
	}
}
