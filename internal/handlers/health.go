package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// Health responds to liveness probes. It bypasses the submission pipeline
// entirely.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
