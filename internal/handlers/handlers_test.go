package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewell-labs/formgate/internal/logging"
	"github.com/gatewell-labs/formgate/internal/models"
	"github.com/gatewell-labs/formgate/internal/pipeline"
	"github.com/gatewell-labs/formgate/internal/ratelimit"
	"github.com/gatewell-labs/formgate/internal/schema"
	"github.com/gatewell-labs/formgate/internal/spam"
)

type okExecutor struct{}

func (okExecutor) Execute(ctx context.Context, endpoint string, values map[string]any) (*models.SubmissionResult, error) {
	return &models.SubmissionResult{ID: "lead-1"}, nil
}

func newContactHandler(t *testing.T, maxBody int64) *FormHandler {
	t.Helper()
	checker, err := spam.NewChecker(spam.Config{})
	require.NoError(t, err)

	p := pipeline.New(pipeline.Options{
		Form:             schema.ContactForm(),
		Limiter:          ratelimit.NewLimiter(ratelimit.NewMemoryStore(100, time.Minute), false, nil),
		Checker:          checker,
		Executor:         okExecutor{},
		MaxBodyBytes:     maxBody,
		RateLimitEnabled: true,
		Logger:           logging.New(slog.LevelError, "text"),
	})
	return NewFormHandler("contact", p, logging.New(slog.LevelError, "text"), false)
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.0.2.1:54321",
			want:       "192.0.2.1",
		},
		{
			name:       "x-forwarded-for single",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5"},
			want:       "203.0.113.5",
		},
		{
			name:       "x-forwarded-for chain uses first hop",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2, 10.0.0.3"},
			want:       "203.0.113.5",
		},
		{
			name:       "x-real-ip fallback",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "198.51.100.4"},
			want:       "198.51.100.4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/contact", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	h := newContactHandler(t, 64)

	big := map[string]any{
		"name":    "Jane Doe",
		"email":   "jane@example.com",
		"message": strings.Repeat("a very long message ", 50),
	}
	body, err := json.Marshal(big)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/contact", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	var envelope models.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, models.ErrorPayloadTooLarge.Message(), envelope.Error)
}

func TestChunkedOversizedBodyRejected(t *testing.T) {
	h := newContactHandler(t, 64)

	// httptest.NewRequest with a reader of unknown length leaves
	// ContentLength unset, forcing the read-side cap to catch it.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/contact", strings.NewReader(strings.Repeat("x", 500)))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}
