package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewell-labs/formgate/internal/config"
	"github.com/gatewell-labs/formgate/internal/dispatch"
	"github.com/gatewell-labs/formgate/internal/logging"
	"github.com/gatewell-labs/formgate/internal/models"
	"github.com/gatewell-labs/formgate/internal/ratelimit"
	"github.com/gatewell-labs/formgate/internal/repository"
	"github.com/gatewell-labs/formgate/internal/service"
	"github.com/gatewell-labs/formgate/internal/spam"
)

func testConfig() *config.Config {
	return &config.Config{
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		},
		Admission: config.AdmissionConfig{MaxBodyBytes: 1 << 20},
		RateLimit: config.RateLimitConfig{
			Enabled:        true,
			MaxSubmissions: 3,
			Window:         time.Minute,
		},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*httptest.Server, *repository.InMemoryStore) {
	t.Helper()

	checker, err := spam.NewChecker(spam.Config{})
	require.NoError(t, err)

	store := repository.NewInMemoryStore()
	logger := logging.New(slog.LevelError, "text")
	svc := service.NewSubmissionService(store, dispatch.NewLogChannel(func(format string, v ...interface{}) {}), time.Second, logger)

	router := NewRouter(Options{
		Config:   cfg,
		Logger:   logger,
		Checker:  checker,
		Executor: svc,
		NewStore: func(limit int, window time.Duration) ratelimit.Store {
			return ratelimit.NewMemoryStore(limit, window)
		},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, store
}

func postJSON(t *testing.T, url string, payload map[string]any) (*http.Response, models.APIResponse) {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope models.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return resp, envelope
}

func contactPayload(email string) map[string]any {
	return map[string]any{
		"name":    "Jane Doe",
		"email":   email,
		"message": "Is the venue available for a reception in June?",
	}
}

func TestValidSubmissionAccepted(t *testing.T) {
	srv, store := newTestServer(t, testConfig())

	resp, envelope := postJSON(t, srv.URL+"/api/contact", contactPayload("jane@example.com"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, envelope.Success)
	assert.NotEmpty(t, envelope.RequestID)
	require.NotNil(t, envelope.Data)

	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, "booking", data["category"])

	leads, err := store.ListLeads(context.Background(), "contact", 0)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "jane@example.com", leads[0].Email)
}

func TestRateLimitAfterThree(t *testing.T) {
	srv, store := newTestServer(t, testConfig())

	for i := 0; i < 3; i++ {
		resp, _ := postJSON(t, srv.URL+"/api/contact", contactPayload("repeat@example.com"))
		require.Equal(t, http.StatusOK, resp.StatusCode, "submission %d should pass", i+1)
	}

	resp, envelope := postJSON(t, srv.URL+"/api/contact", contactPayload("repeat@example.com"))

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.False(t, envelope.Success)
	assert.Equal(t, models.ErrorRateLimited.Message(), envelope.Error)
	assert.Nil(t, envelope.FieldErrors)

	// The fourth submission never reached the store.
	leads, err := store.ListLeads(context.Background(), "contact", 0)
	require.NoError(t, err)
	assert.Len(t, leads, 3)
}

func TestScriptTagRejectedGenerically(t *testing.T) {
	srv, store := newTestServer(t, testConfig())

	payload := contactPayload("jane@example.com")
	payload["message"] = `Hello <script>alert("pwned")</script> let me in please`

	resp, envelope := postJSON(t, srv.URL+"/api/contact", payload)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, envelope.Success)
	assert.Equal(t, models.ErrorSpamDetected.Message(), envelope.Error)
	assert.Nil(t, envelope.FieldErrors)
	assert.NotContains(t, envelope.Error, "script")
	assert.NotContains(t, envelope.Error, "keyword")

	leads, err := store.ListLeads(context.Background(), "contact", 0)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestUnsupportedContentType(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	resp, err := http.Post(srv.URL+"/api/contact", "text/plain", bytes.NewReader([]byte("name=Jane")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	var envelope models.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, models.ErrorUnsupportedContentType.Message(), envelope.Error)
}

func TestMethodNotAllowedEnvelope(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	resp, err := http.Get(srv.URL + "/api/contact")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	var envelope models.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, models.ErrorMethodNotAllowed.Message(), envelope.Error)
	assert.NotEmpty(t, envelope.RequestID)
}

func TestValidationErrorsPerField(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	resp, envelope := postJSON(t, srv.URL+"/api/contact", map[string]any{
		"name": "J", "email": "nope", "message": "short",
	})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, envelope.Success)
	assert.Len(t, envelope.FieldErrors, 3)
}

func TestSecurityHeadersOnEveryResponse(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	resp, err := http.Get(srv.URL + "/api/contact")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/contact", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.com")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimitEndpointOverride(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Overrides = map[string]config.EndpointLimit{
		"newsletter": {MaxSubmissions: 1, Window: time.Minute},
	}
	srv, _ := newTestServer(t, cfg)

	payload := map[string]any{"email": "sub@example.com", "consent": true}

	resp, _ := postJSON(t, srv.URL+"/api/newsletter", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = postJSON(t, srv.URL+"/api/newsletter", payload)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
