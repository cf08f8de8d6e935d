package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubmission() *Submission {
	return &Submission{
		ID:       "sub-123",
		Endpoint: "contact",
		Category: "booking",
		Fields: map[string]any{
			"name":    "Jane Doe",
			"email":   "jane@example.com",
			"message": "Looking to book the main hall in June.",
		},
		ReceivedAt: time.Date(2026, 6, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestWebhookChannel_Send(t *testing.T) {
	var received Submission
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ch := NewWebhookChannel(server.URL, 5*time.Second)
	require.NoError(t, ch.Send(context.Background(), testSubmission()))

	assert.Equal(t, "sub-123", received.ID)
	assert.Equal(t, "booking", received.Category)
}

func TestWebhookChannel_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ch := NewWebhookChannel(server.URL, 5*time.Second)
	err := ch.Send(context.Background(), testSubmission())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestWebhookChannel_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ch := NewWebhookChannel(server.URL, 20*time.Millisecond)
	err := ch.Send(context.Background(), testSubmission())
	assert.Error(t, err)
}

func TestMailChannel_Compose(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	ch := NewMailChannel("smtp.example.com", 587, "user", "pass", "noreply@example.com", "events@example.com")
	ch.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, ch.Send(context.Background(), testSubmission()))

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"events@example.com"}, gotTo)

	body := string(gotMsg)
	assert.Contains(t, body, "Subject: New contact submission [booking]")
	assert.Contains(t, body, "name: Jane Doe")
	assert.Contains(t, body, "message: Looking to book the main hall in June.")
}

func TestMailChannel_SendError(t *testing.T) {
	ch := NewMailChannel("smtp.example.com", 587, "", "", "a@b.c", "d@e.f")
	ch.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}

	err := ch.Send(context.Background(), testSubmission())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send mail")
}

func TestMailChannel_CancelledContext(t *testing.T) {
	ch := NewMailChannel("smtp.example.com", 587, "", "", "a@b.c", "d@e.f")
	ch.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		t.Fatal("send should not be called with cancelled context")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, ch.Send(ctx, testSubmission()))
}

func TestLogChannel_Send(t *testing.T) {
	var logged string
	ch := NewLogChannel(func(format string, v ...interface{}) {
		logged = format
	})

	require.NoError(t, ch.Send(context.Background(), testSubmission()))
	assert.True(t, strings.HasPrefix(logged, "SUBMISSION ACCEPTED"))
}

type stubChannel struct {
	name string
	err  error
	sent int
}

func (s *stubChannel) Send(ctx context.Context, sub *Submission) error {
	s.sent++
	return s.err
}

func (s *stubChannel) Type() string { return s.name }

func TestMultiChannel_PartialFailureSucceeds(t *testing.T) {
	ok := &stubChannel{name: "ok"}
	bad := &stubChannel{name: "bad", err: errors.New("down")}

	var failures []string
	multi := NewMultiChannel(func(channelType string, err error) {
		failures = append(failures, channelType)
	}, bad, ok)

	require.NoError(t, multi.Send(context.Background(), testSubmission()))
	assert.Equal(t, 1, ok.sent)
	assert.Equal(t, 1, bad.sent)
	assert.Equal(t, []string{"bad"}, failures)
}

func TestMultiChannel_AllFailed(t *testing.T) {
	a := &stubChannel{name: "a", err: errors.New("down")}
	b := &stubChannel{name: "b", err: errors.New("also down")}

	multi := NewMultiChannel(nil, a, b)
	err := multi.Send(context.Background(), testSubmission())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all dispatch channels failed")
}
