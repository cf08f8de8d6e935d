// Package handlers adapts HTTP requests into pipeline envelopes and pipeline
// outcomes back into the response envelope.
package handlers

import (
	"io"
	"mime"
	"net"
	"net/http"
	"strings"

	"github.com/gatewell-labs/formgate/internal/httputil"
	"github.com/gatewell-labs/formgate/internal/logging"
	"github.com/gatewell-labs/formgate/internal/metrics"
	"github.com/gatewell-labs/formgate/internal/models"
	"github.com/gatewell-labs/formgate/internal/pipeline"
)

// FormHandler serves one form endpoint backed by one pipeline.
type FormHandler struct {
	endpoint string
	pipeline *pipeline.Pipeline
	logger   *logging.Logger
	devMode  bool
}

// NewFormHandler creates a handler for the named endpoint.
func NewFormHandler(endpoint string, p *pipeline.Pipeline, logger *logging.Logger, devMode bool) *FormHandler {
	return &FormHandler{
		endpoint: endpoint,
		pipeline: p,
		logger:   logger,
		devMode:  devMode,
	}
}

// ServeHTTP handles any method; the pipeline itself rejects non-POST so the
// caller still receives the uniform envelope on a 405.
func (h *FormHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	env, kind := h.buildEnvelope(r)
	if kind == models.ErrorNone {
		out := h.pipeline.Process(ctx, env)
		kind = out.Kind

		if kind == models.ErrorNone {
			metrics.SubmissionsTotal.WithLabelValues(h.endpoint, "accepted").Inc()
			h.logger.InfoContext(ctx, "submission processed",
				logging.Endpoint(h.endpoint),
				logging.IP(env.ClientIP),
				logging.Status(http.StatusOK),
			)
			httputil.WriteSuccess(w, r, out.Data, "Submission received")
			return
		}

		metrics.SubmissionsTotal.WithLabelValues(h.endpoint, "rejected").Inc()
		h.logger.InfoContext(ctx, "submission rejected",
			logging.Endpoint(h.endpoint),
			logging.IP(env.ClientIP),
			logging.Status(kind.HTTPStatus()),
			"kind", string(kind),
		)

		detail := ""
		if h.devMode {
			detail = out.Detail
		}
		httputil.WriteFailure(w, r, kind, out.FieldErrors, detail)
		return
	}

	metrics.SubmissionsTotal.WithLabelValues(h.endpoint, "rejected").Inc()
	metrics.RejectionsTotal.WithLabelValues(h.endpoint, string(kind)).Inc()
	httputil.WriteFailure(w, r, kind, nil, "")
}

// buildEnvelope reads the body under the admission cap. Reading is bounded at
// cap+1 so an oversized body is detected without buffering all of it.
func (h *FormHandler) buildEnvelope(r *http.Request) (*models.RequestEnvelope, models.ErrorKind) {
	// Method violations take precedence over size, so the body is not read
	// for non-POST requests.
	if r.Method != http.MethodPost {
		return &models.RequestEnvelope{
			Method:      r.Method,
			ContentType: r.Header.Get("Content-Type"),
			ClientIP:    getClientIP(r),
		}, models.ErrorNone
	}

	// Content-type violations likewise outrank size.
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		return &models.RequestEnvelope{
			Method:      r.Method,
			ContentType: r.Header.Get("Content-Type"),
			ClientIP:    getClientIP(r),
		}, models.ErrorNone
	}

	maxBody := h.pipeline.MaxBodyBytes()

	if r.ContentLength > maxBody {
		return nil, models.ErrorPayloadTooLarge
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		return nil, models.ErrorInternalFailure
	}
	if int64(len(body)) > maxBody {
		return nil, models.ErrorPayloadTooLarge
	}

	return &models.RequestEnvelope{
		Method:        r.Method,
		ContentType:   r.Header.Get("Content-Type"),
		ContentLength: int64(len(body)),
		Body:          body,
		ClientIP:      getClientIP(r),
	}, models.ErrorNone
}

// getClientIP extracts the originating address, honoring X-Forwarded-For and
// X-Real-IP set by the reverse proxy.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}

	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
