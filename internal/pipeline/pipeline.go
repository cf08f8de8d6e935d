// Package pipeline composes the defense stages for one endpoint: admission,
// schema validation, sanitation, rate limiting, anti-spam and finally the
// action executor. Data flows strictly forward; the first failing stage
// short-circuits to the response with its error kind.
package pipeline

import (
	"context"
	"encoding/json"
	"mime"
	"time"

	"github.com/gatewell-labs/formgate/internal/logging"
	"github.com/gatewell-labs/formgate/internal/metrics"
	"github.com/gatewell-labs/formgate/internal/models"
	"github.com/gatewell-labs/formgate/internal/ratelimit"
	"github.com/gatewell-labs/formgate/internal/sanitize"
	"github.com/gatewell-labs/formgate/internal/schema"
	"github.com/gatewell-labs/formgate/internal/spam"
)

// State tracks how far a request progressed. Transitions are one-way; there
// is no retry within a request.
type State string

const (
	StateReceived    State = "received"
	StateAdmitted    State = "admitted"
	StateValidated   State = "validated"
	StateSanitized   State = "sanitized"
	StateRateChecked State = "rate_checked"
	StateSpamChecked State = "spam_checked"
	StateExecuting   State = "executing"
	StateResponded   State = "responded"
)

// Abuse-control fields that ride alongside the schema fields in the raw
// payload. The honeypot is hidden from humans in the markup, so any value
// in it signals automation.
const (
	honeypotField     = "website"
	csrfTokenField    = "csrfToken"
	sessionTokenField = "sessionToken"
)

// Executor performs the business effect for a fully-cleared payload.
type Executor interface {
	Execute(ctx context.Context, endpoint string, values map[string]any) (*models.SubmissionResult, error)
}

// Outcome is the typed result handed to the response formatter. Kind is
// ErrorNone on success, in which case Data is set.
type Outcome struct {
	State       State
	Kind        models.ErrorKind
	FieldErrors map[string]string
	Data        *models.SubmissionResult
	// Detail carries the underlying error text for internal failures. The
	// handler exposes it only in development mode.
	Detail string
}

// Options configures a Pipeline for one endpoint.
type Options struct {
	Form             schema.Form
	Limiter          *ratelimit.Limiter
	Checker          *spam.Checker
	Executor         Executor
	MaxBodyBytes     int64
	RateLimitEnabled bool
	Logger           *logging.Logger
}

// Pipeline is immutable after construction and shared across requests; all
// per-request state lives in the Outcome.
type Pipeline struct {
	form             schema.Form
	limiter          *ratelimit.Limiter
	checker          *spam.Checker
	executor         Executor
	maxBodyBytes     int64
	rateLimitEnabled bool
	logger           *logging.Logger
}

func New(opts Options) *Pipeline {
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	return &Pipeline{
		form:             opts.Form,
		limiter:          opts.Limiter,
		checker:          opts.Checker,
		executor:         opts.Executor,
		maxBodyBytes:     maxBody,
		rateLimitEnabled: opts.RateLimitEnabled,
		logger:           opts.Logger,
	}
}

// MaxBodyBytes returns the admission body cap for this endpoint.
func (p *Pipeline) MaxBodyBytes() int64 {
	return p.maxBodyBytes
}

// Process runs the envelope through every stage. It never panics outward
// and always returns a well-formed Outcome.
func (p *Pipeline) Process(ctx context.Context, env *models.RequestEnvelope) (out Outcome) {
	out.State = StateReceived

	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorContext(ctx, "pipeline panic",
				logging.Endpoint(p.form.Name),
				"panic", r,
			)
			out = Outcome{State: StateResponded, Kind: models.ErrorInternalFailure}
		}
		out.State = StateResponded
		if out.Kind != models.ErrorNone {
			metrics.RejectionsTotal.WithLabelValues(p.form.Name, string(out.Kind)).Inc()
		}
	}()

	// Stage 1: request admission. Cheap structural checks run before any
	// byte of the body is parsed.
	if kind := p.admit(env); kind != models.ErrorNone {
		out.Kind = kind
		return out
	}
	out.State = StateAdmitted

	raw, ok := decodeBody(env.Body)
	if !ok {
		out.Kind = models.ErrorValidationFailed
		out.FieldErrors = map[string]string{"_body": "request body must be a JSON object"}
		return out
	}

	// Stage 2: schema validation, collecting every violation.
	start := time.Now()
	result := p.form.Validate(raw)
	metrics.ValidationDuration.Observe(time.Since(start).Seconds())

	if !result.OK() {
		out.Kind = models.ErrorValidationFailed
		out.FieldErrors = result.Errors
		return out
	}
	out.State = StateValidated

	// Stage 3: sanitize free-text fields. Pattern-constrained fields are
	// already shape-restricted and are left untouched (escaping would
	// corrupt values like emails containing '&').
	values := result.Values
	freeText := make(map[string]string)
	for _, field := range p.form.Fields {
		if field.Kind != schema.KindString || field.Pattern != nil {
			continue
		}
		s, ok := values[field.Name].(string)
		if !ok {
			continue
		}
		maxLen := field.MaxLen
		if maxLen <= 0 {
			maxLen = 2000
		}
		clean := sanitize.Clean(s, maxLen)
		values[field.Name] = clean
		freeText[field.Name] = clean
	}
	out.State = StateSanitized

	// Stage 4: rate limit, keyed by normalized email when present, else
	// client IP. A rejected attempt is never recorded.
	if p.rateLimitEnabled {
		identifier, _ := values["email"].(string)
		if identifier == "" {
			identifier = env.ClientIP
		}
		// Keys are scoped per endpoint so a shared store cannot leak quota
		// across forms.
		if !p.limiter.Allow(ctx, p.form.Name+":"+identifier) {
			metrics.RateLimitHits.WithLabelValues(p.form.Name).Inc()
			out.Kind = models.ErrorRateLimited
			return out
		}
	}
	out.State = StateRateChecked

	// Stage 5: anti-spam heuristics on the sanitized payload.
	signal := p.checker.Check(spam.Input{
		Honeypot:     rawString(raw, honeypotField),
		CSRFToken:    rawString(raw, csrfTokenField),
		SessionToken: rawString(raw, sessionTokenField),
		Fields:       freeText,
	})
	if signal.Spam {
		// The rule name is logged server-side only; the caller gets the
		// generic message.
		p.logger.WarnContext(ctx, "submission flagged as spam",
			logging.Endpoint(p.form.Name),
			logging.Rule(signal.Rule),
			logging.IP(env.ClientIP),
		)
		metrics.SpamDetections.WithLabelValues(p.form.Name, signal.Rule).Inc()
		out.Kind = models.ErrorSpamDetected
		return out
	}
	out.State = StateSpamChecked

	// Stage 6: the business effect. Only a fully-cleared payload gets here.
	out.State = StateExecuting
	data, err := p.executor.Execute(ctx, p.form.Name, values)
	if err != nil {
		p.logger.ErrorContext(ctx, "action executor failed",
			logging.Endpoint(p.form.Name),
			logging.Err(err),
		)
		out.Kind = models.ErrorInternalFailure
		out.Detail = err.Error()
		return out
	}

	out.Data = data
	return out
}

func (p *Pipeline) admit(env *models.RequestEnvelope) models.ErrorKind {
	if env.Method != "POST" {
		return models.ErrorMethodNotAllowed
	}

	mediaType, _, err := mime.ParseMediaType(env.ContentType)
	if err != nil || mediaType != "application/json" {
		return models.ErrorUnsupportedContentType
	}

	if env.ContentLength > p.maxBodyBytes || int64(len(env.Body)) > p.maxBodyBytes {
		return models.ErrorPayloadTooLarge
	}

	return models.ErrorNone
}

func decodeBody(body []byte) (map[string]any, bool) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, false
	}
	return raw, true
}

func rawString(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}
