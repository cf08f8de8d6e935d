package models

import "time"

// RequestEnvelope captures the parts of an inbound HTTP request the pipeline
// inspects. It is immutable once built by the handler.
type RequestEnvelope struct {
	Method        string
	ContentType   string
	ContentLength int64
	Body          []byte
	ClientIP      string
}

// ErrorKind is the closed set of failure categories a pipeline stage can
// produce. Every kind maps to exactly one HTTP status and one generic,
// non-leaking client message.
type ErrorKind string

const (
	ErrorNone                   ErrorKind = ""
	ErrorValidationFailed       ErrorKind = "validation_failed"
	ErrorRateLimited            ErrorKind = "rate_limited"
	ErrorSpamDetected           ErrorKind = "spam_detected"
	ErrorPayloadTooLarge        ErrorKind = "payload_too_large"
	ErrorMethodNotAllowed       ErrorKind = "method_not_allowed"
	ErrorUnsupportedContentType ErrorKind = "unsupported_content_type"
	ErrorInternalFailure        ErrorKind = "internal_failure"
)

// HTTPStatus returns the response status code for the kind.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ErrorNone:
		return 200
	case ErrorValidationFailed, ErrorSpamDetected:
		return 400
	case ErrorMethodNotAllowed:
		return 405
	case ErrorPayloadTooLarge:
		return 413
	case ErrorUnsupportedContentType:
		return 415
	case ErrorRateLimited:
		return 429
	default:
		return 500
	}
}

// Message returns the generic client-facing message for the kind. Rate-limit
// and spam messages deliberately reveal nothing about counters or which
// heuristic fired.
func (k ErrorKind) Message() string {
	switch k {
	case ErrorValidationFailed:
		return "Please correct the highlighted fields"
	case ErrorRateLimited:
		return "Too many submissions, try again later"
	case ErrorSpamDetected:
		return "Invalid input detected"
	case ErrorPayloadTooLarge:
		return "Request body too large"
	case ErrorMethodNotAllowed:
		return "Method not allowed"
	case ErrorUnsupportedContentType:
		return "Content type must be application/json"
	case ErrorInternalFailure:
		return "An internal error occurred"
	default:
		return ""
	}
}

// APIResponse is the uniform envelope returned for every request, success or
// failure. Exactly one of Data / Error is populated depending on Success.
type APIResponse struct {
	Success     bool              `json:"success"`
	Data        any               `json:"data,omitempty"`
	Error       string            `json:"error,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
	Message     string            `json:"message,omitempty"`
	Timestamp   string            `json:"timestamp"`
	RequestID   string            `json:"requestId"`
}

// SubmissionResult is the endpoint-specific success data for form endpoints.
type SubmissionResult struct {
	ID       string `json:"id"`
	Category string `json:"category,omitempty"`
}

// Lead is an accepted submission persisted by the action executor. It is the
// only entity whose lifetime spans beyond a single request.
type Lead struct {
	ID        string         `json:"id"`
	Endpoint  string         `json:"endpoint"`
	Name      string         `json:"name,omitempty"`
	Email     string         `json:"email,omitempty"`
	Category  string         `json:"category,omitempty"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
