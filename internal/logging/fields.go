package logging

import "log/slog"

// Common field names for consistent logging across the gateway.
const (
	FieldEndpoint = "endpoint"
	FieldIP       = "ip"
	FieldMethod   = "method"
	FieldPath     = "path"
	FieldStatus   = "status"
	FieldDuration = "duration_ms"
	FieldError    = "error"
	FieldRule     = "rule"
	FieldLeadID   = "lead_id"
	FieldCategory = "category"
)

// Endpoint returns a slog attribute for the form endpoint name.
func Endpoint(name string) slog.Attr {
	return slog.String(FieldEndpoint, name)
}

// IP returns a slog attribute for the client IP address.
func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Rule returns a slog attribute for the anti-spam rule that fired.
func Rule(name string) slog.Attr {
	return slog.String(FieldRule, name)
}

// LeadID returns a slog attribute for a stored lead ID.
func LeadID(id string) slog.Attr {
	return slog.String(FieldLeadID, id)
}

// Category returns a slog attribute for the derived inquiry category.
func Category(name string) slog.Attr {
	return slog.String(FieldCategory, name)
}

// Err returns a slog attribute for an error value.
func Err(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
