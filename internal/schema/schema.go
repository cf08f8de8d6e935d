// Package schema declares form field descriptors and validates decoded JSON
// payloads against them, collecting every violation instead of failing fast.
package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind is the primitive type a field accepts.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindEnum
)

// Field describes one named form field and its constraints. String length
// bounds and numeric ranges are inclusive. Pattern is matched after the trim
// transform has been applied.
type Field struct {
	Name       string
	Kind       Kind
	Required   bool
	MinLen     int
	MaxLen     int
	Min        *float64
	Max        *float64
	Pattern    *regexp.Regexp
	PatternMsg string
	Enum       []string
	Trim       bool
	Lowercase  bool
}

// CrossRule validates relationships between fields after every per-field
// check has passed. It returns the field to attach the error to and a
// message, or ok=true when the rule is satisfied.
type CrossRule func(values map[string]any) (field, msg string, ok bool)

// Form is an ordered set of fields plus cross-field rules for one endpoint.
type Form struct {
	Name       string
	Fields     []Field
	CrossRules []CrossRule
}

// Result is the outcome of validating a payload. When Errors is empty the
// payload passed and Values holds the typed, transformed field values.
type Result struct {
	Values map[string]any
	Errors map[string]string
}

// OK reports whether validation produced no errors.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Validate checks payload against the form. All field violations are
// collected so the caller can report every problem at once; cross-field
// rules run only when the per-field pass is clean. Validate is a pure
// function of its inputs.
func (f Form) Validate(payload map[string]any) Result {
	values := make(map[string]any, len(f.Fields))
	errs := make(map[string]string)

	for _, field := range f.Fields {
		raw, present := payload[field.Name]
		if !present || raw == nil {
			if field.Required {
				errs[field.Name] = fmt.Sprintf("%s is required", field.Name)
			}
			continue
		}

		value, msg := field.check(raw)
		if msg != "" {
			errs[field.Name] = msg
			continue
		}
		values[field.Name] = value
	}

	if len(errs) > 0 {
		return Result{Errors: errs}
	}

	for _, rule := range f.CrossRules {
		if field, msg, ok := rule(values); !ok {
			errs[field] = msg
		}
	}
	if len(errs) > 0 {
		return Result{Errors: errs}
	}

	return Result{Values: values}
}

// Field returns the descriptor for name, or nil.
func (f Form) Field(name string) *Field {
	for i := range f.Fields {
		if f.Fields[i].Name == name {
			return &f.Fields[i]
		}
	}
	return nil
}

func (fd Field) check(raw any) (any, string) {
	switch fd.Kind {
	case KindString, KindEnum:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Sprintf("%s must be a string", fd.Name)
		}
		return fd.checkString(s)
	case KindNumber:
		n, ok := raw.(float64) // encoding/json decodes all numbers to float64
		if !ok {
			return nil, fmt.Sprintf("%s must be a number", fd.Name)
		}
		return fd.checkNumber(n)
	case KindBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Sprintf("%s must be true or false", fd.Name)
		}
		return b, ""
	default:
		return nil, fmt.Sprintf("%s has an unsupported type", fd.Name)
	}
}

func (fd Field) checkString(s string) (any, string) {
	if fd.Trim {
		s = strings.TrimSpace(s)
	}
	if fd.Lowercase {
		s = strings.ToLower(s)
	}

	if fd.Required && s == "" {
		return nil, fmt.Sprintf("%s is required", fd.Name)
	}
	if s == "" {
		return s, ""
	}

	length := len([]rune(s))
	if fd.MinLen > 0 && length < fd.MinLen {
		return nil, fmt.Sprintf("%s must be at least %d characters", fd.Name, fd.MinLen)
	}
	if fd.MaxLen > 0 && length > fd.MaxLen {
		return nil, fmt.Sprintf("%s must be at most %d characters", fd.Name, fd.MaxLen)
	}

	if fd.Kind == KindEnum {
		for _, allowed := range fd.Enum {
			if s == allowed {
				return s, ""
			}
		}
		return nil, fmt.Sprintf("%s must be one of: %s", fd.Name, strings.Join(fd.Enum, ", "))
	}

	if fd.Pattern != nil && !fd.Pattern.MatchString(s) {
		msg := fd.PatternMsg
		if msg == "" {
			msg = fmt.Sprintf("%s has an invalid format", fd.Name)
		}
		return nil, msg
	}

	return s, ""
}

func (fd Field) checkNumber(n float64) (any, string) {
	if fd.Min != nil && n < *fd.Min {
		return nil, fmt.Sprintf("%s must be at least %g", fd.Name, *fd.Min)
	}
	if fd.Max != nil && n > *fd.Max {
		return nil, fmt.Sprintf("%s must be at most %g", fd.Name, *fd.Max)
	}
	return n, ""
}
