package schema

import "regexp"

// Shared field patterns. Phone accepts common North American shapes such as
// "555-123-4567", "(555) 123 4567" and "+15551234567".
var (
	namePattern  = regexp.MustCompile(`^[\p{L}][\p{L} '\-]*$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^(\+1)?(\(\d{3}\)|\d{3})[\s-]?\d{3}[\s-]?\d{4}$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

func fptr(v float64) *float64 { return &v }

func nameField(name string, required bool) Field {
	return Field{
		Name:       name,
		Kind:       KindString,
		Required:   required,
		MinLen:     2,
		MaxLen:     100,
		Pattern:    namePattern,
		PatternMsg: name + " may only contain letters, spaces, hyphens and apostrophes",
		Trim:       true,
	}
}

func emailField() Field {
	return Field{
		Name:       "email",
		Kind:       KindString,
		Required:   true,
		MaxLen:     255,
		Pattern:    emailPattern,
		PatternMsg: "email must be a valid email address",
		Trim:       true,
		Lowercase:  true,
	}
}

func phoneField() Field {
	return Field{
		Name:       "phone",
		Kind:       KindString,
		MaxLen:     20,
		Pattern:    phonePattern,
		PatternMsg: "phone must be a valid phone number",
		Trim:       true,
	}
}

func mustBeTrue(field, msg string) CrossRule {
	return func(values map[string]any) (string, string, bool) {
		if b, _ := values[field].(bool); !b {
			return field, msg, false
		}
		return "", "", true
	}
}

// ContactForm is the schema for general contact submissions.
func ContactForm() Form {
	return Form{
		Name: "contact",
		Fields: []Field{
			nameField("name", true),
			emailField(),
			phoneField(),
			{Name: "message", Kind: KindString, Required: true, MinLen: 10, MaxLen: 2000, Trim: true},
		},
	}
}

// QuoteForm is the schema for event quote requests.
func QuoteForm() Form {
	return Form{
		Name: "quote",
		Fields: []Field{
			nameField("name", true),
			emailField(),
			phoneField(),
			{
				Name:       "eventDate",
				Kind:       KindString,
				Required:   true,
				Pattern:    datePattern,
				PatternMsg: "eventDate must be in YYYY-MM-DD format",
				Trim:       true,
			},
			{Name: "guestCount", Kind: KindNumber, Required: true, Min: fptr(10), Max: fptr(2000)},
			{Name: "budget", Kind: KindNumber, Required: true, Min: fptr(5000), Max: fptr(500000)},
			{
				Name:      "eventType",
				Kind:      KindEnum,
				Required:  true,
				Enum:      []string{"wedding", "corporate", "gala", "private", "other"},
				Trim:      true,
				Lowercase: true,
			},
			{Name: "details", Kind: KindString, MaxLen: 2000, Trim: true},
		},
	}
}

// VendorForm is the schema for vendor partnership inquiries.
func VendorForm() Form {
	return Form{
		Name: "vendor",
		Fields: []Field{
			{Name: "company", Kind: KindString, Required: true, MinLen: 2, MaxLen: 150, Trim: true},
			nameField("contactName", true),
			emailField(),
			phoneField(),
			{
				Name:      "category",
				Kind:      KindEnum,
				Required:  true,
				Enum:      []string{"catering", "florals", "photography", "av", "rentals", "other"},
				Trim:      true,
				Lowercase: true,
			},
			{Name: "pitch", Kind: KindString, Required: true, MinLen: 10, MaxLen: 2000, Trim: true},
		},
	}
}

// ReviewForm is the schema for guest reviews. Terms acceptance is a
// cross-field rule so it only reports once the fields themselves are valid.
func ReviewForm() Form {
	return Form{
		Name: "review",
		Fields: []Field{
			nameField("name", true),
			emailField(),
			{Name: "rating", Kind: KindNumber, Required: true, Min: fptr(1), Max: fptr(5)},
			{Name: "title", Kind: KindString, MaxLen: 150, Trim: true},
			{Name: "body", Kind: KindString, Required: true, MinLen: 10, MaxLen: 2000, Trim: true},
			{Name: "terms", Kind: KindBool, Required: true},
		},
		CrossRules: []CrossRule{
			mustBeTrue("terms", "you must accept the terms to submit a review"),
		},
	}
}

// NewsletterForm is the schema for newsletter signups.
func NewsletterForm() Form {
	return Form{
		Name: "newsletter",
		Fields: []Field{
			emailField(),
			nameField("name", false),
			{Name: "consent", Kind: KindBool, Required: true},
		},
		CrossRules: []CrossRule{
			mustBeTrue("consent", "you must consent to receive the newsletter"),
		},
	}
}

// All returns every registered form keyed by endpoint name.
func All() map[string]Form {
	return map[string]Form{
		"contact":    ContactForm(),
		"quote":      QuoteForm(),
		"vendor":     VendorForm(),
		"review":     ReviewForm(),
		"newsletter": NewsletterForm(),
	}
}
