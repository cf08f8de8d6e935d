// Package spam applies non-cryptographic heuristics to validated, sanitized
// submissions: honeypot, CSRF token cross-check, keyword scan and URL-flood
// detection.
package spam

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Rule names carried on a Signal. They are logged server-side only and
// never exposed to the caller.
const (
	RuleHoneypot = "honeypot-filled"
	RuleCSRF     = "csrf-mismatch"
	RuleKeyword  = "keyword-match"
	RuleURLFlood = "url-flood"
)

// Signal is the verdict for one submission. Rule is set when Spam is true.
type Signal struct {
	Spam bool
	Rule string
}

// Input carries the sanitized payload plus the abuse-control fields that
// travel alongside it. Fields holds the free-text values to scan.
type Input struct {
	Honeypot     string
	CSRFToken    string
	SessionToken string
	Fields       map[string]string
}

// Config tunes the checker.
type Config struct {
	// RequireCSRF makes the token pair mandatory. The default (false)
	// keeps the opportunistic behavior of the original deployment: the
	// pair is only validated when both tokens are present, which means a
	// client omitting both skips the check entirely.
	RequireCSRF bool

	// MinTokenLength is the minimum accepted CSRF token length.
	MinTokenLength int

	// ExtraKeywords are additional case-insensitive patterns appended to
	// the built-in list.
	ExtraKeywords []string
}

// The built-in list covers the classic junk categories plus markup
// injection. Escaped variants are included because the scan runs on
// sanitized text.
var defaultKeywords = []string{
	`\bviagra\b`,
	`\bcialis\b`,
	`\bcasino\b`,
	`\bpoker\b`,
	`\blottery\b`,
	`click here`,
	`make money`,
	`work from home`,
	`get rich quick`,
	`free money`,
	`limited time offer`,
	`no credit check`,
	`<\s*script`,
	`&lt;\s*script`,
	`javascript:`,
	`onerror\s*=`,
}

var urlPattern = regexp.MustCompile(`(?i)https?:(?://|&#x2F;&#x2F;)`)

const urlFloodThreshold = 3

// Checker evaluates submissions against the configured heuristics. It is
// immutable after construction and safe for concurrent use.
type Checker struct {
	requireCSRF bool
	minTokenLen int
	keywords    []*regexp.Regexp
}

// NewChecker compiles the keyword patterns and returns a Checker.
func NewChecker(cfg Config) (*Checker, error) {
	minLen := cfg.MinTokenLength
	if minLen <= 0 {
		minLen = 16
	}

	patterns := make([]string, 0, len(defaultKeywords)+len(cfg.ExtraKeywords))
	patterns = append(patterns, defaultKeywords...)
	patterns = append(patterns, cfg.ExtraKeywords...)

	keywords := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("invalid spam keyword pattern %q: %w", p, err)
		}
		keywords = append(keywords, re)
	}

	return &Checker{
		requireCSRF: cfg.RequireCSRF,
		minTokenLen: minLen,
		keywords:    keywords,
	}, nil
}

// Check evaluates the heuristics in a fixed order and short-circuits on the
// first rule that fires.
func (c *Checker) Check(in Input) Signal {
	if in.Honeypot != "" {
		return Signal{Spam: true, Rule: RuleHoneypot}
	}

	if sig := c.checkCSRF(in.CSRFToken, in.SessionToken); sig.Spam {
		return sig
	}

	for _, text := range in.Fields {
		for _, re := range c.keywords {
			if re.MatchString(text) {
				return Signal{Spam: true, Rule: RuleKeyword}
			}
		}
	}

	for _, text := range in.Fields {
		if len(urlPattern.FindAllStringIndex(text, urlFloodThreshold)) >= urlFloodThreshold {
			return Signal{Spam: true, Rule: RuleURLFlood}
		}
	}

	return Signal{}
}

func (c *Checker) checkCSRF(token, session string) Signal {
	if token == "" || session == "" {
		if c.requireCSRF {
			return Signal{Spam: true, Rule: RuleCSRF}
		}
		// Opportunistic mode: absence of either token skips the check.
		return Signal{}
	}
	if len(token) < c.minTokenLen || token != session {
		return Signal{Spam: true, Rule: RuleCSRF}
	}
	return Signal{}
}

type keywordFile struct {
	Keywords []string `yaml:"keywords"`
}

// LoadKeywordFile reads extra keyword patterns from a YAML file of the form
// "keywords: [pattern, ...]".
func LoadKeywordFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyword file: %w", err)
	}

	var kf keywordFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse keyword file: %w", err)
	}

	return kf.Keywords, nil
}
