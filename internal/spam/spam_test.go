package spam

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChecker(t *testing.T, cfg Config) *Checker {
	t.Helper()
	c, err := NewChecker(cfg)
	require.NoError(t, err)
	return c
}

func TestCheck_HoneypotShortCircuits(t *testing.T) {
	c := newTestChecker(t, Config{})

	// Everything else is clean; the honeypot alone must reject.
	sig := c.Check(Input{
		Honeypot: "http://bot-filled.example.com",
		Fields:   map[string]string{"message": "a perfectly ordinary inquiry"},
	})

	assert.True(t, sig.Spam)
	assert.Equal(t, RuleHoneypot, sig.Rule)
}

func TestCheck_CleanSubmission(t *testing.T) {
	c := newTestChecker(t, Config{})

	sig := c.Check(Input{
		Fields: map[string]string{
			"name":    "Jane Doe",
			"message": "Could you tell me more about weekend availability?",
		},
	})

	assert.False(t, sig.Spam)
	assert.Empty(t, sig.Rule)
}

func TestCheck_CSRFOpportunistic(t *testing.T) {
	c := newTestChecker(t, Config{MinTokenLength: 16})

	tests := []struct {
		name    string
		token   string
		session string
		spam    bool
	}{
		{"both absent skips check", "", "", false},
		{"only request token skips check", "abcdefabcdefabcdef", "", false},
		{"matching pair passes", "abcdefabcdefabcdef", "abcdefabcdefabcdef", false},
		{"mismatched pair fails", "abcdefabcdefabcdef", "zzzzzzzzzzzzzzzzzz", true},
		{"matching but too short fails", "short", "short", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := c.Check(Input{CSRFToken: tt.token, SessionToken: tt.session})
			assert.Equal(t, tt.spam, sig.Spam)
			if tt.spam {
				assert.Equal(t, RuleCSRF, sig.Rule)
			}
		})
	}
}

func TestCheck_CSRFMandatoryMode(t *testing.T) {
	c := newTestChecker(t, Config{RequireCSRF: true, MinTokenLength: 16})

	sig := c.Check(Input{})
	assert.True(t, sig.Spam, "mandatory mode rejects absent tokens")
	assert.Equal(t, RuleCSRF, sig.Rule)

	sig = c.Check(Input{CSRFToken: "abcdefabcdefabcdef", SessionToken: "abcdefabcdefabcdef"})
	assert.False(t, sig.Spam)
}

func TestCheck_KeywordMatch(t *testing.T) {
	c := newTestChecker(t, Config{})

	spammy := []string{
		"Buy VIAGRA today",
		"best online casino bonuses",
		"CLICK HERE to claim your prize",
		"make money fast with this one trick",
		"<script>alert(1)</script>",
		"&lt;script&gt;alert(1)&lt;/script&gt;", // sanitized form
	}

	for _, text := range spammy {
		sig := c.Check(Input{Fields: map[string]string{"message": text}})
		assert.True(t, sig.Spam, "expected %q to be flagged", text)
		assert.Equal(t, RuleKeyword, sig.Rule)
	}
}

func TestCheck_URLFlood(t *testing.T) {
	c := newTestChecker(t, Config{})

	two := "see http://a.example.com and https://b.example.com"
	sig := c.Check(Input{Fields: map[string]string{"message": two}})
	assert.False(t, sig.Spam, "two URLs are fine")

	three := two + " plus http://c.example.com"
	sig = c.Check(Input{Fields: map[string]string{"message": three}})
	assert.True(t, sig.Spam)
	assert.Equal(t, RuleURLFlood, sig.Rule)
}

func TestCheck_URLFloodEscapedSlashes(t *testing.T) {
	c := newTestChecker(t, Config{})

	// Sanitized text has its slashes escaped.
	text := "https:&#x2F;&#x2F;a.com https:&#x2F;&#x2F;b.com https:&#x2F;&#x2F;c.com"
	sig := c.Check(Input{Fields: map[string]string{"message": text}})
	assert.True(t, sig.Spam)
	assert.Equal(t, RuleURLFlood, sig.Rule)
}

func TestNewChecker_ExtraKeywords(t *testing.T) {
	c := newTestChecker(t, Config{ExtraKeywords: []string{`\bcrypto\s+pump\b`}})

	sig := c.Check(Input{Fields: map[string]string{"message": "join our Crypto Pump group"}})
	assert.True(t, sig.Spam)
}

func TestNewChecker_InvalidPattern(t *testing.T) {
	_, err := NewChecker(Config{ExtraKeywords: []string{`([unclosed`}})
	assert.Error(t, err)
}

func TestLoadKeywordFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.yaml")
	content := "keywords:\n  - \\bfree\\s+spins\\b\n  - guaranteed returns\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	keywords, err := LoadKeywordFile(path)
	require.NoError(t, err)
	assert.Len(t, keywords, 2)

	c := newTestChecker(t, Config{ExtraKeywords: keywords})
	sig := c.Check(Input{Fields: map[string]string{"message": "FREE SPINS for everyone"}})
	assert.True(t, sig.Spam)
}

func TestLoadKeywordFile_Missing(t *testing.T) {
	_, err := LoadKeywordFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
