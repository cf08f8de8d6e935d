// Package sanitize normalizes untrusted free-text fields so they are safe to
// embed in HTML or email bodies.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Clean applies the sanitation pipeline: trim, collapse internal whitespace,
// escape HTML-significant characters, strip control characters, truncate to
// maxLen characters (0 means no limit). Each step consumes the previous
// step's output, so the order is fixed.
//
// Clean is idempotent: already-escaped character references are left alone
// instead of having their leading ampersand re-escaped, and whitespace is
// normalized again after control stripping, since removing a control
// character can join two spaces into a run.
func Clean(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = escapeHTML(s)
	s = stripControl(s)
	s = strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
	s = truncate(s, maxLen)
	return strings.TrimRight(s, " ")
}

func escapeHTML(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			// Preserve well-formed character references so repeated
			// sanitation does not double-escape.
			if n := entityLen(s[i:]); n > 0 {
				b.WriteString(s[i : i+n])
				i += n - 1
			} else {
				b.WriteString("&amp;")
			}
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&#x27;")
		case '/':
			b.WriteString("&#x2F;")
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// entityLen reports the byte length of a well-formed character reference at
// the start of s (which must begin with '&'), or 0 if there is none.
func entityLen(s string) int {
	i := 1
	switch {
	case i < len(s) && s[i] == '#':
		i++
		hex := false
		if i < len(s) && (s[i] == 'x' || s[i] == 'X') {
			hex = true
			i++
		}
		start := i
		for i < len(s) && isRefDigit(s[i], hex) {
			i++
		}
		if i == start {
			return 0
		}
	default:
		start := i
		for i < len(s) && isAlnum(s[i]) {
			i++
		}
		if i == start {
			return 0
		}
	}
	if i < len(s) && s[i] == ';' {
		return i + 1
	}
	return 0
}

func isRefDigit(c byte, hex bool) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	if !hex {
		return false
	}
	return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// stripControl drops C0 and C1 control characters plus DEL.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || (r >= 0x7F && r <= 0x9F) {
			return -1
		}
		return r
	}, s)
}

func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	cut := len(s)
	for i := range s {
		if n == max {
			cut = i
			break
		}
		n++
	}
	s = s[:cut]
	// A cut can land inside an escaped reference; dropping the partial
	// reference keeps repeated sanitation stable.
	if i := strings.LastIndexByte(s, '&'); i >= 0 && !strings.ContainsRune(s[i:], ';') {
		s = s[:i]
	}
	return s
}
