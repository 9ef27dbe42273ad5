package security

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize prepares text for scanning: invisible and control characters are
// stripped, the result is compatibility-decomposed (NFKD), and runs of
// whitespace collapse to single spaces. This defeats token-splitting
// obfuscation (a zero-width character inside a trigger word) without
// altering the content being tested. The normalized copy is used for
// scanning only; the wrapper always embeds the original raw text.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range norm.NFKD.String(s) {
		if invisible(r) {
			continue
		}
		b.WriteRune(r)
	}

	return collapseSpaces(b.String())
}

// invisible reports whether r should be stripped before scanning.
// Covers Unicode categories Cf (format: zero-width joiners, directional
// marks), Co (private use), and Cc (control), except common whitespace,
// which the collapse step handles.
func invisible(r rune) bool {
	if r == '\n' || r == '\t' || r == '\r' || r == ' ' {
		return false
	}
	return unicode.In(r, unicode.Cf, unicode.Co, unicode.Cc)
}

// collapseSpaces replaces every run of whitespace with a single space.
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inRun := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inRun = true
			continue
		}
		if inRun && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inRun = false
		b.WriteRune(r)
	}
	return b.String()
}

// truncateRunes bounds s to at most max runes.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
