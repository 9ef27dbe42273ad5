package security

import (
	"regexp"
	"strings"
)

// attrEscaper rewrites the four reserved characters for attribute positions
// in a single pass, so each field is escaped exactly once and written
// entities are never re-escaped.
var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"<", "&lt;",
	">", "&gt;",
)

// closingTag matches the envelope's own closing delimiter, case-insensitively.
var closingTag = regexp.MustCompile(`(?i)</external-content>`)

// escapeAttr makes a value safe for an attribute position.
func escapeAttr(v string) string {
	return attrEscaper.Replace(v)
}

// escapeBody neutralises any literal closing-tag sequence in the payload so
// attacker text cannot terminate the envelope early and break out into the
// trusted region of the forwarded message. Nothing else in the body is
// rewritten; the payload stays the original raw text.
func escapeBody(v string) string {
	return closingTag.ReplaceAllString(v, "&lt;/external-content&gt;")
}
