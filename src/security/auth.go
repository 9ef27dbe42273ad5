package security

import "strings"

// VerdictPass is the only value treated as a passing authentication check.
// Anything else ("fail", "softfail", "none", ...) counts against the sender.
const VerdictPass = "pass"

// AuthEvidence carries transport-level authentication results for channels
// that can supply them (email). Each field holds the raw verdict string from
// the receiving MTA; empty fields mean the check was not performed.
type AuthEvidence struct {
	SPF   string `json:"spf,omitempty"`
	DKIM  string `json:"dkim,omitempty"`
	DMARC string `json:"dmarc,omitempty"`
}

// Failure returns a short description of the first failing check, or "" when
// every supplied check passed. Evidence with no checks at all is a failure:
// a channel that supports authentication but delivered none cannot vouch for
// the sender.
func (e AuthEvidence) Failure() string {
	checks := []struct {
		name    string
		verdict string
	}{
		{"spf", e.SPF},
		{"dkim", e.DKIM},
		{"dmarc", e.DMARC},
	}

	supplied := 0
	for _, c := range checks {
		v := strings.ToLower(strings.TrimSpace(c.verdict))
		if v == "" {
			continue
		}
		supplied++
		if v != VerdictPass {
			return c.name + "=" + v
		}
	}

	if supplied == 0 {
		return "no authentication results supplied"
	}
	return ""
}
