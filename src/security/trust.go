// Package security implements the content security pipeline shared by all
// channel gateways: sender trust classification, a bounded injection-pattern
// scanner, and an isolation envelope for untrusted content.
package security

import (
	"encoding/json"
	"strings"
)

// Tier classifies a message sender. Exactly one tier per message, resolved
// fresh on every call and never cached against a sender.
type Tier int

const (
	// TierExternal is the fail-safe default: content is scanned and wrapped.
	TierExternal Tier = iota
	// TierTrustedAgent marks messages arriving over an internal
	// agent-to-agent handshake. Still scanned and wrapped.
	TierTrustedAgent
	// TierOperator marks the gateway operator. Content passes through
	// unmodified and is never scanned.
	TierOperator
)

func (t Tier) String() string {
	switch t {
	case TierOperator:
		return "operator"
	case TierTrustedAgent:
		return "trusted_agent"
	case TierExternal:
		return "external"
	default:
		return "none"
	}
}

// MarshalJSON emits the tier's string form on the wire.
func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the string form produced by MarshalJSON.
func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "operator":
		*t = TierOperator
	case "trusted_agent":
		*t = TierTrustedAgent
	default:
		*t = TierExternal
	}
	return nil
}

// Trust is the outcome of classifying one sender. Reason is an audit string
// for logging only; callers must not branch on it.
type Trust struct {
	Tier   Tier   `json:"tier"`
	Reason string `json:"reason"`
}

// ResolveTrust classifies a sender identifier against a trusted-identifier
// set. The identifier must already be in the channel's canonical form, and
// entries match exactly (case-insensitively).
//
// A whitelist match yields Operator unless authentication evidence is
// supplied and fails, in which case the tier degrades to External: an
// identifier match alone is never sufficient on channels where sender
// addresses are not bound to the transport. A nil evidence means the channel
// has no such signal and the match stands. Empty identifiers and unknown
// senders always resolve to External.
func ResolveTrust(sender string, trusted []string, evidence *AuthEvidence) Trust {
	return resolveTrust(sender, trusted, evidence, false)
}

// ResolveAddressTrust is ResolveTrust for address-based identifiers: trusted
// entries beginning with "@" act as domain wildcards. Channels whose
// identifiers are opaque platform IDs must not use it, or an "@" entry would
// silently become a suffix match.
func ResolveAddressTrust(sender string, trusted []string, evidence *AuthEvidence) Trust {
	return resolveTrust(sender, trusted, evidence, true)
}

func resolveTrust(sender string, trusted []string, evidence *AuthEvidence, wildcards bool) Trust {
	if sender == "" {
		return Trust{Tier: TierExternal, Reason: "empty sender identifier"}
	}

	if !matchTrusted(sender, trusted, wildcards) {
		return Trust{Tier: TierExternal, Reason: "sender not in trusted list"}
	}

	if evidence != nil {
		if failure := evidence.Failure(); failure != "" {
			return Trust{
				Tier:   TierExternal,
				Reason: "trusted identifier but authentication failed: " + failure,
			}
		}
		return Trust{Tier: TierOperator, Reason: "sender in trusted list, authentication passed"}
	}

	return Trust{Tier: TierOperator, Reason: "sender in trusted list"}
}

// AgentTrust is the classification for messages carried over an internal
// agent-to-agent handshake. Only facades for channels that implement such a
// handshake may produce it.
func AgentTrust() Trust {
	return Trust{Tier: TierTrustedAgent, Reason: "internal agent handshake"}
}

// matchTrusted reports whether sender matches any trusted identifier.
// Matching is case-insensitive. When wildcards is set, entries beginning
// with "@" match any address at that domain.
func matchTrusted(sender string, trusted []string, wildcards bool) bool {
	sender = strings.ToLower(sender)
	for _, entry := range trusted {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if entry == sender {
			return true
		}
		if wildcards && strings.HasPrefix(entry, "@") && strings.HasSuffix(sender, entry) {
			return true
		}
	}
	return false
}
