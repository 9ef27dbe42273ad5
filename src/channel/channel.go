// Package channel provides the per-platform facades over the shared content
// security pipeline. Each facade contributes only its channel name, its
// identifier attribute, and identifier canonicalisation; the pipeline
// itself is one shared component, so the four gateways cannot drift.
package channel

import (
	"strings"

	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/security"
)

// Channel names as they appear in the envelope's source attribute.
const (
	Discord  = "discord"
	Slack    = "slack"
	Email    = "email"
	WhatsApp = "whatsapp"
)

// Facade pairs a pipeline with the channel's identifier canonicaliser.
type Facade struct {
	pipeline  *security.Pipeline
	canonical func(string) string
}

// Name returns the facade's channel name.
func (f *Facade) Name() string { return f.pipeline.Channel() }

// CanonicalID returns the channel-canonical form of a sender identifier.
// Canonicalisation is idempotent.
func (f *Facade) CanonicalID(id string) string { return f.canonical(id) }

// Sanitize canonicalises the sender identifier and runs the message through
// the pipeline against the given trusted-sender snapshot.
func (f *Facade) Sanitize(raw string, sender security.Identity, trusted []string, evidence *security.AuthEvidence) security.SanitizedMessage {
	sender.ID = f.canonical(sender.ID)
	return f.pipeline.Sanitize(raw, sender, trusted, evidence)
}

// NewDiscord builds the chat-bot facade. Identifiers are platform user IDs.
func NewDiscord(scanner *security.Scanner) *Facade {
	return &Facade{
		pipeline: security.NewPipeline(security.PipelineOptions{
			Channel:    Discord,
			UserIDAttr: "discord-user-id",
		}, scanner),
		canonical: strings.TrimSpace,
	}
}

// NewSlack builds the team-chat facade. Identifiers are platform user IDs.
func NewSlack(scanner *security.Scanner) *Facade {
	return &Facade{
		pipeline: security.NewPipeline(security.PipelineOptions{
			Channel:    Slack,
			UserIDAttr: "slack-user-id",
		}, scanner),
		canonical: strings.TrimSpace,
	}
}

// NewEmail builds the transactional-email facade. Identifiers are lowercased
// addresses, and the trusted set may contain @domain wildcards. Email is the
// one channel whose transport supplies authentication evidence, so an
// address match alone never yields operator trust. The sender attribute
// already carries the address, so no separate identifier attribute is set.
func NewEmail(scanner *security.Scanner) *Facade {
	return &Facade{
		pipeline: security.NewPipeline(security.PipelineOptions{
			Channel:         Email,
			RequireAuth:     true,
			DomainWildcards: true,
		}, scanner),
		canonical: canonicalEmail,
	}
}

// NewWhatsApp builds the WhatsApp-style client facade. Identifiers are
// E.164 phone numbers. This is the only channel with an internal
// agent-to-agent handshake, so peer-marked messages classify as
// TrustedAgent (still scanned and wrapped).
func NewWhatsApp(scanner *security.Scanner) *Facade {
	return &Facade{
		pipeline: security.NewPipeline(security.PipelineOptions{
			Channel:    WhatsApp,
			UserIDAttr: "whatsapp-user-id",
			AgentPeers: true,
		}, scanner),
		canonical: canonicalPhone,
	}
}

func canonicalEmail(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// canonicalPhone reduces a phone identifier to E.164 form: a leading plus
// followed by digits. Separators and national formatting punctuation drop.
func canonicalPhone(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for i, r := range strings.TrimSpace(id) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}
