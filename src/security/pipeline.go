package security

// SanitizedMessage is the only artifact that crosses the pipeline's outbound
// boundary. For non-operator senders Text carries the wrapped form; the raw
// text is not forwarded separately.
type SanitizedMessage struct {
	Text  string `json:"text"`
	Trust Trust  `json:"trust"`
	Flags []Flag `json:"flags,omitempty"`
}

// Identity is a channel-native sender identity, already canonicalised by the
// channel facade. AgentPeer marks messages arriving over an internal
// agent-to-agent handshake on channels that implement one.
type Identity struct {
	ID          string
	DisplayName string
	AgentPeer   bool
}

// Pipeline composes trust resolution, scanning, and wrapping for one channel
// type. It holds no per-message state and is safe for unbounded concurrent
// use; the trusted-sender set is passed into each call as an immutable
// snapshot, so administrative updates swap snapshots instead of mutating.
type Pipeline struct {
	channel     string
	userIDAttr  string
	requireAuth bool
	agentPeers  bool
	wildcards   bool
	scanner     *Scanner
}

// PipelineOptions parameterise a channel facade.
type PipelineOptions struct {
	// Channel is the name emitted in the envelope's source attribute.
	Channel string
	// UserIDAttr names the channel identifier attribute; empty omits it.
	UserIDAttr string
	// RequireAuth marks channels whose transport supplies authentication
	// evidence; on these, a whitelist match alone never yields Operator.
	RequireAuth bool
	// AgentPeers enables the TrustedAgent tier for handshake-marked peers.
	AgentPeers bool
	// DomainWildcards honors @domain entries in the trusted set. Only for
	// channels whose identifiers are addresses.
	DomainWildcards bool
}

// NewPipeline builds a channel pipeline over the given scanner.
func NewPipeline(opts PipelineOptions, scanner *Scanner) *Pipeline {
	return &Pipeline{
		channel:     opts.Channel,
		userIDAttr:  opts.UserIDAttr,
		requireAuth: opts.RequireAuth,
		agentPeers:  opts.AgentPeers,
		wildcards:   opts.DomainWildcards,
		scanner:     scanner,
	}
}

// Channel returns the facade's channel name.
func (p *Pipeline) Channel() string { return p.channel }

// Sanitize runs one message through the pipeline. trusted is the current
// configuration snapshot's identifier set for this channel; evidence is the
// transport authentication result, nil on channels without one.
//
// Operator messages skip scanning entirely, not merely wrapping, and pass
// through unchanged. Everything else is scanned and wrapped.
func (p *Pipeline) Sanitize(raw string, sender Identity, trusted []string, evidence *AuthEvidence) SanitizedMessage {
	resolve := ResolveTrust
	if p.wildcards {
		resolve = ResolveAddressTrust
	}

	var trust Trust
	switch {
	case p.agentPeers && sender.AgentPeer:
		trust = AgentTrust()
	case p.requireAuth:
		// Missing evidence on an auth-capable channel counts as a failed
		// check inside the resolver, so a bare identifier match cannot
		// reach Operator here.
		if evidence == nil {
			evidence = &AuthEvidence{}
		}
		trust = resolve(sender.ID, trusted, evidence)
	default:
		trust = resolve(sender.ID, trusted, nil)
	}

	if trust.Tier == TierOperator {
		return SanitizedMessage{Text: raw, Trust: trust}
	}

	flags := p.scanner.Scan(raw)

	display := sender.DisplayName
	if display == "" {
		display = sender.ID
	}

	text := Wrap(raw, trust, flags, Provenance{
		Channel:    p.channel,
		Sender:     display,
		UserIDAttr: p.userIDAttr,
		UserID:     sender.ID,
	})

	return SanitizedMessage{Text: text, Trust: trust, Flags: flags}
}
