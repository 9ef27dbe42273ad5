// Package gateway wires the channel facades, config snapshots, and the
// activity log together, and exposes the pipeline over a line-oriented pipe
// or an MCP tool server.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/audit"
	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/channel"
	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/config"
	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/security"
	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/transport"
)

// Gateway routes inbound messages through the matching channel facade
// against the current configuration snapshot.
type Gateway struct {
	store      *config.Store
	configPath string
	facades    map[string]*channel.Facade
	activity   *audit.Log
	logger     *slog.Logger
}

// New builds a gateway from a loaded config. configPath enables hot reload
// of the trusted-sender lists when non-empty.
func New(cfg config.Config, configPath string, logger *slog.Logger) (*Gateway, error) {
	g := &Gateway{
		store:      config.NewStore(cfg),
		configPath: configPath,
		facades:    make(map[string]*channel.Facade, 4),
		logger:     logger,
	}

	builders := map[string]func(*security.Scanner) *channel.Facade{
		channel.Discord:  channel.NewDiscord,
		channel.Slack:    channel.NewSlack,
		channel.Email:    channel.NewEmail,
		channel.WhatsApp: channel.NewWhatsApp,
	}

	for name, build := range builders {
		if !cfg.Enabled(name) {
			continue
		}
		scanner, err := buildScanner(config.Merge(cfg.Scanner, cfg.Channels[name].Scanner))
		if err != nil {
			return nil, fmt.Errorf("building scanner for %s: %w", name, err)
		}
		g.facades[name] = build(scanner)
	}
	if len(g.facades) == 0 {
		return nil, fmt.Errorf("no channels enabled")
	}

	if cfg.Audit.Path != "" {
		log, err := audit.Open(cfg.Audit.Path)
		if err != nil {
			return nil, fmt.Errorf("opening activity log: %w", err)
		}
		g.activity = log
	}

	return g, nil
}

// buildScanner assembles the rule catalog for one channel from a merged
// scanner config.
func buildScanner(sc config.ScannerConfig) (*security.Scanner, error) {
	var rules []security.Rule
	if sc.DisableBuiltinRules == nil || !*sc.DisableBuiltinRules {
		rules = security.BuiltinRules()
	}
	if sc.RulesFile != "" {
		extra, err := security.LoadRules(sc.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = append(rules, extra...)
	}

	maxChars, maxFlags := 0, 0
	if sc.MaxScanChars != nil {
		maxChars = *sc.MaxScanChars
	}
	if sc.MaxFlags != nil {
		maxFlags = *sc.MaxFlags
	}
	return security.NewScanner(rules, maxChars, maxFlags), nil
}

// Sanitize runs one message through the named channel's facade against the
// current trusted-sender snapshot. Returns an error for unknown or disabled
// channels so callers fail closed instead of forwarding unsanitized text.
func (g *Gateway) Sanitize(channelName, raw string, sender security.Identity, evidence *security.AuthEvidence) (security.SanitizedMessage, error) {
	facade, ok := g.facades[channelName]
	if !ok {
		return security.SanitizedMessage{}, fmt.Errorf("unknown or disabled channel %q", channelName)
	}

	// Canonicalise up front so the activity log records the identifier
	// trust was actually resolved for.
	sender.ID = facade.CanonicalID(sender.ID)

	snapshot := g.store.Snapshot()
	msg := facade.Sanitize(raw, sender, snapshot.Trusted(channelName), evidence)

	if g.activity != nil && len(msg.Flags) > 0 {
		err := g.activity.Record(audit.Entry{
			Channel: channelName,
			Sender:  sender.ID,
			Tier:    msg.Trust.Tier.String(),
			Reason:  msg.Trust.Reason,
			Flags:   msg.Flags,
		})
		if err != nil {
			g.logger.Error("activity log write failed", "err", err)
		}
		g.logger.Warn("suspicious patterns detected",
			"channel", channelName,
			"tier", msg.Trust.Tier.String(),
			"flags", len(msg.Flags),
		)
	}

	return msg, nil
}

// Run starts the gateway on the configured serve mode and blocks until
// SIGINT/SIGTERM or ctx cancellation.
func (g *Gateway) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if g.activity != nil {
		defer g.activity.Close()
	}

	if g.configPath != "" {
		watcher, err := config.NewWatcher(g.store, g.configPath, g.logger)
		if err != nil {
			return fmt.Errorf("config watcher: %w", err)
		}
		go func() {
			if err := watcher.Run(ctx); err != nil {
				g.logger.Error("config watcher stopped", "err", err)
			}
		}()
	}

	cfg := g.store.Snapshot()
	g.logger.Info("starting gateway", "mode", cfg.Serve.Mode, "channels", len(g.facades))

	switch cfg.Serve.Mode {
	case config.ModeMCP:
		srv := transport.NewServer(cfg.Serve, g, g.logger)
		return srv.Run(ctx)
	default:
		return g.runPipe(ctx, os.Stdin, os.Stdout)
	}
}
