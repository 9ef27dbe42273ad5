// Package config loads and validates the gateway configuration. Loaded
// configs are treated as immutable snapshots: the hot-reload path builds a
// fresh Config and swaps it atomically rather than mutating in place.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Channel names the gateway accepts.
var knownChannels = map[string]struct{}{
	"discord":  {},
	"slack":    {},
	"email":    {},
	"whatsapp": {},
}

// Config is the top-level gateway configuration loaded from JSON.
type Config struct {
	Channels map[string]ChannelConfig `json:"channels"`
	Scanner  ScannerConfig            `json:"scanner"`
	Audit    AuditConfig              `json:"audit"`
	Serve    ServeConfig              `json:"serve"`
}

// ChannelConfig configures one channel gateway. TrustedSenders holds
// channel-native identifiers in canonical form: platform user IDs for
// discord/slack, lowercased addresses (or @domain wildcards) for email,
// E.164 phone numbers for whatsapp.
type ChannelConfig struct {
	Enabled        *bool          `json:"enabled,omitempty"`
	TrustedSenders []string       `json:"trustedSenders,omitempty"`
	Scanner        *ScannerConfig `json:"scanner,omitempty"`
}

// ScannerConfig tunes the injection scanner. At the root level it provides
// global defaults; per-channel, non-nil fields override the global.
type ScannerConfig struct {
	MaxScanChars        *int   `json:"maxScanChars,omitempty"`
	MaxFlags            *int   `json:"maxFlags,omitempty"`
	DisableBuiltinRules *bool  `json:"disableBuiltinRules,omitempty"`
	RulesFile           string `json:"rulesFile,omitempty"`
}

// AuditConfig controls the flag activity log.
type AuditConfig struct {
	Path string `json:"path,omitempty"` // empty disables the log
}

// ServeConfig controls how the gateway is exposed.
type ServeConfig struct {
	Mode      string     `json:"mode"`      // "pipe" or "mcp"
	Transport string     `json:"transport"` // mcp only: "stdio" or "http"
	HTTP      HTTPConfig `json:"http"`
}

// HTTPConfig holds HTTP listener settings for the mcp mode.
type HTTPConfig struct {
	Addr string `json:"addr"` // e.g. ":8080"
	Path string `json:"path"` // e.g. "/mcp"
}

const (
	ModePipe = "pipe"
	ModeMCP  = "mcp"

	TransportStdio = "stdio"
	TransportHTTP  = "http"

	DefaultMaxScanChars = 10000
	DefaultMaxFlags     = 5
	DefaultHTTPAddr     = ":8080"
	DefaultHTTPPath     = "/mcp"
)

// Load reads and parses a JSON config file, applies defaults, and validates.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(cfg); err != nil {
		return Config{}, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Serve.Mode == "" {
		cfg.Serve.Mode = ModePipe
	}
	if cfg.Serve.Transport == "" {
		cfg.Serve.Transport = TransportStdio
	}
	if cfg.Serve.HTTP.Addr == "" {
		cfg.Serve.HTTP.Addr = DefaultHTTPAddr
	}
	if cfg.Serve.HTTP.Path == "" {
		cfg.Serve.HTTP.Path = DefaultHTTPPath
	}

	if cfg.Scanner.MaxScanChars == nil {
		cfg.Scanner.MaxScanChars = intPtr(DefaultMaxScanChars)
	}
	if cfg.Scanner.MaxFlags == nil {
		cfg.Scanner.MaxFlags = intPtr(DefaultMaxFlags)
	}
	if cfg.Scanner.DisableBuiltinRules == nil {
		cfg.Scanner.DisableBuiltinRules = boolPtr(false)
	}

	if cfg.Channels == nil {
		cfg.Channels = map[string]ChannelConfig{}
	}
	for name, ch := range cfg.Channels {
		if ch.Enabled == nil {
			ch.Enabled = boolPtr(true)
			cfg.Channels[name] = ch
		}
	}
}

func validate(cfg Config) error {
	if cfg.Serve.Mode != ModePipe && cfg.Serve.Mode != ModeMCP {
		return fmt.Errorf("serve mode must be %q or %q, got %q", ModePipe, ModeMCP, cfg.Serve.Mode)
	}
	if cfg.Serve.Transport != TransportStdio && cfg.Serve.Transport != TransportHTTP {
		return fmt.Errorf("serve transport must be %q or %q, got %q",
			TransportStdio, TransportHTTP, cfg.Serve.Transport)
	}

	enabled := 0
	for name, ch := range cfg.Channels {
		if _, ok := knownChannels[name]; !ok {
			return fmt.Errorf("channels.%s: unknown channel", name)
		}
		if ch.Enabled != nil && *ch.Enabled {
			enabled++
		}
		for i, s := range ch.TrustedSenders {
			if s == "" {
				return fmt.Errorf("channels.%s.trustedSenders[%d]: empty identifier", name, i)
			}
		}
		if ch.Scanner != nil {
			if err := validateScanner(*ch.Scanner, "channels."+name+".scanner"); err != nil {
				return err
			}
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one channel must be enabled")
	}

	return validateScanner(cfg.Scanner, "scanner")
}

func validateScanner(sc ScannerConfig, where string) error {
	if sc.MaxScanChars != nil && *sc.MaxScanChars <= 0 {
		return fmt.Errorf("%s.maxScanChars must be positive", where)
	}
	if sc.MaxFlags != nil && *sc.MaxFlags <= 0 {
		return fmt.Errorf("%s.maxFlags must be positive", where)
	}
	if sc.RulesFile != "" {
		if _, err := os.Stat(sc.RulesFile); err != nil {
			return fmt.Errorf("%s.rulesFile: %w", where, err)
		}
	}
	return nil
}

// Merge returns a ScannerConfig with per-channel overrides applied on top of
// global defaults. Fields that are nil in the override use the global value.
func Merge(global ScannerConfig, override *ScannerConfig) ScannerConfig {
	if override == nil {
		return global
	}

	merged := global

	if override.MaxScanChars != nil {
		merged.MaxScanChars = override.MaxScanChars
	}
	if override.MaxFlags != nil {
		merged.MaxFlags = override.MaxFlags
	}
	if override.DisableBuiltinRules != nil {
		merged.DisableBuiltinRules = override.DisableBuiltinRules
	}
	if override.RulesFile != "" {
		merged.RulesFile = override.RulesFile
	}

	return merged
}

// Enabled reports whether a channel is configured and enabled.
func (c Config) Enabled(channel string) bool {
	ch, ok := c.Channels[channel]
	return ok && ch.Enabled != nil && *ch.Enabled
}

// Trusted returns the trusted-sender snapshot for a channel.
func (c Config) Trusted(channel string) []string {
	return c.Channels[channel].TrustedSenders
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }
