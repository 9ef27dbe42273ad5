package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const minimalConfig = `{
  "channels": {
    "discord": {"trustedSenders": ["1234"]}
  }
}`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Serve.Mode != ModePipe {
		t.Errorf("serve mode = %q, want %q", cfg.Serve.Mode, ModePipe)
	}
	if cfg.Serve.Transport != TransportStdio {
		t.Errorf("serve transport = %q, want %q", cfg.Serve.Transport, TransportStdio)
	}
	if cfg.Serve.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("http addr = %q, want %q", cfg.Serve.HTTP.Addr, DefaultHTTPAddr)
	}
	if *cfg.Scanner.MaxScanChars != DefaultMaxScanChars {
		t.Errorf("maxScanChars = %d, want %d", *cfg.Scanner.MaxScanChars, DefaultMaxScanChars)
	}
	if *cfg.Scanner.MaxFlags != DefaultMaxFlags {
		t.Errorf("maxFlags = %d, want %d", *cfg.Scanner.MaxFlags, DefaultMaxFlags)
	}
	if !cfg.Enabled("discord") {
		t.Error("configured channel should default to enabled")
	}
	if cfg.Enabled("slack") {
		t.Error("unconfigured channel should not be enabled")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	if _, err := Load(writeConfig(t, "{not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			"unknown channel",
			`{"channels": {"telegram": {}}}`,
			"unknown channel",
		},
		{
			"no channels enabled",
			`{"channels": {"discord": {"enabled": false}}}`,
			"at least one channel",
		},
		{
			"empty trusted sender",
			`{"channels": {"discord": {"trustedSenders": [""]}}}`,
			"empty identifier",
		},
		{
			"bad serve mode",
			`{"channels": {"discord": {}}, "serve": {"mode": "carrier-pigeon"}}`,
			"serve mode",
		},
		{
			"bad maxFlags",
			`{"channels": {"discord": {}}, "scanner": {"maxFlags": -1}}`,
			"maxFlags",
		},
		{
			"missing rules file",
			`{"channels": {"discord": {}}, "scanner": {"rulesFile": "/nonexistent/rules.yaml"}}`,
			"rulesFile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	global := ScannerConfig{
		MaxScanChars:        intPtr(10000),
		MaxFlags:            intPtr(5),
		DisableBuiltinRules: boolPtr(false),
	}

	t.Run("nil override keeps global", func(t *testing.T) {
		merged := Merge(global, nil)
		if *merged.MaxScanChars != 10000 || *merged.MaxFlags != 5 {
			t.Errorf("merged = %+v, want global values", merged)
		}
	})

	t.Run("override wins per field", func(t *testing.T) {
		merged := Merge(global, &ScannerConfig{MaxFlags: intPtr(3), RulesFile: "extra.yaml"})
		if *merged.MaxFlags != 3 {
			t.Errorf("maxFlags = %d, want 3", *merged.MaxFlags)
		}
		if *merged.MaxScanChars != 10000 {
			t.Errorf("maxScanChars = %d, want global 10000", *merged.MaxScanChars)
		}
		if merged.RulesFile != "extra.yaml" {
			t.Errorf("rulesFile = %q, want override", merged.RulesFile)
		}
	})
}

func TestStore_SnapshotSwap(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store := NewStore(cfg)

	first := store.Snapshot()
	if got := first.Trusted("discord"); len(got) != 1 || got[0] != "1234" {
		t.Fatalf("trusted = %v, want [1234]", got)
	}

	next := cfg
	next.Channels = map[string]ChannelConfig{
		"discord": {Enabled: boolPtr(true), TrustedSenders: []string{"5678"}},
	}
	store.swap(next)

	// The old snapshot is immutable; the new one is visible to new readers.
	if got := first.Trusted("discord"); got[0] != "1234" {
		t.Errorf("old snapshot mutated: %v", got)
	}
	if got := store.Snapshot().Trusted("discord"); got[0] != "5678" {
		t.Errorf("new snapshot not visible: %v", got)
	}
}
