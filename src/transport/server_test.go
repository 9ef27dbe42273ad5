package transport

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/config"
	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/security"
)

type stubSanitizer struct {
	lastChannel string
}

func (s *stubSanitizer) Sanitize(channel, raw string, sender security.Identity, evidence *security.AuthEvidence) (security.SanitizedMessage, error) {
	s.lastChannel = channel
	return security.SanitizedMessage{Text: raw}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServer(t *testing.T) {
	cfg := config.ServeConfig{Transport: config.TransportStdio}
	srv := NewServer(cfg, &stubSanitizer{}, testLogger())
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.server == nil {
		t.Error("MCP server not constructed")
	}
}

func TestRun_UnsupportedTransport(t *testing.T) {
	cfg := config.ServeConfig{Transport: "carrier-pigeon"}
	srv := NewServer(cfg, &stubSanitizer{}, testLogger())

	err := srv.Run(context.Background())
	if err == nil {
		t.Fatal("expected error for unsupported transport")
	}
	if !strings.Contains(err.Error(), "carrier-pigeon") {
		t.Errorf("error = %v, want transport name included", err)
	}
}
