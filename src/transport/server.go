// Package transport exposes the content security pipeline as an MCP tool
// server for connectors that prefer a session transport over the line pipe.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/config"
	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/security"
)

// Sanitizer is the gateway-side surface the tool handler calls into.
type Sanitizer interface {
	Sanitize(channel, raw string, sender security.Identity, evidence *security.AuthEvidence) (security.SanitizedMessage, error)
}

// SanitizeArgs is the input schema of the sanitize_message tool.
type SanitizeArgs struct {
	Channel    string                 `json:"channel" jsonschema:"one of discord, slack, email, whatsapp"`
	SenderID   string                 `json:"sender_id" jsonschema:"channel-native sender identifier in canonical form"`
	SenderName string                 `json:"sender_name,omitempty" jsonschema:"sender display name for provenance"`
	Content    string                 `json:"content" jsonschema:"raw inbound message text"`
	AgentPeer  bool                   `json:"agent_peer,omitempty" jsonschema:"set for internal agent-to-agent handshake messages"`
	Auth       *security.AuthEvidence `json:"auth,omitempty" jsonschema:"transport authentication verdicts, email only"`
}

// Server wraps an MCP server exposing the pipeline over stdio or HTTP.
type Server struct {
	server *mcp.Server
	cfg    config.ServeConfig
	logger *slog.Logger
}

// NewServer creates the tool server and registers sanitize_message.
func NewServer(cfg config.ServeConfig, sanitizer Sanitizer, logger *slog.Logger) *Server {
	srv := mcp.NewServer(
		&mcp.Implementation{
			Name:    "easy-channel-guard",
			Version: Version,
		},
		&mcp.ServerOptions{Logger: logger},
	)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "sanitize_message",
		Description: "Classify sender trust, scan for prompt-injection signatures, and wrap untrusted content in an isolation envelope.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SanitizeArgs) (*mcp.CallToolResult, security.SanitizedMessage, error) {
		sender := security.Identity{
			ID:          args.SenderID,
			DisplayName: args.SenderName,
			AgentPeer:   args.AgentPeer,
		}
		msg, err := sanitizer.Sanitize(args.Channel, args.Content, sender, args.Auth)
		if err != nil {
			return nil, security.SanitizedMessage{}, err
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: msg.Text}},
		}, msg, nil
	})

	return &Server{
		server: srv,
		cfg:    cfg,
		logger: logger.With("area", "transport"),
	}
}

// Run starts the server on the configured transport and blocks until ctx is
// cancelled or the transport closes.
func (s *Server) Run(ctx context.Context) error {
	switch s.cfg.Transport {
	case config.TransportStdio:
		return s.runStdio(ctx)
	case config.TransportHTTP:
		return s.runHTTP(ctx)
	default:
		return fmt.Errorf("unsupported transport: %s", s.cfg.Transport)
	}
}

func (s *Server) runStdio(ctx context.Context) error {
	s.logger.Info("starting stdio transport")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) runHTTP(ctx context.Context) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return s.server },
		&mcp.StreamableHTTPOptions{Logger: s.logger},
	)

	mux := http.NewServeMux()
	mux.Handle(s.cfg.HTTP.Path, handler)

	ln, err := net.Listen("tcp", s.cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.HTTP.Addr, err)
	}
	s.logger.Info("starting HTTP transport", "addr", ln.Addr(), "path", s.cfg.HTTP.Path)

	srv := &http.Server{Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP transport")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
