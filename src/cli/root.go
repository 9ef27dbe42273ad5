// Package cli defines the easy-channel-guard command tree.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var log *slog.Logger

var rootCmd = &cobra.Command{
	Use:   "easy-channel-guard",
	Short: "Content security pipeline for channel-to-agent gateways",
	Long: "Classifies sender trust, scans inbound messages for prompt-injection\n" +
		"signatures, and wraps untrusted content in an isolation envelope before\n" +
		"it reaches an agent.",
	SilenceUsage: true,
}

// Execute runs the root command with the given process logger.
func Execute(logger *slog.Logger) {
	log = logger
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
