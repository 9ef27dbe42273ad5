package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/config"
	"github.com/Easy-Infra-Ltd/easy-channel-guard/src/gateway"
)

var serveConfig string

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "config.json", "Path to gateway config file")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway",
	Long: "Loads the config, builds the per-channel pipelines, and serves the\n" +
		"configured mode: a newline-delimited JSON pipe on stdin/stdout, or an\n" +
		"MCP tool server. The config file is watched for trusted-sender updates.",
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(serveConfig)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	gw, err := gateway.New(cfg, serveConfig, log)
	if err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	return gw.Run(cmd.Context())
}
