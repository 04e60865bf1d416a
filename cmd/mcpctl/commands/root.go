// Package commands provides the mcpctl operator CLI commands.
package commands

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags shared by every subcommand.
var (
	gatewayURL string
	noColor    bool
	timeout    time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "mcpctl",
	Short: "Operator CLI for the mcp-gateway",
	Long: `mcpctl is a thin, read-only/administrative CLI for an mcp-gateway
instance: health checks, the tool catalog, and session inspection, all
driven through the gateway's own HTTP API.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		color.NoColor = noColor
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "url", "http://127.0.0.1:8080", "mcp-gateway base URL")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")

	rootCmd.SetVersionTemplate(fmt.Sprintf("mcpctl %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(sessionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
