package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type healthResult struct {
	Status             string `json:"status"`
	UpstreamBreaker    string `json:"upstreamBreaker"`
	PersistenceProfile string `json:"persistenceProfile"`
	Uptime             string `json:"uptime"`
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the gateway's health",
	RunE:  runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	client := newGatewayClient()

	var result healthResult
	if err := client.get(cmd.Context(), "/health", &result); err != nil {
		return err
	}

	statusColor := color.New(color.FgGreen, color.Bold)
	if result.Status != "ok" {
		statusColor = color.New(color.FgRed, color.Bold)
	}

	fmt.Printf("%s %s\n", statusColor.Sprint("status:"), result.Status)
	fmt.Printf("%s %s\n", color.New(color.FgHiBlack).Sprint("upstream breaker:"), result.UpstreamBreaker)
	fmt.Printf("%s %s\n", color.New(color.FgHiBlack).Sprint("persistence profile:"), result.PersistenceProfile)
	fmt.Printf("%s %s\n", color.New(color.FgHiBlack).Sprint("uptime:"), result.Uptime)
	return nil
}
