package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Dump the gateway's registered tool catalog",
	RunE:  runCatalog,
}

func runCatalog(cmd *cobra.Command, args []string) error {
	client := newGatewayClient()

	var descriptors []types.ToolDescriptor
	if err := client.get(cmd.Context(), "/mcp/tools", &descriptors); err != nil {
		return err
	}

	name := color.New(color.FgCyan, color.Bold)
	required := color.New(color.FgYellow)

	for _, d := range descriptors {
		fmt.Printf("%s %s\n", name.Sprint(d.Name), d.Description)
		for _, p := range d.Parameters {
			marker := ""
			if p.Required {
				marker = required.Sprint(" (required)")
			}
			fmt.Printf("  %s: %s%s\n", p.Name, p.Kind, marker)
		}
	}
	if len(descriptors) == 0 {
		fmt.Println(color.New(color.FgHiBlack).Sprint("no tools registered"))
	}
	return nil
}
