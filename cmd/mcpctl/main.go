// Package main provides the entry point for the mcpctl operator CLI.
package main

import (
	"fmt"
	"os"

	"github.com/opencode-ai/mcp-gateway/cmd/mcpctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
