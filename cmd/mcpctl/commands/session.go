package commands

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or cancel sessions",
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <id>",
	Short: "Print a session's timeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionInspect,
}

var sessionCancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a running session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionCancel,
}

func init() {
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionCancelCmd)
}

func runSessionInspect(cmd *cobra.Command, args []string) error {
	client := newGatewayClient()

	var timeline json.RawMessage
	if err := client.get(cmd.Context(), "/api/sessions/"+args[0]+"/timeline", &timeline); err != nil {
		return err
	}

	pretty, err := json.MarshalIndent(timeline, "", "  ")
	if err != nil {
		return fmt.Errorf("render timeline: %w", err)
	}
	fmt.Println(string(pretty))
	return nil
}

// executeRequest mirrors internal/server's {tool,parameters} execute envelope.
type executeRequest struct {
	Tool       string `json:"tool"`
	Parameters any    `json:"parameters"`
}

func runSessionCancel(cmd *cobra.Command, args []string) error {
	client := newGatewayClient()

	req := executeRequest{
		Tool:       "session_cancel",
		Parameters: map[string]string{"id": args[0]},
	}

	var result json.RawMessage
	if err := client.post(cmd.Context(), "/mcp/execute", req, &result); err != nil {
		return err
	}

	fmt.Println(color.New(color.FgGreen, color.Bold).Sprintf("session %s cancelled", args[0]))
	return nil
}
