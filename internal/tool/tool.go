// Package tool implements the Tool Registry & Dispatch component
// (SPEC_FULL.md §4.2): a constant-time name->handler lookup plus the
// execute flow that validates, invokes, and maps a handler's outcome onto
// the gateway's error taxonomy.
package tool

import (
	"context"
	"encoding/json"

	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// Handler executes one tool call. params is the raw JSON parameters object;
// the returned value is marshaled as-is into the success envelope.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// entry pairs a handler with its immutable catalog descriptor.
type entry struct {
	descriptor types.ToolDescriptor
	handler    Handler
}
