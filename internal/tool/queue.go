package tool

import (
	"context"
	"encoding/json"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/queue"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// RegisterQueueTools binds the Priority Queue's public operations onto the
// registry under the "queue_*" catalog names (SPEC_FULL.md §4.6).
func RegisterQueueTools(r *Registry, svc *queue.Service) {
	r.Register(types.ToolDescriptor{
		Name:        "queue_add",
		Description: "Admit a session-creation request at a given priority (lower wins).",
		Parameters: []types.ParamSpec{
			{Name: "config", Kind: types.ParamObject, Required: true},
			{Name: "priority", Kind: types.ParamNumber},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var body struct {
			Config   types.SessionConfig `json:"config"`
			Priority int                 `json:"priority"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, apperr.New(apperr.Validation, "malformed parameters: %v", err)
		}
		return svc.Add(body.Config, body.Priority), nil
	})

	r.Register(types.ToolDescriptor{
		Name:        "queue_list",
		Description: "List all queue items.",
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return svc.List(), nil
	})

	r.Register(types.ToolDescriptor{
		Name:        "queue_stats",
		Description: "Aggregate queue occupancy counters.",
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return svc.Stats(), nil
	})

	r.Register(types.ToolDescriptor{
		Name:        "queue_clear",
		Description: "Remove all pending queue items; returns the number removed.",
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return svc.Clear(), nil
	})
}
