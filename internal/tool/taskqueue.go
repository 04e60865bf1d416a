package tool

import (
	"context"
	"encoding/json"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/taskqueue"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// RegisterTaskQueueTools binds the Task Queue's public operations onto the
// registry under the "task_*" catalog names (SPEC_FULL.md §4.12).
func RegisterTaskQueueTools(r *Registry, svc *taskqueue.Service) {
	r.Register(types.ToolDescriptor{
		Name:        "task_accept",
		Description: "Accept an externally-triggered task; exactly one session results from it.",
		Parameters: []types.ParamSpec{
			{Name: "trigger", Kind: types.ParamString, Required: true},
			{Name: "config", Kind: types.ParamObject, Required: true},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var body struct {
			Trigger string              `json:"trigger"`
			Config  types.SessionConfig `json:"config"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, apperr.New(apperr.Validation, "malformed parameters: %v", err)
		}
		return svc.Accept(body.Trigger, body.Config), nil
	})

	r.Register(types.ToolDescriptor{
		Name:        "task_get",
		Description: "Fetch a task item by id.",
		Parameters:  []types.ParamSpec{{Name: "id", Kind: types.ParamString, Required: true}},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		id, err := requireID(raw)
		if err != nil {
			return nil, err
		}
		return svc.Get(id)
	})

	r.Register(types.ToolDescriptor{
		Name:        "task_list",
		Description: "List all task items.",
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return svc.List(), nil
	})

	r.Register(types.ToolDescriptor{
		Name:        "task_stats",
		Description: "Aggregate task-queue counters.",
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return svc.Stats(), nil
	})
}
