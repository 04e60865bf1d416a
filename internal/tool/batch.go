package tool

import (
	"context"
	"encoding/json"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/batch"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// RegisterBatchTools binds the Batch Processor's public operations onto the
// registry under the "batch_*" catalog names (SPEC_FULL.md §4.5).
func RegisterBatchTools(r *Registry, svc *batch.Service) {
	r.Register(types.ToolDescriptor{
		Name:        "batch_create",
		Description: "Create a batch of sessions dispatched under a bounded concurrency budget.",
		Parameters: []types.ParamSpec{
			{Name: "tasks", Kind: types.ParamArray, Required: true},
			{Name: "parallel", Kind: types.ParamNumber},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var body struct {
			Tasks    []types.BatchTask `json:"tasks"`
			Parallel int               `json:"parallel"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, apperr.New(apperr.Validation, "malformed parameters: %v", err)
		}
		return svc.CreateBatch(ctx, body.Tasks, body.Parallel)
	})

	r.Register(types.ToolDescriptor{
		Name:        "batch_get_status",
		Description: "Fetch a batch's snapshot by id.",
		Parameters:  []types.ParamSpec{{Name: "batchId", Kind: types.ParamString, Required: true}},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		id, err := requireBatchID(raw)
		if err != nil {
			return nil, err
		}
		return svc.GetBatchStatus(id)
	})

	r.Register(types.ToolDescriptor{
		Name:        "batch_list",
		Description: "List all batches.",
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return svc.ListBatches(), nil
	})

	r.Register(types.ToolDescriptor{
		Name:        "batch_approve_all",
		Description: "Approve every member of a batch awaiting plan approval.",
		Parameters:  []types.ParamSpec{{Name: "batchId", Kind: types.ParamString, Required: true}},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		id, err := requireBatchID(raw)
		if err != nil {
			return nil, err
		}
		return nil, svc.ApproveAllInBatch(ctx, id)
	})

	r.Register(types.ToolDescriptor{
		Name:        "batch_retry_failed",
		Description: "Retry every failed member of a batch once, preserving task position.",
		Parameters:  []types.ParamSpec{{Name: "batchId", Kind: types.ParamString, Required: true}},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		id, err := requireBatchID(raw)
		if err != nil {
			return nil, err
		}
		return nil, svc.RetryFailedInBatch(ctx, id)
	})
}

func requireBatchID(raw json.RawMessage) (string, error) {
	var body struct {
		BatchID string `json:"batchId"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", apperr.New(apperr.Validation, "malformed parameters: %v", err)
	}
	if body.BatchID == "" {
		return "", apperr.NewValidation("invalid parameters", apperr.Issue{Field: "batchId", Message: "is required"})
	}
	return body.BatchID, nil
}
