package tool

import (
	"context"
	"encoding/json"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/approval"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// RegisterApprovalTools binds the approval queue's public operations onto
// the registry under the "approval_*" catalog names (SPEC_FULL.md §4.3's
// workflow-instance approval queue, persisted as approval_queue in §6).
func RegisterApprovalTools(r *Registry, checker *approval.Checker) {
	r.Register(types.ToolDescriptor{
		Name:        "approval_request",
		Description: "File a new approval-queue entry for a workflow instance's plan.",
		Parameters: []types.ParamSpec{
			{Name: "workflowInstance", Kind: types.ParamString, Required: true},
			{Name: "planSummary", Kind: types.ParamString, Required: true},
			{Name: "estimatedFiles", Kind: types.ParamNumber},
			{Name: "riskLevel", Kind: types.ParamString},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var body struct {
			WorkflowInstance string `json:"workflowInstance"`
			PlanSummary      string `json:"planSummary"`
			EstimatedFiles   int    `json:"estimatedFiles"`
			RiskLevel        string `json:"riskLevel"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, apperr.New(apperr.Validation, "malformed parameters: %v", err)
		}
		return checker.RequestApproval(body.WorkflowInstance, body.PlanSummary, body.EstimatedFiles, body.RiskLevel), nil
	})

	r.Register(types.ToolDescriptor{
		Name:        "approval_decide",
		Description: "Record a human decision for a pending approval-queue entry.",
		Parameters: []types.ParamSpec{
			{Name: "id", Kind: types.ParamString, Required: true},
			{Name: "decision", Kind: types.ParamString, Required: true, Description: "approved or rejected"},
			{Name: "approvedBy", Kind: types.ParamString},
			{Name: "notes", Kind: types.ParamString},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var body struct {
			ID         string `json:"id"`
			Decision   string `json:"decision"`
			ApprovedBy string `json:"approvedBy"`
			Notes      string `json:"notes"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, apperr.New(apperr.Validation, "malformed parameters: %v", err)
		}
		if body.ID == "" {
			return nil, apperr.NewValidation("invalid parameters", apperr.Issue{Field: "id", Message: "is required"})
		}
		return checker.Decide(body.ID, types.ApprovalDecision(body.Decision), body.ApprovedBy, body.Notes), nil
	})

	r.Register(types.ToolDescriptor{
		Name:        "approval_get",
		Description: "Fetch an approval-queue entry by id.",
		Parameters:  []types.ParamSpec{{Name: "id", Kind: types.ParamString, Required: true}},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		id, err := requireID(raw)
		if err != nil {
			return nil, err
		}
		entry, ok := checker.Get(id)
		if !ok {
			return nil, apperr.NewNotFound("approval entry not found")
		}
		return entry, nil
	})

	r.Register(types.ToolDescriptor{
		Name:        "approval_list_pending",
		Description: "List all approval-queue entries still awaiting a decision.",
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return checker.ListPending(), nil
	})
}
