package tool

import (
	"context"
	"encoding/json"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/session"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// RegisterSessionTools binds the Session Manager's public operations onto
// the registry under the "session_*" catalog names named in SPEC_FULL.md
// §4.3 ("Public operations (mirror the tool catalog)").
func RegisterSessionTools(r *Registry, svc *session.Service) {
	r.Register(types.ToolDescriptor{
		Name:        "session_create",
		Description: "Create a new coding session against an upstream source.",
		Parameters: []types.ParamSpec{
			{Name: "prompt", Kind: types.ParamString, Required: true},
			{Name: "source", Kind: types.ParamString, Required: true, Description: "sources/<provider>/<owner>/<repo>"},
			{Name: "branch", Kind: types.ParamString},
			{Name: "title", Kind: types.ParamString},
			{Name: "requirePlanApproval", Kind: types.ParamBoolean},
			{Name: "automationMode", Kind: types.ParamString, Description: "AUTO_CREATE_PR or NONE"},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var cfg types.SessionConfig
		if err := json.Unmarshal(raw, &cfg); err != nil {
			return nil, apperr.New(apperr.Validation, "malformed parameters: %v", err)
		}
		return svc.Create(ctx, cfg)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_get",
		Description: "Fetch a session by id.",
		Parameters:  []types.ParamSpec{{Name: "id", Kind: types.ParamString, Required: true}},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		id, err := requireID(raw)
		if err != nil {
			return nil, err
		}
		return svc.Get(ctx, id)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_list",
		Description: "List sessions, optionally filtered by state.",
		Parameters: []types.ParamSpec{
			{Name: "state", Kind: types.ParamString},
			{Name: "limit", Kind: types.ParamNumber},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var filter types.SessionFilter
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &filter); err != nil {
				return nil, apperr.New(apperr.Validation, "malformed parameters: %v", err)
			}
		}
		return svc.List(ctx, filter)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_send_message",
		Description: "Send a follow-up message to a non-terminal session.",
		Parameters: []types.ParamSpec{
			{Name: "id", Kind: types.ParamString, Required: true},
			{Name: "message", Kind: types.ParamString, Required: true},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var body struct {
			ID      string `json:"id"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, apperr.New(apperr.Validation, "malformed parameters: %v", err)
		}
		return svc.SendMessage(ctx, body.ID, body.Message)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_approve_plan",
		Description: "Approve a session awaiting plan approval.",
		Parameters:  []types.ParamSpec{{Name: "id", Kind: types.ParamString, Required: true}},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		id, err := requireID(raw)
		if err != nil {
			return nil, err
		}
		return svc.ApprovePlan(ctx, id)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_cancel",
		Description: "Cancel a session.",
		Parameters:  []types.ParamSpec{{Name: "id", Kind: types.ParamString, Required: true}},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		id, err := requireID(raw)
		if err != nil {
			return nil, err
		}
		return svc.Cancel(ctx, id)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_delete",
		Description: "Delete a session record.",
		Parameters:  []types.ParamSpec{{Name: "id", Kind: types.ParamString, Required: true}},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		id, err := requireID(raw)
		if err != nil {
			return nil, err
		}
		return nil, svc.Delete(ctx, id)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_get_activities",
		Description: "Get a session's append-only activity log.",
		Parameters:  []types.ParamSpec{{Name: "id", Kind: types.ParamString, Required: true}},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		id, err := requireID(raw)
		if err != nil {
			return nil, err
		}
		return svc.GetActivities(ctx, id)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_get_diff",
		Description: "Get the unified diff of a session's changed files.",
		Parameters:  []types.ParamSpec{{Name: "id", Kind: types.ParamString, Required: true}},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		id, err := requireID(raw)
		if err != nil {
			return nil, err
		}
		return svc.GetDiff(ctx, id)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_clone",
		Description: "Clone a session's configuration into a new session.",
		Parameters: []types.ParamSpec{
			{Name: "id", Kind: types.ParamString, Required: true},
			{Name: "promptOverride", Kind: types.ParamString},
			{Name: "titleOverride", Kind: types.ParamString},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var body struct {
			ID             string  `json:"id"`
			PromptOverride *string `json:"promptOverride"`
			TitleOverride  *string `json:"titleOverride"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, apperr.New(apperr.Validation, "malformed parameters: %v", err)
		}
		return svc.Clone(ctx, body.ID, body.PromptOverride, body.TitleOverride)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_retry",
		Description: "Re-run a terminal session's configuration as a new session.",
		Parameters: []types.ParamSpec{
			{Name: "id", Kind: types.ParamString, Required: true},
			{Name: "promptOverride", Kind: types.ParamString},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var body struct {
			ID             string  `json:"id"`
			PromptOverride *string `json:"promptOverride"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, apperr.New(apperr.Validation, "malformed parameters: %v", err)
		}
		return svc.Retry(ctx, body.ID, body.PromptOverride)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_search_by_title",
		Description: "Fuzzy-search sessions by title.",
		Parameters: []types.ParamSpec{
			{Name: "query", Kind: types.ParamString, Required: true},
			{Name: "state", Kind: types.ParamString},
			{Name: "limit", Kind: types.ParamNumber},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		q, err := decodeSearchQuery(raw)
		if err != nil {
			return nil, err
		}
		return svc.SearchByTitle(ctx, q.Query, q.State, q.Limit)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_search_by_prompt",
		Description: "Fuzzy-search sessions by prompt.",
		Parameters: []types.ParamSpec{
			{Name: "query", Kind: types.ParamString, Required: true},
			{Name: "state", Kind: types.ParamString},
			{Name: "limit", Kind: types.ParamNumber},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		q, err := decodeSearchQuery(raw)
		if err != nil {
			return nil, err
		}
		return svc.SearchByPrompt(ctx, q.Query, q.State, q.Limit)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_search_by_state",
		Description: "List sessions in a given state.",
		Parameters: []types.ParamSpec{
			{Name: "state", Kind: types.ParamString, Required: true},
			{Name: "limit", Kind: types.ParamNumber},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		q, err := decodeSearchQuery(raw)
		if err != nil {
			return nil, err
		}
		return svc.SearchByState(ctx, q.State, q.Limit)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_monitor_all",
		Description: "Aggregate session counts and ids per state.",
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return svc.MonitorAll(ctx)
	})

	r.Register(types.ToolDescriptor{
		Name:        "session_timeline",
		Description: "Get a session's activities newest-first with inter-event durations.",
		Parameters:  []types.ParamSpec{{Name: "id", Kind: types.ParamString, Required: true}},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		id, err := requireID(raw)
		if err != nil {
			return nil, err
		}
		return svc.Timeline(ctx, id)
	})
}

func requireID(raw json.RawMessage) (string, error) {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", apperr.New(apperr.Validation, "malformed parameters: %v", err)
	}
	if body.ID == "" {
		return "", apperr.NewValidation("invalid parameters", apperr.Issue{Field: "id", Message: "is required"})
	}
	return body.ID, nil
}

type searchQuery struct {
	Query string
	State types.SessionStatus
	Limit int
}

func decodeSearchQuery(raw json.RawMessage) (searchQuery, error) {
	var body struct {
		Query string `json:"query"`
		State string `json:"state"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return searchQuery{}, apperr.New(apperr.Validation, "malformed parameters: %v", err)
	}
	return searchQuery{Query: body.Query, State: types.SessionStatus(body.State), Limit: body.Limit}, nil
}
