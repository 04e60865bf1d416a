package tool

import (
	"context"
	"encoding/json"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/template"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// RegisterTemplateTools binds the Template Registry's public operations
// onto the registry under the "template_*" catalog names (SPEC_FULL.md §4.7).
func RegisterTemplateTools(r *Registry, svc *template.Service) {
	r.Register(types.ToolDescriptor{
		Name:        "template_create",
		Description: "Create a named reusable session configuration.",
		Parameters: []types.ParamSpec{
			{Name: "name", Kind: types.ParamString, Required: true},
			{Name: "description", Kind: types.ParamString},
			{Name: "config", Kind: types.ParamObject, Required: true},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var body struct {
			Name        string              `json:"name"`
			Description string              `json:"description"`
			Config      types.SessionConfig `json:"config"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, apperr.New(apperr.Validation, "malformed parameters: %v", err)
		}
		return svc.Create(ctx, body.Name, body.Description, body.Config)
	})

	r.Register(types.ToolDescriptor{
		Name:        "template_get",
		Description: "Fetch a template by name.",
		Parameters:  []types.ParamSpec{{Name: "name", Kind: types.ParamString, Required: true}},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		name, err := requireName(raw)
		if err != nil {
			return nil, err
		}
		return svc.Get(ctx, name)
	})

	r.Register(types.ToolDescriptor{
		Name:        "template_list",
		Description: "List all templates, sorted by name.",
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		return svc.List(ctx)
	})

	r.Register(types.ToolDescriptor{
		Name:        "template_delete",
		Description: "Delete a template by name.",
		Parameters:  []types.ParamSpec{{Name: "name", Kind: types.ParamString, Required: true}},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		name, err := requireName(raw)
		if err != nil {
			return nil, err
		}
		return nil, svc.Delete(ctx, name)
	})

	r.Register(types.ToolDescriptor{
		Name:        "template_create_session",
		Description: "Create a session from a template, merging overrides over its stored config.",
		Parameters: []types.ParamSpec{
			{Name: "name", Kind: types.ParamString, Required: true},
			{Name: "prompt", Kind: types.ParamString},
			{Name: "source", Kind: types.ParamString},
			{Name: "branch", Kind: types.ParamString},
			{Name: "title", Kind: types.ParamString},
		},
	}, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var body struct {
			Name   string  `json:"name"`
			Prompt *string `json:"prompt"`
			Source *string `json:"source"`
			Branch *string `json:"branch"`
			Title  *string `json:"title"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, apperr.New(apperr.Validation, "malformed parameters: %v", err)
		}
		overrides := types.TemplateOverrides{Prompt: body.Prompt, Source: body.Source, Branch: body.Branch, Title: body.Title}
		return svc.CreateFromTemplate(ctx, body.Name, overrides)
	})
}

func requireName(raw json.RawMessage) (string, error) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", apperr.New(apperr.Validation, "malformed parameters: %v", err)
	}
	if body.Name == "" {
		return "", apperr.NewValidation("invalid parameters", apperr.Issue{Field: "name", Message: "is required"})
	}
	return body.Name, nil
}
