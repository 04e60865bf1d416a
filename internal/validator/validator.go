package validator

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/internal/tool"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// ValidateName checks a caller-supplied tool name against the same
// NamePattern invariant the registry enforces at registration, so an
// execute request with a malformed name fails with a 400 Validation error
// rather than the generic "unknown tool" 400 Lookup returns.
func ValidateName(name string) error {
	if !tool.NamePattern.MatchString(name) {
		return apperr.NewValidation("invalid tool name", apperr.Issue{Field: "tool", Message: "must match " + tool.NamePattern.String()})
	}
	return nil
}

// Validator compiles one JSON schema per tool from its ParamSpec catalog and
// validates incoming parameter envelopes against it.
type Validator struct {
	mu      sync.RWMutex
	schemas map[string]*jsonschema.Schema
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{schemas: make(map[string]*jsonschema.Schema)}
}

// Register compiles and stores the schema for one tool's parameters. It
// replaces any previously registered schema for the same name.
func (v *Validator) Register(toolName string, params []types.ParamSpec) error {
	schemaDoc := buildSchema(params)

	c := jsonschema.NewCompiler()
	if err := c.AddResource(toolName, schemaDoc); err != nil {
		return fmt.Errorf("add schema resource for %q: %w", toolName, err)
	}
	schema, err := c.Compile(toolName)
	if err != nil {
		return fmt.Errorf("compile schema for %q: %w", toolName, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.schemas[toolName] = schema
	return nil
}

// Validate checks parameters against the tool's registered schema. A tool
// with no registered schema passes through unchecked.
func (v *Validator) Validate(toolName string, parameters json.RawMessage) error {
	v.mu.RLock()
	schema, ok := v.schemas[toolName]
	v.mu.RUnlock()
	if !ok {
		return nil
	}

	var doc any
	if len(parameters) > 0 {
		if err := json.Unmarshal(parameters, &doc); err != nil {
			return apperr.NewValidation("parameters must be valid JSON", apperr.Issue{Field: "parameters", Message: err.Error()})
		}
	} else {
		doc = map[string]any{}
	}

	if err := schema.Validate(doc); err != nil {
		return apperr.NewValidation("parameter validation failed", apperr.Issue{Field: "parameters", Message: err.Error()})
	}
	return nil
}

// buildSchema renders a tool's ParamSpec list as a JSON Schema object
// document: one property per parameter, required entries listed explicitly.
func buildSchema(params []types.ParamSpec) map[string]any {
	properties := make(map[string]any, len(params))
	required := make([]string, 0, len(params))

	for _, p := range params {
		prop := map[string]any{"type": jsonType(p.Kind)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": true,
	}
}

func jsonType(kind types.ParamKind) string {
	switch kind {
	case types.ParamString:
		return "string"
	case types.ParamNumber:
		return "number"
	case types.ParamBoolean:
		return "boolean"
	case types.ParamObject:
		return "object"
	case types.ParamArray:
		return "array"
	default:
		return "string"
	}
}
