package types

// ParamKind enumerates the primitive kinds a tool parameter may take.
type ParamKind string

const (
	ParamString  ParamKind = "string"
	ParamNumber  ParamKind = "number"
	ParamBoolean ParamKind = "boolean"
	ParamObject  ParamKind = "object"
	ParamArray   ParamKind = "array"
)

// ParamSpec describes one parameter of a Tool.
type ParamSpec struct {
	Name        string    `json:"name"`
	Kind        ParamKind `json:"kind"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
	Default     any       `json:"default,omitempty"`
}

// ToolDescriptor is the immutable catalog entry for a registered tool.
type ToolDescriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []ParamSpec `json:"parameters"`
}
