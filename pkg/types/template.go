package types

import "time"

// Template is a named reusable session configuration.
type Template struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Config      SessionConfig `json:"config"`
	CreatedAt   time.Time     `json:"createdAt"`
	UsageCount  int           `json:"usageCount"`
}

// TemplateOverrides is merged over a stored template's config.
type TemplateOverrides struct {
	Prompt *string `json:"prompt,omitempty"`
	Source *string `json:"source,omitempty"`
	Branch *string `json:"branch,omitempty"`
	Title  *string `json:"title,omitempty"`
}
