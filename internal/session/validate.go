package session

import (
	"regexp"
	"strings"

	"github.com/opencode-ai/mcp-gateway/internal/apperr"
	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// sourcePattern matches "sources/<provider>/<owner>/<repo>" with owner and
// repo components limited to 100 characters (SPEC_FULL.md §4.3 create()).
var sourcePattern = regexp.MustCompile(`^sources/[A-Za-z0-9_-]+/([^/]{1,100})/([^/]{1,100})$`)

// validateCreateConfig validates a new session's configuration per the
// Session Manager's create() contract.
func validateCreateConfig(cfg types.SessionConfig) error {
	var issues []apperr.Issue

	if !sourcePattern.MatchString(cfg.Source) || strings.Contains(cfg.Source, "..") {
		issues = append(issues, apperr.Issue{Field: "source", Message: "must match sources/<provider>/<owner>/<repo> with no \"..\""})
	}

	if l := len(cfg.Prompt); l < 10 || l > 10000 {
		issues = append(issues, apperr.Issue{Field: "prompt", Message: "must be between 10 and 10000 characters"})
	}

	if len(cfg.Branch) > 100 {
		issues = append(issues, apperr.Issue{Field: "branch", Message: "must be at most 100 characters"})
	}

	if len(cfg.Title) > 200 {
		issues = append(issues, apperr.Issue{Field: "title", Message: "must be at most 200 characters"})
	}

	switch cfg.AutomationMode {
	case "", types.AutomationAutoCreatePR, types.AutomationNone:
	default:
		issues = append(issues, apperr.Issue{Field: "automationMode", Message: "must be AUTO_CREATE_PR or NONE"})
	}

	if len(issues) > 0 {
		return apperr.NewValidation("invalid session configuration", issues...)
	}
	return nil
}
