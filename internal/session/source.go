package session

import "strings"

// parseSource splits a validated "sources/<provider>/<owner>/<repo>" string
// into its components, adapted from the teacher's internal/project/service.go
// (which derived a stable project handle from a worktree path instead of a
// source string). Callers must validate the raw string against
// sourcePattern first; parseSource assumes it already matches.
func parseSource(raw string) (provider, owner, repo string) {
	parts := strings.SplitN(raw, "/", 4)
	if len(parts) != 4 {
		return "", "", ""
	}
	return parts[1], parts[2], parts[3]
}
