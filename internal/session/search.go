package session

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// fuzzyThreshold is the minimum normalized similarity for a query to match,
// adapted from the teacher's internal/tool/edit.go similarity() helper
// (agnivade/levenshtein-backed fuzzy string matching).
const fuzzyThreshold = 0.6

// similarity returns normalized Levenshtein similarity in [0,1].
func similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	dist := levenshtein.ComputeDistance(a, b)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return 1.0 - float64(dist)/float64(maxLen)
}

// matchesQuery reports whether field fuzzily contains query: an exact
// substring match always counts, otherwise a sliding window over field's
// words, as many words wide as query, is scored against query and the best
// window must clear fuzzyThreshold.
func matchesQuery(field, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(field), strings.ToLower(query)) {
		return true
	}

	words := strings.Fields(field)
	size := len(strings.Fields(query))
	if size == 0 || size > len(words) {
		return similarity(field, query) >= fuzzyThreshold
	}
	for i := 0; i+size <= len(words); i++ {
		if similarity(strings.Join(words[i:i+size], " "), query) >= fuzzyThreshold {
			return true
		}
	}
	return false
}

func matchesState(status types.SessionStatus, state types.SessionStatus) bool {
	return state == "" || status == state
}
