package session

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/opencode-ai/mcp-gateway/pkg/types"
)

// renderDiff computes a unified diff and addition/deletion counts for one
// file, adapted from the teacher's internal/session/tools.go computeDiff:
// a line-based diffmatchpatch pass followed by a minimal unified-diff
// renderer (no surrounding context lines, since the upstream provider
// already scopes the before/after snippet to the changed region).
func renderDiff(path, before, after string) types.FileDiff {
	dmp := diffmatchpatch.New()

	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	additions, deletions := 0, 0
	var buf strings.Builder
	fmt.Fprintf(&buf, "--- a/%s\n+++ b/%s\n", path, path)

	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				additions++
				buf.WriteString("+" + line + "\n")
			case diffmatchpatch.DiffDelete:
				deletions++
				buf.WriteString("-" + line + "\n")
			case diffmatchpatch.DiffEqual:
				buf.WriteString(" " + line + "\n")
			}
		}
	}

	return types.FileDiff{
		Path:      path,
		Additions: additions,
		Deletions: deletions,
		Unified:   buf.String(),
	}
}

// splitLines splits on "\n" without producing a trailing empty element for
// text that ends with a newline, matching how diffmatchpatch's line mode
// groups whole lines per diff chunk.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(text, "\n")
	return strings.Split(trimmed, "\n")
}
