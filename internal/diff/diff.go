// Package diff classifies the lines of two versions of a text as unchanged,
// added, or removed, and anchors each classified line to its position in one
// or both versions.
//
// The matcher is a heuristic single pass over both texts, not a minimal edit
// script. Lines that appear more than once can be matched to the wrong
// occurrence, and moved blocks may surface as remove/add pairs. That is
// acceptable here: the output drives terminal coloring and comment anchoring,
// never a lossless patch.
package diff

import "strings"

// LineType classifies a single diff line
type LineType string

const (
	// LineUnchanged is a line present in both versions at the cursor
	LineUnchanged LineType = "unchanged"
	// LineAdded is a line present only in the modified version
	LineAdded LineType = "added"
	// LineRemoved is a line present only in the original version
	LineRemoved LineType = "removed"
)

// Line is one classified line with its anchors. OldLine and NewLine are
// 1-based; a zero value means the line has no anchor in that version.
type Line struct {
	Type    LineType `json:"type"`
	Content string   `json:"content"`
	OldLine int      `json:"old_line,omitempty"`
	NewLine int      `json:"new_line,omitempty"`
}

// iterationSlack bounds the matching loop beyond the provable maximum of
// len(original)+len(modified) emitted lines, guarding implementation bugs.
const iterationSlack = 8

// Compute maps an original and a modified text to a sequence of classified
// lines. Comment anchors index into the NewLine space of the result.
func Compute(original, modified string) []Line {
	oldLines := splitLines(original)
	newLines := splitLines(modified)

	if len(oldLines) == 0 && len(newLines) == 0 {
		return []Line{}
	}

	oldSet := lineSet(oldLines)
	newSet := lineSet(newLines)

	lines := make([]Line, 0, len(oldLines)+len(newLines))
	oldIdx, newIdx := 0, 0

	maxIterations := len(oldLines) + len(newLines) + iterationSlack
	for i := 0; oldIdx < len(oldLines) || newIdx < len(newLines); i++ {
		if i >= maxIterations {
			// Loop bound exceeded; return what was classified so far
			return lines
		}

		switch {
		case oldIdx >= len(oldLines):
			// Original exhausted; everything left is added
			lines = append(lines, Line{Type: LineAdded, Content: newLines[newIdx], NewLine: newIdx + 1})
			newIdx++

		case newIdx >= len(newLines):
			// Modified exhausted; everything left is removed
			lines = append(lines, Line{Type: LineRemoved, Content: oldLines[oldIdx], OldLine: oldIdx + 1})
			oldIdx++

		case oldLines[oldIdx] == newLines[newIdx]:
			lines = append(lines, Line{
				Type:    LineUnchanged,
				Content: oldLines[oldIdx],
				OldLine: oldIdx + 1,
				NewLine: newIdx + 1,
			})
			oldIdx++
			newIdx++

		case !newSet[oldLines[oldIdx]]:
			// Old line has no equal-content match anywhere in modified
			lines = append(lines, Line{Type: LineRemoved, Content: oldLines[oldIdx], OldLine: oldIdx + 1})
			oldIdx++

		case !oldSet[newLines[newIdx]]:
			// New line has no equal-content match anywhere in original
			lines = append(lines, Line{Type: LineAdded, Content: newLines[newIdx], NewLine: newIdx + 1})
			newIdx++

		default:
			// Both lines exist somewhere in the other text but not at the
			// cursor; treat as a replacement pair
			lines = append(lines,
				Line{Type: LineRemoved, Content: oldLines[oldIdx], OldLine: oldIdx + 1},
				Line{Type: LineAdded, Content: newLines[newIdx], NewLine: newIdx + 1},
			)
			oldIdx++
			newIdx++
		}
	}

	return lines
}

// splitLines splits a text into lines, treating an empty text as zero lines
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// lineSet builds a membership set of line contents
func lineSet(lines []string) map[string]bool {
	set := make(map[string]bool, len(lines))
	for _, line := range lines {
		set[line] = true
	}
	return set
}
