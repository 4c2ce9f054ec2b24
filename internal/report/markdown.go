// Package report renders a review comment collection into its persisted
// artifacts. The markdown report is a derived view grouped by priority;
// the JSON artifact is the lossless representation a later session reloads.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/revlinehq/revline/internal/comment"
)

// fixInstructions is the trailing block addressed to an automated consumer
// of the report. It is appended verbatim to every non-empty report.
const fixInstructions = `## Fix Instructions

Address the comments above in priority order:

1. Fix all CRITICAL items first. Do not proceed while any remain.
2. Then fix HIGH items, then MEDIUM, then LOW.
3. Within a priority group, fix items in the order listed.
4. Keep changes minimal and scoped to the referenced file and lines.
5. Do not reinterpret or rewrite the comment text; treat it as the requirement.`

// Generate renders the markdown review report for a branch. Comments are
// grouped Critical, High, Medium, Low, keeping insertion order inside each
// group. Empty groups are omitted entirely.
func Generate(comments []*comment.ReviewComment, branch string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Code Review: %s\n\n", branch))
	b.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339)))

	groups := groupByPriority(comments)

	b.WriteString("## Summary\n\n")
	b.WriteString(fmt.Sprintf("Total comments: %d\n\n", len(comments)))
	for _, p := range comment.PrioritiesByRank {
		if n := len(groups[p]); n > 0 {
			b.WriteString(fmt.Sprintf("- %s: %d\n", p.Label(), n))
		}
	}
	b.WriteString("\n")

	for _, p := range comment.PrioritiesByRank {
		group := groups[p]
		if len(group) == 0 {
			continue
		}

		b.WriteString(fmt.Sprintf("## %s\n\n", p.Label()))
		for i, c := range group {
			b.WriteString(fmt.Sprintf("### %s-%d\n\n", p.Label(), i+1))
			b.WriteString(fmt.Sprintf("- File: `%s`\n", c.File))
			b.WriteString(fmt.Sprintf("- Line: %s\n", formatLineRange(c)))
			b.WriteString(fmt.Sprintf("- Type: %s\n\n", c.Type))
			b.WriteString(c.Comment)
			b.WriteString("\n\n")
		}
	}

	if len(comments) > 0 {
		b.WriteString(fixInstructions)
		b.WriteString("\n")
	}

	return b.String()
}

// groupByPriority buckets comments without reordering within a bucket
func groupByPriority(comments []*comment.ReviewComment) map[comment.Priority][]*comment.ReviewComment {
	groups := make(map[comment.Priority][]*comment.ReviewComment, len(comment.PrioritiesByRank))
	for _, c := range comments {
		groups[c.Priority] = append(groups[c.Priority], c)
	}
	return groups
}

// formatLineRange renders "42" or "42-55" when a distinct end line is present
func formatLineRange(c *comment.ReviewComment) string {
	if c.EndLine != 0 && c.EndLine != c.Line {
		return fmt.Sprintf("%d-%d", c.Line, c.EndLine)
	}
	return fmt.Sprintf("%d", c.Line)
}
