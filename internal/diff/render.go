package diff

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	addedColor     = color.New(color.FgGreen)
	removedColor   = color.New(color.FgRed)
	unchangedColor = color.New(color.Faint)
	gutterColor    = color.New(color.FgHiBlack)
)

// Render formats diff lines for terminal display with a two-column
// line-number gutter (old and new) and per-type coloring.
func Render(lines []Line) string {
	var b strings.Builder

	for _, line := range lines {
		gutter := gutterColor.Sprintf("%4s %4s", lineNum(line.OldLine), lineNum(line.NewLine))

		switch line.Type {
		case LineAdded:
			b.WriteString(fmt.Sprintf("%s %s\n", gutter, addedColor.Sprintf("+ %s", line.Content)))
		case LineRemoved:
			b.WriteString(fmt.Sprintf("%s %s\n", gutter, removedColor.Sprintf("- %s", line.Content)))
		default:
			b.WriteString(fmt.Sprintf("%s %s\n", gutter, unchangedColor.Sprintf("  %s", line.Content)))
		}
	}

	return b.String()
}

func lineNum(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprintf("%d", n)
}
