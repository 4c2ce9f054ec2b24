package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBothEmpty(t *testing.T) {
	lines := Compute("", "")
	assert.Empty(t, lines)
}

func TestComputeAllAdded(t *testing.T) {
	lines := Compute("", "x\ny")

	require.Len(t, lines, 2)
	assert.Equal(t, Line{Type: LineAdded, Content: "x", NewLine: 1}, lines[0])
	assert.Equal(t, Line{Type: LineAdded, Content: "y", NewLine: 2}, lines[1])
}

func TestComputeAllRemoved(t *testing.T) {
	lines := Compute("x\ny", "")

	require.Len(t, lines, 2)
	assert.Equal(t, Line{Type: LineRemoved, Content: "x", OldLine: 1}, lines[0])
	assert.Equal(t, Line{Type: LineRemoved, Content: "y", OldLine: 2}, lines[1])
}

func TestComputeIdentical(t *testing.T) {
	text := "package main\n\nfunc main() {}\n"
	lines := Compute(text, text)

	require.Len(t, lines, 4) // trailing newline yields a final empty line
	for i, line := range lines {
		assert.Equal(t, LineUnchanged, line.Type)
		assert.Equal(t, i+1, line.OldLine, "old line number should be positional")
		assert.Equal(t, line.OldLine, line.NewLine, "anchors should match for unchanged lines")
	}
}

func TestComputeReplacement(t *testing.T) {
	lines := Compute("a\nb\nc", "a\nx\nc")

	require.Len(t, lines, 4)
	assert.Equal(t, Line{Type: LineUnchanged, Content: "a", OldLine: 1, NewLine: 1}, lines[0])
	assert.Equal(t, Line{Type: LineRemoved, Content: "b", OldLine: 2}, lines[1])
	assert.Equal(t, Line{Type: LineAdded, Content: "x", NewLine: 2}, lines[2])
	assert.Equal(t, Line{Type: LineUnchanged, Content: "c", OldLine: 3, NewLine: 3}, lines[3])
}

func TestComputeInsertion(t *testing.T) {
	lines := Compute("a\nc", "a\nb\nc")

	require.Len(t, lines, 3)
	assert.Equal(t, Line{Type: LineUnchanged, Content: "a", OldLine: 1, NewLine: 1}, lines[0])
	assert.Equal(t, Line{Type: LineAdded, Content: "b", NewLine: 2}, lines[1])
	assert.Equal(t, Line{Type: LineUnchanged, Content: "c", OldLine: 2, NewLine: 3}, lines[2])
}

func TestComputeDeletion(t *testing.T) {
	lines := Compute("a\nb\nc", "a\nc")

	require.Len(t, lines, 3)
	assert.Equal(t, Line{Type: LineUnchanged, Content: "a", OldLine: 1, NewLine: 1}, lines[0])
	assert.Equal(t, Line{Type: LineRemoved, Content: "b", OldLine: 2}, lines[1])
	assert.Equal(t, Line{Type: LineUnchanged, Content: "c", OldLine: 3, NewLine: 2}, lines[2])
}

func TestComputeReplacementPairForRelocatedLines(t *testing.T) {
	// Both cursor lines exist in the other text but not at the cursor, so the
	// heuristic emits a remove/add pair rather than tracking the move.
	lines := Compute("a\nb", "b\na")

	require.Len(t, lines, 2)
	assert.Equal(t, Line{Type: LineRemoved, Content: "a", OldLine: 1}, lines[0])
	assert.Equal(t, Line{Type: LineAdded, Content: "b", NewLine: 1}, lines[1])
}

func TestComputeAnchorsAreMonotonic(t *testing.T) {
	original := "one\ntwo\nthree\nfour\nfive"
	modified := "one\n2\nthree\nfour and a half\nfive\nsix"

	lines := Compute(original, modified)

	lastOld, lastNew := 0, 0
	for _, line := range lines {
		if line.OldLine != 0 {
			assert.Greater(t, line.OldLine, lastOld)
			lastOld = line.OldLine
		}
		if line.NewLine != 0 {
			assert.Greater(t, line.NewLine, lastNew)
			lastNew = line.NewLine
		}
	}

	// Every input line is accounted for exactly once per side
	assert.Equal(t, 5, lastOld)
	assert.Equal(t, 6, lastNew)
}

func TestComputeLargeInputTerminates(t *testing.T) {
	var oldLines, newLines []string
	for i := 0; i < 500; i++ {
		oldLines = append(oldLines, "line")
		newLines = append(newLines, "line changed")
	}

	lines := Compute(strings.Join(oldLines, "\n"), strings.Join(newLines, "\n"))
	assert.LessOrEqual(t, len(lines), 1000+iterationSlack)
	assert.NotEmpty(t, lines)
}

func TestRenderIncludesGutters(t *testing.T) {
	out := Render(Compute("a", "b"))

	assert.Contains(t, out, "- a")
	assert.Contains(t, out, "+ b")
}
