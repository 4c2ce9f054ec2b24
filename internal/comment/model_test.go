package comment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndAmend(t *testing.T) {
	c := New("a.go", 7, "tighten this loop", TypeSuggestion, PriorityLow)

	assert.Equal(t, "a.go", c.File)
	assert.Equal(t, 7, c.Line)
	assert.Zero(t, c.EndLine)
	assert.False(t, c.Timestamp.IsZero())

	before := c.Timestamp
	time.Sleep(time.Millisecond)
	c.Amend("rewrite as a range loop", TypeIssue, PriorityHigh)

	assert.Equal(t, "rewrite as a range loop", c.Comment)
	assert.Equal(t, TypeIssue, c.Type)
	assert.Equal(t, PriorityHigh, c.Priority)
	assert.True(t, c.Timestamp.After(before), "Amend should refresh the timestamp")
}

func TestPriorityRankOrdering(t *testing.T) {
	for i := 1; i < len(PrioritiesByRank); i++ {
		assert.Less(t, PrioritiesByRank[i-1].Rank(), PrioritiesByRank[i].Rank())
	}
}

func TestPriorityLabel(t *testing.T) {
	assert.Equal(t, "CRITICAL", PriorityCritical.Label())
	assert.Equal(t, "LOW", PriorityLow.Label())
}

func TestMapStringToType(t *testing.T) {
	assert.Equal(t, TypeIssue, MapStringToType("issue"))
	assert.Equal(t, TypeSuggestion, MapStringToType("Suggestion"))
	assert.Equal(t, TypeQuestion, MapStringToType("QUESTION"))
	assert.Equal(t, TypePraise, MapStringToType("praise"))
	assert.Equal(t, TypeIssue, MapStringToType("bogus"))
}

func TestMapStringToPriority(t *testing.T) {
	assert.Equal(t, PriorityCritical, MapStringToPriority("critical"))
	assert.Equal(t, PriorityHigh, MapStringToPriority("High"))
	assert.Equal(t, PriorityLow, MapStringToPriority("low"))
	assert.Equal(t, PriorityMedium, MapStringToPriority("bogus"))
}

func TestJSONOmitsAbsentEndLine(t *testing.T) {
	c := New("a.go", 7, "text", TypeIssue, PriorityHigh)
	c.ID = "cmt-01A"

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "endLine")

	c.EndLine = 9
	data, err = json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"endLine":9`)
}
