// Package comment provides the review comment model and its storage
package comment

import (
	"strings"
	"time"
)

// Type represents the kind of review comment being made
type Type string

const (
	// TypeIssue flags a defect that should be fixed
	TypeIssue Type = "issue"
	// TypeSuggestion proposes an improvement
	TypeSuggestion Type = "suggestion"
	// TypeQuestion asks the author for clarification
	TypeQuestion Type = "question"
	// TypePraise calls out something done well
	TypePraise Type = "praise"
)

// Priority represents how urgently a comment should be addressed
type Priority string

const (
	// PriorityCritical must be fixed before merging
	PriorityCritical Priority = "critical"
	// PriorityHigh should be fixed before merging
	PriorityHigh Priority = "high"
	// PriorityMedium should be fixed soon
	PriorityMedium Priority = "medium"
	// PriorityLow is a nice-to-have
	PriorityLow Priority = "low"
)

// PrioritiesByRank lists all priorities from most to least urgent, the order
// exported reports group by.
var PrioritiesByRank = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// ReviewComment represents one reviewer annotation anchored to a line of a
// changed file. Line indexes into the new-line space of the diff that was on
// screen when the comment was created; later edits to the file do not
// re-anchor it.
type ReviewComment struct {
	ID        string    `json:"id"`
	File      string    `json:"file"`
	Line      int       `json:"line"`
	EndLine   int       `json:"endLine,omitempty"`
	Comment   string    `json:"comment"`
	Type      Type      `json:"type"`
	Priority  Priority  `json:"priority"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates a new review comment instance
func New(file string, line int, text string, commentType Type, priority Priority) *ReviewComment {
	return &ReviewComment{
		ID:        "", // Will be set by the repository
		File:      file,
		Line:      line,
		Comment:   text,
		Type:      commentType,
		Priority:  priority,
		Timestamp: time.Now(),
	}
}

// Amend replaces the comment's content in place, keeping its identity and
// anchor but refreshing the timestamp.
func (c *ReviewComment) Amend(text string, commentType Type, priority Priority) {
	c.Comment = text
	c.Type = commentType
	c.Priority = priority
	c.Timestamp = time.Now()
}

// Rank returns the sort rank of the priority; lower is more urgent
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// Label returns the priority in report label form, e.g. "CRITICAL"
func (p Priority) Label() string {
	return strings.ToUpper(string(p))
}

// MapStringToType maps a string to a comment Type
func MapStringToType(s string) Type {
	switch strings.ToLower(s) {
	case "issue":
		return TypeIssue
	case "suggestion":
		return TypeSuggestion
	case "question":
		return TypeQuestion
	case "praise":
		return TypePraise
	default:
		return TypeIssue
	}
}

// MapStringToPriority maps a string to a Priority
func MapStringToPriority(s string) Priority {
	switch strings.ToLower(s) {
	case "critical":
		return PriorityCritical
	case "high":
		return PriorityHigh
	case "medium":
		return PriorityMedium
	case "low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}
