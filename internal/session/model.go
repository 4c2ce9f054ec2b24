// Package session binds a review comment repository to the current branch
// and drives artifact regeneration on every mutation.
package session

import (
	"time"

	"github.com/revlinehq/revline/internal/ulid"
)

// Status describes a review session. It is recorded in the session and its
// artifacts but nothing is enforced from it; a completed session can still
// be mutated.
type Status string

const (
	// StatusInProgress is the status of every freshly opened session
	StatusInProgress Status = "in-progress"
	// StatusCompleted marks a session whose review is finished
	StatusCompleted Status = "completed"
)

// State tracks the manager through initialization
type State int

const (
	// StateUninitialized means Start has not been called yet
	StateUninitialized State = iota
	// StateLoading means branch resolution and artifact load are underway
	StateLoading
	// StateReady means the session accepts mutations
	StateReady
)

// String returns a human readable state name
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// ReviewSession is the metadata of one branch's review. The comments
// themselves live in the comment repository the manager owns.
type ReviewSession struct {
	ID         string    `json:"id"`
	Branch     string    `json:"branch"`
	BaseBranch string    `json:"baseBranch"`
	Timestamp  time.Time `json:"timestamp"`
	Status     Status    `json:"status"`
}

// NewSession creates a session for a resolved branch
func NewSession(branch, baseBranch string) *ReviewSession {
	return &ReviewSession{
		ID:         ulid.SessionID(),
		Branch:     branch,
		BaseBranch: baseBranch,
		Timestamp:  time.Now().UTC(),
		Status:     StatusInProgress,
	}
}
