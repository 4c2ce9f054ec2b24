// Package git provides source-control integration for the Revline application
package git

import "strings"

// FileStatus represents the status of a changed file in the worktree
type FileStatus string

const (
	// StatusModified represents a file with tracked changes
	StatusModified FileStatus = "modified"
	// StatusAdded represents a newly added file
	StatusAdded FileStatus = "added"
	// StatusDeleted represents a deleted file
	StatusDeleted FileStatus = "deleted"
	// StatusUntracked represents a file git does not track yet
	StatusUntracked FileStatus = "untracked"
	// StatusRenamed represents a renamed file
	StatusRenamed FileStatus = "renamed"
)

// ChangedFile represents one changed path in the working tree
type ChangedFile struct {
	Path     string     `json:"path"`
	Status   FileStatus `json:"status"`
	Staged   bool       `json:"staged"`
	Language string     `json:"language,omitempty"`
}

// IsGo returns true if the file is a Go file
func (f *ChangedFile) IsGo() bool {
	return strings.HasSuffix(f.Path, ".go")
}
