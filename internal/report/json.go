package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/revlinehq/revline/internal/comment"
)

// Artifact is the persisted JSON form of a review session. Unlike the
// markdown report it loses nothing and is what a later session reloads.
type Artifact struct {
	Branch      string                   `json:"branch"`
	Comments    []*comment.ReviewComment `json:"comments"`
	LastUpdated time.Time                `json:"lastUpdated"`
}

// MarshalArtifact serializes the current comment collection for a branch
func MarshalArtifact(comments []*comment.ReviewComment, branch string) ([]byte, error) {
	artifact := Artifact{
		Branch:      branch,
		Comments:    comments,
		LastUpdated: time.Now().UTC(),
	}
	if artifact.Comments == nil {
		artifact.Comments = []*comment.ReviewComment{}
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling review artifact: %w", err)
	}

	return append(data, '\n'), nil
}

// UnmarshalArtifact parses a previously written JSON artifact
func UnmarshalArtifact(data []byte) (*Artifact, error) {
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("unmarshaling review artifact: %w", err)
	}
	return &artifact, nil
}
