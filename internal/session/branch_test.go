package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBranchName(t *testing.T) {
	tests := []struct {
		name   string
		branch string
		valid  bool
	}{
		{"simple", "main", true},
		{"with slash", "feature/login", true},
		{"with dash and dot", "release-1.2", true},
		{"empty", "", false},
		{"space", "my branch", false},
		{"control character", "bran\tch", false},
		{"tilde", "feat~1", false},
		{"caret", "feat^2", false},
		{"colon", "feat:x", false},
		{"question mark", "feat?", false},
		{"asterisk", "feat*", false},
		{"open bracket", "feat[1]", false},
		{"backslash", `feat\x`, false},
		{"leading dot", ".hidden", false},
		{"leading dash", "-option", false},
		{"trailing dot", "feat.", false},
		{"trailing lock", "feat.lock", false},
		{"double dot", "feat..x", false},
		{"double slash", "feat//x", false},
		{"too long", strings.Repeat("a", 256), false},
		{"exactly max length", strings.Repeat("a", 255), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBranchName(tt.branch)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSanitizeBranchName(t *testing.T) {
	assert.Equal(t, "feature/login", SanitizeBranchName("feature/login", "detached"))
	assert.Equal(t, "detached", SanitizeBranchName("bad name", "detached"))
	assert.Equal(t, "detached", SanitizeBranchName("", "detached"))
}

func TestArtifactComponent(t *testing.T) {
	assert.Equal(t, "feature-login", artifactComponent("feature/login"))
	assert.Equal(t, "main", artifactComponent("main"))
}
