package session

import (
	"fmt"
	"strings"
)

// maxBranchNameLength caps branch names used as artifact name components
const maxBranchNameLength = 255

// forbiddenBranchChars are rejected anywhere in a branch name
const forbiddenBranchChars = " ~^:?*[\\"

// ValidateBranchName reports whether a branch name is safe to embed in an
// artifact file name. The rules follow git's own ref-name restrictions plus
// a length cap.
func ValidateBranchName(name string) error {
	if name == "" {
		return fmt.Errorf("branch name is empty")
	}
	if len(name) > maxBranchNameLength {
		return fmt.Errorf("branch name exceeds %d characters", maxBranchNameLength)
	}

	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("branch name contains a control character")
		}
		if strings.ContainsRune(forbiddenBranchChars, r) {
			return fmt.Errorf("branch name contains forbidden character %q", r)
		}
	}

	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "-") {
		return fmt.Errorf("branch name starts with %q", name[:1])
	}
	if strings.HasSuffix(name, ".") {
		return fmt.Errorf("branch name ends with a dot")
	}
	if strings.HasSuffix(name, ".lock") {
		return fmt.Errorf("branch name ends with .lock")
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("branch name contains consecutive dots")
	}
	if strings.Contains(name, "//") {
		return fmt.Errorf("branch name contains consecutive slashes")
	}

	return nil
}

// SanitizeBranchName returns the branch name when valid, otherwise the
// fallback. An invalid name never aborts session initialization.
func SanitizeBranchName(name, fallback string) string {
	if err := ValidateBranchName(name); err != nil {
		return fallback
	}
	return name
}

// artifactComponent converts a sanitized branch name into a single path
// component. Slashes are legal in branch names but would nest artifact
// files into subdirectories.
func artifactComponent(branch string) string {
	return strings.ReplaceAll(branch, "/", "-")
}
