package git

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revlinehq/revline/internal/loggy"
)

// Helper function to set up a temporary Git repository
func setupTempGitRepo(t *testing.T) string {
	tempDir := t.TempDir()

	// Initialize Git repository
	cmd := exec.Command("git", "init")
	cmd.Dir = tempDir
	err := cmd.Run()
	require.NoError(t, err, "Failed to initialize Git repository")

	// Configure Git user for commits
	cmd = exec.Command("git", "config", "user.name", "Test User")
	cmd.Dir = tempDir
	err = cmd.Run()
	require.NoError(t, err, "Failed to set Git user name")

	cmd = exec.Command("git", "config", "user.email", "test@example.com")
	cmd.Dir = tempDir
	err = cmd.Run()
	require.NoError(t, err, "Failed to set Git user email")

	// Create initial commit so HEAD points at a branch
	createFile(t, tempDir, "README.md", "# Test Repository\n")
	stageFile(t, tempDir, "README.md")
	commitChanges(t, tempDir, "Initial commit")

	return tempDir
}

// Helper function to create a file in the repository
func createFile(t *testing.T, repoPath, filename, content string) {
	filePath := filepath.Join(repoPath, filename)
	err := os.WriteFile(filePath, []byte(content), 0644)
	require.NoError(t, err, "Failed to create file")
}

// Helper function to stage a file
func stageFile(t *testing.T, repoPath, filename string) {
	cmd := exec.Command("git", "add", filename)
	cmd.Dir = repoPath
	err := cmd.Run()
	require.NoError(t, err, "Failed to stage file")
}

// Helper function to commit changes
func commitChanges(t *testing.T, repoPath, message string) {
	cmd := exec.Command("git", "commit", "-m", message)
	cmd.Dir = repoPath
	err := cmd.Run()
	require.NoError(t, err, "Failed to commit changes")
}

// Helper function to create a branch
func createBranch(t *testing.T, repoPath, branchName string) {
	cmd := exec.Command("git", "branch", branchName)
	cmd.Dir = repoPath
	err := cmd.Run()
	require.NoError(t, err, "Failed to create branch")
}

// Helper function to get current branch
func getCurrentBranch(t *testing.T, repoPath string) string {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = repoPath
	out, err := cmd.Output()
	require.NoError(t, err, "Failed to get current branch")
	return strings.TrimSpace(string(out))
}

func TestGitService(t *testing.T) {
	logger := loggy.NewNoopLogger()

	t.Run("CurrentBranch", func(t *testing.T) {
		repoPath := setupTempGitRepo(t)

		service := NewService(logger)
		require.NoError(t, service.InitRepo(repoPath))

		branch, err := service.CurrentBranch()
		require.NoError(t, err, "CurrentBranch should not return an error")
		assert.Equal(t, getCurrentBranch(t, repoPath), branch)
	})

	t.Run("CurrentBranch_DetachedHead", func(t *testing.T) {
		repoPath := setupTempGitRepo(t)

		cmd := exec.Command("git", "checkout", "--detach", "HEAD")
		cmd.Dir = repoPath
		require.NoError(t, cmd.Run(), "Failed to detach HEAD")

		service := NewService(logger)
		require.NoError(t, service.InitRepo(repoPath))

		_, err := service.CurrentBranch()
		assert.ErrorIs(t, err, ErrNoBranch, "detached HEAD should yield ErrNoBranch")
	})

	t.Run("ShowFile", func(t *testing.T) {
		repoPath := setupTempGitRepo(t)

		service := NewService(logger)
		require.NoError(t, service.InitRepo(repoPath))

		createFile(t, repoPath, "main.go", "package main\n\nfunc main() {}\n")
		stageFile(t, repoPath, "main.go")
		commitChanges(t, repoPath, "Add main.go")

		content, err := service.ShowFile("HEAD", "main.go")
		require.NoError(t, err, "ShowFile should not return an error")
		assert.Contains(t, content, "func main()")

		_, err = service.ShowFile("HEAD", "missing.go")
		assert.Error(t, err, "ShowFile should fail for a file absent from the revision")
	})

	t.Run("ChangedFiles", func(t *testing.T) {
		repoPath := setupTempGitRepo(t)

		service := NewService(logger)
		require.NoError(t, service.InitRepo(repoPath))

		// One modified staged file, one untracked file
		createFile(t, repoPath, "README.md", "# Test Repository\n\nUpdated.\n")
		stageFile(t, repoPath, "README.md")
		createFile(t, repoPath, "scratch.go", "package scratch\n")

		files, err := service.ChangedFiles()
		require.NoError(t, err, "ChangedFiles should not return an error")
		require.Len(t, files, 2)

		// Sorted by path
		assert.Equal(t, "README.md", files[0].Path)
		assert.Equal(t, StatusModified, files[0].Status)
		assert.True(t, files[0].Staged)

		assert.Equal(t, "scratch.go", files[1].Path)
		assert.Equal(t, StatusUntracked, files[1].Status)
		assert.False(t, files[1].Staged)
		assert.Equal(t, "Go", files[1].Language)
		assert.True(t, files[1].IsGo())
	})

	t.Run("WorktreeFile", func(t *testing.T) {
		repoPath := setupTempGitRepo(t)

		service := NewService(logger)
		require.NoError(t, service.InitRepo(repoPath))

		createFile(t, repoPath, "notes.txt", "uncommitted content\n")

		content, err := service.WorktreeFile("notes.txt")
		require.NoError(t, err, "WorktreeFile should not return an error")
		assert.Equal(t, "uncommitted content\n", content)
	})

	t.Run("ListBranches", func(t *testing.T) {
		repoPath := setupTempGitRepo(t)

		service := NewService(logger)
		require.NoError(t, service.InitRepo(repoPath))

		mainBranch := getCurrentBranch(t, repoPath)
		createBranch(t, repoPath, "feature1")
		createBranch(t, repoPath, "feature2")

		branches, err := service.ListBranches()
		require.NoError(t, err, "ListBranches should not return an error")

		assert.Contains(t, branches, mainBranch)
		assert.Contains(t, branches, "feature1")
		assert.Contains(t, branches, "feature2")
	})

	t.Run("InitRepo_NonExistentRepo", func(t *testing.T) {
		service := NewService(logger)
		err := service.InitRepo("/path/that/does/not/exist")
		assert.Error(t, err, "InitRepo should return an error for non-existent repository")
	})

	t.Run("Uninitialized", func(t *testing.T) {
		service := NewService(logger)

		_, err := service.CurrentBranch()
		assert.ErrorIs(t, err, ErrNotInitialized)

		_, err = service.ChangedFiles()
		assert.ErrorIs(t, err, ErrNotInitialized)
	})
}

func TestDetectLanguage(t *testing.T) {
	assert.Equal(t, "Go", detectLanguage("internal/server.go"))
	assert.Equal(t, "Python", detectLanguage("scripts/migrate.py"))
	assert.Empty(t, detectLanguage("no-extension"))
}
