package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revlinehq/revline/internal/comment"
	"github.com/revlinehq/revline/internal/config"
	"github.com/revlinehq/revline/internal/git"
	"github.com/revlinehq/revline/internal/loggy"
	"github.com/revlinehq/revline/internal/report"
	"github.com/revlinehq/revline/internal/ulid"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Review: config.ReviewConfig{
			Dir:            t.TempDir(),
			FallbackBranch: "detached",
			BaseBranch:     "main",
			ResolveTimeout: 50 * time.Millisecond,
		},
	}
}

func startedManager(t *testing.T, cfg *config.Config) *Manager {
	t.Helper()

	m := NewManager(cfg, nil, nil, loggy.NewNoopLogger())
	require.NoError(t, m.Start(context.Background()))
	return m
}

func TestStartWithoutGitUsesFallbackBranch(t *testing.T) {
	cfg := testConfig(t)
	m := startedManager(t, cfg)

	assert.Equal(t, StateReady, m.State())
	assert.Equal(t, "detached", m.Branch())

	mdPath, jsonPath := m.ArtifactPaths()
	assert.Equal(t, filepath.Join(cfg.Review.Dir, "review-detached.md"), mdPath)
	assert.Equal(t, filepath.Join(cfg.Review.Dir, "review-detached.json"), jsonPath)

	s := m.Session()
	require.NotNil(t, s)
	assert.Equal(t, StatusInProgress, s.Status)
	assert.Equal(t, "main", s.BaseBranch)
}

func TestStartTwice(t *testing.T) {
	m := startedManager(t, testConfig(t))
	assert.ErrorIs(t, m.Start(context.Background()), ErrAlreadyStarted)
}

func TestMutationsBeforeStart(t *testing.T) {
	m := NewManager(testConfig(t), nil, nil, loggy.NewNoopLogger())

	_, err := m.AddComment("a.go", 1, 0, "text", comment.TypeIssue, comment.PriorityHigh)
	assert.ErrorIs(t, err, ErrNotReady)

	assert.ErrorIs(t, m.DeleteComment("cmt-x"), ErrNotReady)
	assert.ErrorIs(t, m.ClearComments(), ErrNotReady)
}

func TestConcurrentEditsAndReads(t *testing.T) {
	m := startedManager(t, testConfig(t))

	c, err := m.AddComment("a.go", 1, 0, "first pass", comment.TypeIssue, comment.PriorityLow)
	require.NoError(t, err)

	// Edits rewrite the comment while readers marshal the collection. The
	// repository hands out copies, so neither side may observe the other
	// mid-write.
	const iterations = 200

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			if _, editErr := m.EditComment(c.ID, fmt.Sprintf("pass %d", i), comment.TypeSuggestion, comment.PriorityHigh); editErr != nil {
				t.Errorf("edit %d failed: %v", i, editErr)
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			comments, readErr := m.Comments()
			if readErr != nil {
				t.Errorf("read %d failed: %v", i, readErr)
				return
			}
			if _, marshalErr := json.Marshal(comments); marshalErr != nil {
				t.Errorf("marshal %d failed: %v", i, marshalErr)
				return
			}
		}
	}()

	wg.Wait()
	m.Wait()

	final, err := m.FindComment(c.ID)
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.Equal(t, fmt.Sprintf("pass %d", iterations-1), final.Comment)
}

func TestAddCommentValidation(t *testing.T) {
	m := startedManager(t, testConfig(t))

	_, err := m.AddComment("", 1, 0, "text", comment.TypeIssue, comment.PriorityHigh)
	assert.Error(t, err, "empty file path should be rejected")

	_, err = m.AddComment("a.go", 0, 0, "text", comment.TypeIssue, comment.PriorityHigh)
	assert.Error(t, err, "non-positive line should be rejected")

	_, err = m.AddComment("a.go", 10, 5, "text", comment.TypeIssue, comment.PriorityHigh)
	assert.Error(t, err, "end line before start line should be rejected")

	_, err = m.AddComment("a.go", 1, 0, "   ", comment.TypeIssue, comment.PriorityHigh)
	assert.Error(t, err, "blank comment text should be rejected")

	comments, err := m.Comments()
	require.NoError(t, err)
	assert.Empty(t, comments, "rejected operations must not mutate state")
}

func TestMutationsRegenerateArtifacts(t *testing.T) {
	cfg := testConfig(t)
	m := startedManager(t, cfg)
	mdPath, jsonPath := m.ArtifactPaths()

	c, err := m.AddComment("internal/server.go", 42, 0, "missing error check", comment.TypeIssue, comment.PriorityCritical)
	require.NoError(t, err)
	m.Wait()

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err, "markdown artifact should exist after a mutation")
	assert.Contains(t, string(md), "missing error check")
	assert.Contains(t, string(md), "### CRITICAL-1")

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err, "JSON artifact should exist after a mutation")
	artifact, err := report.UnmarshalArtifact(data)
	require.NoError(t, err)
	assert.Equal(t, "detached", artifact.Branch)
	require.Len(t, artifact.Comments, 1)
	assert.Equal(t, c.ID, artifact.Comments[0].ID)

	// Edit rewrites content but keeps the anchor
	_, err = m.EditComment(c.ID, "handle the error", comment.TypeSuggestion, comment.PriorityLow)
	require.NoError(t, err)
	m.Wait()

	md, err = os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "handle the error")
	assert.NotContains(t, string(md), "missing error check")
	assert.Contains(t, string(md), "### LOW-1")

	// Clear leaves empty artifacts rather than deleting them
	require.NoError(t, m.ClearComments())
	m.Wait()

	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	artifact, err = report.UnmarshalArtifact(data)
	require.NoError(t, err)
	assert.Empty(t, artifact.Comments)
}

func TestEditAndDeleteAbsentComment(t *testing.T) {
	m := startedManager(t, testConfig(t))

	_, err := m.EditComment("cmt-missing", "text", comment.TypeIssue, comment.PriorityHigh)
	assert.ErrorIs(t, err, comment.ErrNotFound)

	assert.ErrorIs(t, m.DeleteComment("cmt-missing"), comment.ErrNotFound)
}

func TestRestoreFromJSONArtifact(t *testing.T) {
	cfg := testConfig(t)

	restored := comment.New("a.go", 3, "left over from last run", comment.TypeQuestion, comment.PriorityMedium)
	restored.ID = ulid.CommentID()
	data, err := report.MarshalArtifact([]*comment.ReviewComment{restored}, "detached")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Review.Dir, "review-detached.json"), data, 0o644))

	m := startedManager(t, cfg)

	comments, err := m.Comments()
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, restored.ID, comments[0].ID)
	assert.Equal(t, "left over from last run", comments[0].Comment)
}

func TestCompleteIsDescriptiveOnly(t *testing.T) {
	m := startedManager(t, testConfig(t))

	require.NoError(t, m.Complete())
	assert.Equal(t, StatusCompleted, m.Session().Status)

	// Still mutable after completion
	_, err := m.AddComment("a.go", 1, 0, "late addition", comment.TypeIssue, comment.PriorityLow)
	assert.NoError(t, err)
}

func TestStartWithGitRepository(t *testing.T) {
	repoPath := t.TempDir()

	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = repoPath
		require.NoError(t, cmd.Run(), "git %v", args)
	}
	run("init")
	run("config", "user.name", "Test User")
	run("config", "user.email", "test@example.com")
	require.NoError(t, os.WriteFile(filepath.Join(repoPath, "README.md"), []byte("# Test\n"), 0o644))
	run("add", "README.md")
	run("commit", "-m", "Initial commit")
	run("checkout", "-b", "feature/login")

	gitService := git.NewService(loggy.NewNoopLogger())
	require.NoError(t, gitService.InitRepo(repoPath))

	cfg := testConfig(t)
	m := NewManager(cfg, gitService, nil, loggy.NewNoopLogger())
	require.NoError(t, m.Start(context.Background()))

	assert.Equal(t, "feature/login", m.Branch())

	// Slashes are flattened in artifact names
	mdPath, _ := m.ArtifactPaths()
	assert.Equal(t, filepath.Join(cfg.Review.Dir, "review-feature-login.md"), mdPath)
}
