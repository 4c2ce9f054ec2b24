package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/revlinehq/revline/internal/comment"
	"github.com/revlinehq/revline/internal/config"
	"github.com/revlinehq/revline/internal/diff"
	"github.com/revlinehq/revline/internal/git"
	"github.com/revlinehq/revline/internal/loggy"
	"github.com/revlinehq/revline/internal/report"
	"github.com/revlinehq/revline/internal/ulid"
)

var (
	// ErrNotReady is returned when a mutation arrives before Start completed
	ErrNotReady = errors.New("review session not ready")

	// ErrAlreadyStarted is returned when Start is called twice
	ErrAlreadyStarted = errors.New("review session already started")
)

// resolvePollInterval is how often branch resolution retries within its
// bounded wait
const resolvePollInterval = 100 * time.Millisecond

// Manager owns one review session: it resolves the branch, loads or
// initializes the comment repository, and regenerates both artifacts after
// every mutation.
type Manager struct {
	cfg    *config.Config
	git    *git.Service
	store  comment.Store
	logger *loggy.Logger

	mu       sync.Mutex
	state    State
	session  *ReviewSession
	repo     *comment.CachedRepository
	mdPath   string
	jsonPath string

	errs chan error
	wg   sync.WaitGroup
}

// NewManager creates an unstarted session manager
func NewManager(cfg *config.Config, gitService *git.Service, store comment.Store, logger *loggy.Logger) *Manager {
	return &Manager{
		cfg:    cfg,
		git:    gitService,
		store:  store,
		logger: logger,
		state:  StateUninitialized,
		errs:   make(chan error, 16),
	}
}

// Start resolves the branch and loads or initializes the session for it.
// Branch resolution failures degrade to the configured fallback branch so a
// review can proceed without a usable repository.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateUninitialized {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.state = StateLoading
	m.mu.Unlock()

	branch := SanitizeBranchName(m.resolveBranch(ctx), m.cfg.Review.FallbackBranch)
	component := artifactComponent(branch)

	if err := os.MkdirAll(m.cfg.Review.Dir, 0o755); err != nil {
		return fmt.Errorf("creating reviews directory: %w", err)
	}

	mdPath := filepath.Join(m.cfg.Review.Dir, fmt.Sprintf("review-%s.md", component))
	jsonPath := filepath.Join(m.cfg.Review.Dir, fmt.Sprintf("review-%s.json", component))

	repo, err := comment.NewCachedRepository(ctx, branch, m.store, m.cfg.Review.WriteRetries, m.cfg.Database.QueryTimeout, m.logger)
	if err != nil {
		// A broken durable store should not block reviewing. Fall back to an
		// unbacked repository and surface the failure.
		m.logger.Error("Durable store unavailable, session will not persist", "branch", branch, "error", err)
		m.reportError(err)
		repo, _ = comment.NewCachedRepository(ctx, branch, nil, 0, 0, m.logger)
	}

	// The store is authoritative. The JSON artifact only seeds a session the
	// store knows nothing about, e.g. after the database file was removed.
	if len(repo.FindAll()) == 0 {
		if artifact := m.readArtifact(jsonPath); artifact != nil && len(artifact.Comments) > 0 {
			m.logger.Info("Restoring session from JSON artifact", "branch", branch, "comments", len(artifact.Comments))
			repo.Seed(artifact.Comments)
		}
	}

	m.mu.Lock()
	m.session = NewSession(branch, m.cfg.Review.BaseBranch)
	m.repo = repo
	m.mdPath = mdPath
	m.jsonPath = jsonPath
	m.state = StateReady
	m.mu.Unlock()

	m.logger.Info("Review session ready",
		"branch", branch,
		"base", m.cfg.Review.BaseBranch,
		"comments", len(repo.FindAll()),
	)

	return nil
}

// resolveBranch polls the git service until it yields a branch or the
// configured timeout elapses, then degrades to the fallback branch.
func (m *Manager) resolveBranch(ctx context.Context) string {
	if m.git == nil {
		return m.cfg.Review.FallbackBranch
	}

	deadline := time.Now().Add(m.cfg.Review.ResolveTimeout)
	for {
		branch, err := m.git.CurrentBranch()
		if err == nil {
			return branch
		}

		if time.Now().After(deadline) {
			m.logger.Warn("Branch resolution timed out, using fallback",
				"fallback", m.cfg.Review.FallbackBranch, "error", err)
			return m.cfg.Review.FallbackBranch
		}

		select {
		case <-ctx.Done():
			return m.cfg.Review.FallbackBranch
		case <-time.After(resolvePollInterval):
		}
	}
}

func (m *Manager) readArtifact(path string) *report.Artifact {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	artifact, err := report.UnmarshalArtifact(data)
	if err != nil {
		m.logger.Warn("Ignoring unreadable JSON artifact", "path", path, "error", err)
		return nil
	}
	return artifact
}

// AddComment validates and stores a new comment, then regenerates artifacts
func (m *Manager) AddComment(file string, line, endLine int, text string, commentType comment.Type, priority comment.Priority) (*comment.ReviewComment, error) {
	repo, err := m.ready()
	if err != nil {
		return nil, err
	}

	if err := validateAnchor(file, line, endLine); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("comment text is empty")
	}

	c := comment.New(file, line, text, commentType, priority)
	c.ID = ulid.CommentID()
	c.EndLine = endLine

	repo.Save(c)
	m.scheduleExport()

	m.logger.Debug("Comment added", "id", c.ID, "file", file, "line", line, "priority", priority)
	return c, nil
}

// EditComment rewrites an existing comment's text, type, and priority. The
// anchor (file and lines) is immutable.
func (m *Manager) EditComment(id, text string, commentType comment.Type, priority comment.Priority) (*comment.ReviewComment, error) {
	repo, err := m.ready()
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("comment text is empty")
	}

	c := repo.FindByID(id)
	if c == nil {
		return nil, fmt.Errorf("comment %s: %w", id, comment.ErrNotFound)
	}

	c.Amend(text, commentType, priority)
	repo.Save(c)
	m.scheduleExport()

	m.logger.Debug("Comment edited", "id", id, "priority", priority)
	return c, nil
}

// DeleteComment removes a comment and regenerates artifacts
func (m *Manager) DeleteComment(id string) error {
	repo, err := m.ready()
	if err != nil {
		return err
	}

	if !repo.Delete(id) {
		return fmt.Errorf("comment %s: %w", id, comment.ErrNotFound)
	}
	m.scheduleExport()

	m.logger.Debug("Comment deleted", "id", id)
	return nil
}

// ClearComments empties the session and regenerates artifacts
func (m *Manager) ClearComments() error {
	repo, err := m.ready()
	if err != nil {
		return err
	}

	repo.Clear()
	m.scheduleExport()

	m.logger.Debug("Comments cleared")
	return nil
}

// Comments returns all comments in insertion order
func (m *Manager) Comments() ([]*comment.ReviewComment, error) {
	repo, err := m.ready()
	if err != nil {
		return nil, err
	}
	return repo.FindAll(), nil
}

// CommentsForFile returns the comments anchored to one file
func (m *Manager) CommentsForFile(path string) ([]*comment.ReviewComment, error) {
	repo, err := m.ready()
	if err != nil {
		return nil, err
	}
	return repo.FindByFile(path), nil
}

// FindComment returns one comment by id, or nil when absent
func (m *Manager) FindComment(id string) (*comment.ReviewComment, error) {
	repo, err := m.ready()
	if err != nil {
		return nil, err
	}
	return repo.FindByID(id), nil
}

// DiffFile computes the anchored diff of a file between the session's base
// branch and the working tree. A path missing on either side diffs against
// empty content, so added and deleted files render naturally.
func (m *Manager) DiffFile(path string) ([]diff.Line, error) {
	if _, err := m.ready(); err != nil {
		return nil, err
	}
	if err := validatePath(path); err != nil {
		return nil, err
	}

	var original, modified string
	if m.git != nil {
		if content, err := m.git.ShowFile(m.baseBranch(), path); err == nil {
			original = content
		}
		if content, err := m.git.WorktreeFile(path); err == nil {
			modified = content
		}
	}

	return diff.Compute(original, modified), nil
}

// Export regenerates both artifacts synchronously. Mutations already export
// in the background; this is for explicit report commands.
func (m *Manager) Export() error {
	repo, err := m.ready()
	if err != nil {
		return err
	}

	m.mu.Lock()
	branch := m.session.Branch
	mdPath, jsonPath := m.mdPath, m.jsonPath
	m.mu.Unlock()

	return writeArtifacts(repo.FindAll(), branch, mdPath, jsonPath)
}

// Complete marks the session completed. The status is descriptive; the
// session still accepts mutations afterwards.
func (m *Manager) Complete() error {
	if _, err := m.ready(); err != nil {
		return err
	}

	m.mu.Lock()
	m.session.Status = StatusCompleted
	m.mu.Unlock()

	m.scheduleExport()
	return nil
}

// Session returns a copy of the session metadata
func (m *Manager) Session() *ReviewSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil
	}
	s := *m.session
	return &s
}

// State reports where the manager is in its lifecycle
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Branch returns the sanitized branch this session is bound to
func (m *Manager) Branch() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return ""
	}
	return m.session.Branch
}

// ArtifactPaths returns the markdown and JSON artifact locations
func (m *Manager) ArtifactPaths() (mdPath, jsonPath string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mdPath, m.jsonPath
}

// Errors surfaces background persistence and export failures
func (m *Manager) Errors() <-chan error {
	return m.errs
}

// RepositoryErrors surfaces durable store write failures
func (m *Manager) RepositoryErrors() <-chan error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.repo == nil {
		return nil
	}
	return m.repo.Errors()
}

// Wait blocks until all scheduled exports and durable writes have finished,
// used by tests and shutdown paths.
func (m *Manager) Wait() {
	m.wg.Wait()

	m.mu.Lock()
	repo := m.repo
	m.mu.Unlock()
	if repo != nil {
		repo.Wait()
	}
}

func (m *Manager) ready() (*comment.CachedRepository, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateReady {
		return nil, fmt.Errorf("%w: state is %s", ErrNotReady, m.state)
	}
	return m.repo, nil
}

// scheduleExport snapshots the current state and regenerates both artifacts
// in the background. Each export carries the entire collection, so a slow
// earlier export finishing late can only leave momentarily stale files.
func (m *Manager) scheduleExport() {
	m.mu.Lock()
	branch := m.session.Branch
	mdPath, jsonPath := m.mdPath, m.jsonPath
	repo := m.repo
	m.mu.Unlock()

	// FindAll returns copies, so later edits cannot mutate an in-flight export
	snapshot := repo.FindAll()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := writeArtifacts(snapshot, branch, mdPath, jsonPath); err != nil {
			m.logger.Error("Artifact export failed", "branch", branch, "error", err)
			m.reportError(err)
		}
	}()
}

func (m *Manager) baseBranch() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.BaseBranch
}

func (m *Manager) reportError(err error) {
	select {
	case m.errs <- err:
	default:
		// Host is not draining; drop rather than block
	}
}

func writeArtifacts(comments []*comment.ReviewComment, branch, mdPath, jsonPath string) error {
	md := report.Generate(comments, branch)
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return fmt.Errorf("writing markdown report: %w", err)
	}

	data, err := report.MarshalArtifact(comments, branch)
	if err != nil {
		return err
	}
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("writing JSON artifact: %w", err)
	}

	return nil
}

// validateAnchor checks a comment's file and line anchor before any state
// changes
func validateAnchor(file string, line, endLine int) error {
	if err := validatePath(file); err != nil {
		return err
	}
	if line < 1 {
		return fmt.Errorf("line must be positive, got %d", line)
	}
	if endLine != 0 && endLine < line {
		return fmt.Errorf("end line %d precedes line %d", endLine, line)
	}
	return nil
}

func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("file path is empty")
	}
	for _, r := range path {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("file path contains a control character")
		}
	}
	return nil
}
