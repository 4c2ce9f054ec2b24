package git

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/go-enry/go-enry/v2"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/revlinehq/revline/internal/loggy"
)

var (
	// ErrNotInitialized is returned when no repository has been opened
	ErrNotInitialized = errors.New("git repository not initialized")

	// ErrNoBranch is returned when HEAD does not point at a branch
	ErrNoBranch = errors.New("no branch resolvable")
)

// Service provides Git operations
type Service struct {
	logger *loggy.Logger
	repo   *git.Repository
}

// NewService creates a new Git service
func NewService(logger *loggy.Logger) *Service {
	return &Service{
		logger: logger,
	}
}

// InitRepo opens the git repository for the service. An empty path means
// discover the repository from the current directory upward.
func (s *Service) InitRepo(repoPath string) error {
	var repo *git.Repository
	var err error

	if repoPath == "" {
		repo, err = git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	} else {
		repo, err = git.PlainOpen(repoPath)
	}
	if err != nil {
		return fmt.Errorf("opening git repo: %w", err)
	}

	s.repo = repo
	return nil
}

// HasGitRepo checks if the provided path contains a valid Git repository
func (s *Service) HasGitRepo(path string) bool {
	_, err := git.PlainOpen(path)
	if err != nil {
		s.logger.Debug("Not a valid Git repository", "path", path, "error", err)
		return false
	}

	return true
}

// CurrentBranch returns the short name of the branch HEAD points at.
// A detached HEAD or an unborn repository yields ErrNoBranch.
func (s *Service) CurrentBranch() (string, error) {
	if s.repo == nil {
		return "", ErrNotInitialized
	}

	head, err := s.repo.Head()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoBranch, err)
	}

	if !head.Name().IsBranch() {
		return "", ErrNoBranch
	}

	return head.Name().Short(), nil
}

// ShowFile returns the content of a file at the given revision. The revision
// may be a branch name, a tag, or a commit hash.
func (s *Service) ShowFile(revision, path string) (string, error) {
	if s.repo == nil {
		return "", ErrNotInitialized
	}

	hash, err := s.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return "", fmt.Errorf("resolving revision %s: %w", revision, err)
	}

	commit, err := s.repo.CommitObject(*hash)
	if err != nil {
		return "", fmt.Errorf("getting commit object: %w", err)
	}

	file, err := commit.File(path)
	if err != nil {
		return "", fmt.Errorf("getting file %s at %s: %w", path, revision, err)
	}

	content, err := file.Contents()
	if err != nil {
		return "", fmt.Errorf("reading file contents: %w", err)
	}

	return content, nil
}

// ChangedFiles enumerates the changed paths of the working tree with their
// status and staged flag, sorted by path for stable presentation.
func (s *Service) ChangedFiles() ([]ChangedFile, error) {
	if s.repo == nil {
		return nil, ErrNotInitialized
	}

	worktree, err := s.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("getting worktree status: %w", err)
	}

	var files []ChangedFile
	for path, fileStatus := range status {
		if fileStatus.Staging == git.Unmodified && fileStatus.Worktree == git.Unmodified {
			continue
		}

		staged := fileStatus.Staging != git.Unmodified && fileStatus.Staging != git.Untracked

		code := fileStatus.Worktree
		if staged {
			code = fileStatus.Staging
		}

		files = append(files, ChangedFile{
			Path:     path,
			Status:   mapStatusCode(code),
			Staged:   staged,
			Language: detectLanguage(path),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	s.logger.Debug("Enumerated changed files", "count", len(files))

	return files, nil
}

// WorktreeFile reads the current content of a file from the working tree
// through the repository's filesystem abstraction.
func (s *Service) WorktreeFile(path string) (string, error) {
	if s.repo == nil {
		return "", ErrNotInitialized
	}

	worktree, err := s.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	f, err := worktree.Filesystem.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening worktree file %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("reading worktree file %s: %w", path, err)
	}

	return string(data), nil
}

// ListBranches returns a list of all local branches in the repository
func (s *Service) ListBranches() ([]string, error) {
	if s.repo == nil {
		return nil, ErrNotInitialized
	}

	branches := []string{}
	iter, err := s.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("listing branches: %w", err)
	}

	err = iter.ForEach(func(ref *plumbing.Reference) error {
		branches = append(branches, ref.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating branches: %w", err)
	}

	sort.Strings(branches)
	return branches, nil
}

// mapStatusCode converts a go-git status code to our FileStatus model
func mapStatusCode(code git.StatusCode) FileStatus {
	switch code {
	case git.Added:
		return StatusAdded
	case git.Untracked:
		return StatusUntracked
	case git.Deleted:
		return StatusDeleted
	case git.Renamed:
		return StatusRenamed
	case git.Modified, git.UpdatedButUnmerged:
		return StatusModified
	default:
		return StatusModified
	}
}

// detectLanguage tags a path with its programming language by filename
func detectLanguage(path string) string {
	language, _ := enry.GetLanguageByFilename(path)
	if language == "" {
		language, _ = enry.GetLanguageByExtension(path)
	}
	return language
}
