package comment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/revlinehq/revline/internal/loggy"
)

// Repository defines operations for managing the comments of one review
// session. Reads are served from a synchronous in-memory cache; mutations
// update the cache immediately and schedule an asynchronous durable write of
// the full current state. A failed durable write is reported but never rolls
// the cache back. The cache owns its memory: reads return value copies and
// Save stores one, so callers can mutate what they hold without racing a
// concurrent reader.
type Repository interface {
	// FindAll returns copies of all comments, insertion order preserved
	FindAll() []*ReviewComment

	// FindByFile returns copies of the comments for one file, order preserved
	FindByFile(path string) []*ReviewComment

	// FindByID returns a copy of the comment with the given id, or nil
	FindByID(id string) *ReviewComment

	// Save upserts a copy of the comment: same id replaces in place, new id
	// appends
	Save(c *ReviewComment)

	// Delete removes a comment, reporting whether it existed
	Delete(id string) bool

	// Clear empties the collection; idempotent
	Clear()

	// Flush forces a durable write of the current state; the returned channel
	// receives the write outcome once and is then closed
	Flush() <-chan error

	// Errors exposes durable write failures to the host
	Errors() <-chan error
}

// CachedRepository is a write-through Repository backed by a Store
type CachedRepository struct {
	mu       sync.Mutex
	branch   string
	comments []*ReviewComment
	byID     map[string]int

	store      Store
	logger     *loggy.Logger
	maxRetries uint64
	timeout    time.Duration

	errs chan error
	wg   sync.WaitGroup
}

// defaultWriteTimeout bounds one durable write including its retries
const defaultWriteTimeout = 30 * time.Second

// NewCachedRepository creates a repository for one branch, seeded with any
// comments already held by the durable store. A zero timeout selects the
// default write timeout.
func NewCachedRepository(ctx context.Context, branch string, store Store, maxRetries uint64, timeout time.Duration, logger *loggy.Logger) (*CachedRepository, error) {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	r := &CachedRepository{
		branch:     branch,
		byID:       make(map[string]int),
		store:      store,
		logger:     logger,
		maxRetries: maxRetries,
		timeout:    timeout,
		errs:       make(chan error, 16),
	}

	if store != nil {
		loaded, err := store.LoadComments(ctx, branch)
		if err != nil {
			return nil, fmt.Errorf("loading comments for branch %s: %w", branch, err)
		}
		r.replaceAll(loaded)
	}

	return r, nil
}

// Seed replaces the cache contents without triggering a durable write, used
// when a session is restored from a JSON artifact instead of the store.
func (r *CachedRepository) Seed(comments []*ReviewComment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaceAll(comments)
}

func (r *CachedRepository) replaceAll(comments []*ReviewComment) {
	r.comments = r.comments[:0]
	r.byID = make(map[string]int, len(comments))
	for _, c := range comments {
		clone := *c
		r.byID[c.ID] = len(r.comments)
		r.comments = append(r.comments, &clone)
	}
}

// FindAll returns copies of all comments, insertion order preserved
func (r *CachedRepository) FindAll() []*ReviewComment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// FindByFile returns copies of the comments anchored to one file, order
// preserved
func (r *CachedRepository) FindByFile(path string) []*ReviewComment {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*ReviewComment
	for _, c := range r.comments {
		if c.File == path {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out
}

// FindByID returns a copy of the comment with the given id, or nil
func (r *CachedRepository) FindByID(id string) *ReviewComment {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byID[id]
	if !ok {
		return nil
	}
	clone := *r.comments[idx]
	return &clone
}

// Save upserts a copy of the comment and schedules a durable write
func (r *CachedRepository) Save(c *ReviewComment) {
	clone := *c

	r.mu.Lock()
	if idx, ok := r.byID[clone.ID]; ok {
		r.comments[idx] = &clone
	} else {
		r.byID[clone.ID] = len(r.comments)
		r.comments = append(r.comments, &clone)
	}
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.scheduleWrite(snapshot)
}

// Delete removes a comment by id and reports whether it existed
func (r *CachedRepository) Delete(id string) bool {
	r.mu.Lock()
	idx, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return false
	}

	r.comments = append(r.comments[:idx], r.comments[idx+1:]...)
	delete(r.byID, id)
	for i := idx; i < len(r.comments); i++ {
		r.byID[r.comments[i].ID] = i
	}
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.scheduleWrite(snapshot)
	return true
}

// Clear empties the collection; idempotent
func (r *CachedRepository) Clear() {
	r.mu.Lock()
	wasEmpty := len(r.comments) == 0
	r.comments = r.comments[:0]
	r.byID = make(map[string]int)
	r.mu.Unlock()

	if !wasEmpty {
		r.scheduleWrite(nil)
	}
}

// Flush forces a synchronous-style durable write of the current state
func (r *CachedRepository) Flush() <-chan error {
	r.mu.Lock()
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	done := make(chan error, 1)
	if r.store == nil {
		done <- nil
		close(done)
		return done
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		done <- r.writeWithRetry(snapshot)
		close(done)
	}()

	return done
}

// Errors exposes durable write failures to the host
func (r *CachedRepository) Errors() <-chan error {
	return r.errs
}

// Wait blocks until all scheduled durable writes have completed, used by
// tests and shutdown paths.
func (r *CachedRepository) Wait() {
	r.wg.Wait()
}

// snapshotLocked copies the current comment values; callers hold the mutex.
// Values are copied so later edits cannot mutate an in-flight write or
// anything a reader holds.
func (r *CachedRepository) snapshotLocked() []*ReviewComment {
	snapshot := make([]*ReviewComment, len(r.comments))
	for i, c := range r.comments {
		clone := *c
		snapshot[i] = &clone
	}
	return snapshot
}

func (r *CachedRepository) scheduleWrite(snapshot []*ReviewComment) {
	if r.store == nil {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.writeWithRetry(snapshot); err != nil {
			r.logger.Error("Durable comment write failed", "branch", r.branch, "error", err)
			select {
			case r.errs <- err:
			default:
				// Host is not draining; drop rather than block
			}
		}
	}()
}

func (r *CachedRepository) writeWithRetry(snapshot []*ReviewComment) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	op := func() error {
		return r.store.ReplaceComments(ctx, r.branch, snapshot)
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), r.maxRetries)
	return backoff.Retry(op, backoff.WithContext(policy, ctx))
}
