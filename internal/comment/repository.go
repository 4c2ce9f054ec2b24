package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/revlinehq/revline/internal/database"
	"github.com/revlinehq/revline/internal/loggy"
)

// ErrNotFound is returned when a comment does not exist
var ErrNotFound = errors.New("comment not found")

// Store defines the durable backend behind the cached repository. Each write
// serializes the entire comment set for a branch, so a late-completing write
// for an earlier mutation can only leave stale contents, never a torn state.
type Store interface {
	// LoadComments retrieves all comments for a branch, insertion order preserved
	LoadComments(ctx context.Context, branch string) ([]*ReviewComment, error)

	// ReplaceComments atomically replaces the full comment set for a branch
	ReplaceComments(ctx context.Context, branch string, comments []*ReviewComment) error
}

// SQLStore implements the Store interface using a SQL database
type SQLStore struct {
	db     *sql.DB
	logger *loggy.Logger
}

// NewSQLStore creates a new SQL store
func NewSQLStore(db *sql.DB, logger *loggy.Logger) *SQLStore {
	return &SQLStore{
		db:     db,
		logger: logger,
	}
}

// LoadComments retrieves all comments for a branch ordered by insertion position
func (s *SQLStore) LoadComments(ctx context.Context, branch string) ([]*ReviewComment, error) {
	q := squirrel.Select("id", "file", "line", "end_line", "comment", "comment_type", "priority", "created_at").
		From("review_comments").
		Where(squirrel.Eq{"branch": branch}).
		OrderBy("position ASC")

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building load comments query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing load comments query: %w", err)
	}
	defer rows.Close()

	var comments []*ReviewComment
	for rows.Next() {
		var c ReviewComment
		var endLine sql.NullInt64
		var createdAt time.Time

		if err := rows.Scan(&c.ID, &c.File, &c.Line, &endLine, &c.Comment, &c.Type, &c.Priority, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning comment row: %w", err)
		}

		if endLine.Valid {
			c.EndLine = int(endLine.Int64)
		}
		c.Timestamp = createdAt

		comments = append(comments, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating comment rows: %w", err)
	}

	return comments, nil
}

// ReplaceComments replaces the full comment set for a branch in one transaction
func (s *SQLStore) ReplaceComments(ctx context.Context, branch string, comments []*ReviewComment) error {
	return database.WithTransaction(ctx, s.db, func(tx *sql.Tx) error {
		delQuery, delArgs, err := squirrel.Delete("review_comments").
			Where(squirrel.Eq{"branch": branch}).
			ToSql()
		if err != nil {
			return fmt.Errorf("building delete query: %w", err)
		}

		if _, err := tx.ExecContext(ctx, delQuery, delArgs...); err != nil {
			return fmt.Errorf("clearing branch comments: %w", err)
		}

		for i, c := range comments {
			var endLine interface{}
			if c.EndLine > 0 {
				endLine = c.EndLine
			}

			insQuery, insArgs, err := squirrel.Insert("review_comments").
				Columns("id", "branch", "position", "file", "line", "end_line", "comment", "comment_type", "priority", "created_at").
				Values(c.ID, branch, i, c.File, c.Line, endLine, c.Comment, c.Type, c.Priority, c.Timestamp).
				ToSql()
			if err != nil {
				return fmt.Errorf("building insert query: %w", err)
			}

			if _, err := tx.ExecContext(ctx, insQuery, insArgs...); err != nil {
				return fmt.Errorf("inserting comment %s: %w", c.ID, err)
			}
		}

		return nil
	})
}
