// Package bridge exposes the review session over a local HTTP endpoint so
// an editor or UI process can drive mutations with JSON messages.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/revlinehq/revline/internal/comment"
	"github.com/revlinehq/revline/internal/loggy"
	"github.com/revlinehq/revline/internal/session"
	"github.com/revlinehq/revline/internal/ulid"
)

// Inbound commands
const (
	CmdAddComment    = "addComment"
	CmdEditComment   = "editComment"
	CmdDeleteComment = "deleteComment"
	CmdClearComments = "clearComments"
)

// Outbound commands
const (
	CmdCommentAdded    = "commentAdded"
	CmdCommentUpdated  = "commentUpdated"
	CmdCommentDeleted  = "commentDeleted"
	CmdCommentsCleared = "commentsCleared"
	CmdError           = "error"
)

// Inbound is the flat message a UI sends, discriminated by Command. Each
// command reads the fields it needs and ignores the rest.
type Inbound struct {
	Command  string `json:"command"`
	ID       string `json:"id,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	EndLine  int    `json:"endLine,omitempty"`
	Comment  string `json:"comment,omitempty"`
	Type     string `json:"type,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// Outbound is the flat message the bridge answers with. RequestID correlates
// a response with the server log line for the same exchange.
type Outbound struct {
	Command   string                 `json:"command"`
	Comment   *comment.ReviewComment `json:"comment,omitempty"`
	ID        string                 `json:"id,omitempty"`
	Message   string                 `json:"message,omitempty"`
	RequestID string                 `json:"requestId,omitempty"`
}

// Server serves the bridge endpoint for one review session
type Server struct {
	addr    string
	manager *session.Manager
	logger  *loggy.Logger
	httpSrv *http.Server
}

// NewServer creates a bridge server bound to a session manager
func NewServer(addr string, timeout time.Duration, manager *session.Manager, logger *loggy.Logger) *Server {
	s := &Server{
		addr:    addr,
		manager: manager,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/message", s.handleMessage)
	mux.HandleFunc("/api/comments", s.handleComments)
	mux.HandleFunc("/api/diff", s.handleDiff)
	mux.HandleFunc("/api/session", s.handleSession)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}

	return s
}

// Start serves until the listener fails or Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("Bridge listening", "addr", s.addr)

	err := s.httpSrv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("bridge server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

// Handler exposes the mux, used by tests
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// request tags one exchange with an id carried through logs and the response
type request struct {
	id     string
	logger *loggy.Logger
}

func (s *Server) newRequest() request {
	id := ulid.RequestID()
	return request{id: id, logger: s.logger.With("request_id", id)}
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := s.newRequest()

	var msg Inbound
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		s.respondError(w, req, http.StatusBadRequest, err)
		return
	}

	req.logger.Debug("Bridge command received", "command", msg.Command)

	switch msg.Command {
	case CmdAddComment:
		s.handleAdd(w, req, msg)
	case CmdEditComment:
		s.handleEdit(w, req, msg)
	case CmdDeleteComment:
		s.handleDelete(w, req, msg)
	case CmdClearComments:
		s.handleClear(w, req)
	default:
		s.respondError(w, req, http.StatusBadRequest, fmt.Errorf("unknown command %q", msg.Command))
	}
}

func (s *Server) handleAdd(w http.ResponseWriter, req request, msg Inbound) {
	c, err := s.manager.AddComment(
		msg.File, msg.Line, msg.EndLine, msg.Comment,
		comment.MapStringToType(msg.Type),
		comment.MapStringToPriority(msg.Priority),
	)
	if err != nil {
		s.respondError(w, req, statusFor(err), err)
		return
	}

	respondJSON(w, http.StatusOK, Outbound{Command: CmdCommentAdded, Comment: c, RequestID: req.id})
}

func (s *Server) handleEdit(w http.ResponseWriter, req request, msg Inbound) {
	c, err := s.manager.EditComment(
		msg.ID, msg.Comment,
		comment.MapStringToType(msg.Type),
		comment.MapStringToPriority(msg.Priority),
	)
	if err != nil {
		s.respondError(w, req, statusFor(err), err)
		return
	}

	respondJSON(w, http.StatusOK, Outbound{Command: CmdCommentUpdated, Comment: c, RequestID: req.id})
}

func (s *Server) handleDelete(w http.ResponseWriter, req request, msg Inbound) {
	if err := s.manager.DeleteComment(msg.ID); err != nil {
		s.respondError(w, req, statusFor(err), err)
		return
	}

	respondJSON(w, http.StatusOK, Outbound{Command: CmdCommentDeleted, ID: msg.ID, RequestID: req.id})
}

func (s *Server) handleClear(w http.ResponseWriter, req request) {
	if err := s.manager.ClearComments(); err != nil {
		s.respondError(w, req, statusFor(err), err)
		return
	}

	respondJSON(w, http.StatusOK, Outbound{Command: CmdCommentsCleared, RequestID: req.id})
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := s.newRequest()

	comments, err := s.manager.Comments()
	if err != nil {
		s.respondError(w, req, statusFor(err), err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"branch":   s.manager.Branch(),
		"comments": comments,
	})
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := s.newRequest()

	path := r.URL.Query().Get("path")
	lines, err := s.manager.DiffFile(path)
	if err != nil {
		s.respondError(w, req, statusFor(err), err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"path":  path,
		"lines": lines,
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, http.StatusOK, s.manager.Session())
}

func (s *Server) respondError(w http.ResponseWriter, req request, status int, err error) {
	req.logger.Warn("Bridge request failed", "error", err)

	respondJSON(w, status, Outbound{Command: CmdError, Message: err.Error(), RequestID: req.id})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, comment.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}
