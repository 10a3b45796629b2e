// Package httpapi exposes the runtime over HTTP: session CRUD, a
// streaming chat endpoint, and cancellation. It is a thin layer over the
// registry and store; authentication is left to the deployment.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tenantwise/steering"
	"github.com/tenantwise/steering/store"
	"github.com/tenantwise/steering/types"
)

// Response wraps all API responses.
type Response struct {
	Data  any       `json:"data,omitempty"`
	Error *APIError `json:"error,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server serves the HTTP API.
type Server struct {
	registry *steering.Registry
	logger   *log.Logger
}

// NewServer creates a server over a registry. A nil logger falls back to
// the default.
func NewServer(registry *steering.Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{registry: registry, logger: logger}
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/sessions", s.handleListSessions)
	mux.HandleFunc("DELETE /api/sessions", s.handleDeleteSession)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/cancel", s.handleCancel)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Error: &APIError{Code: code, Message: message}})
}

// keyRequest carries an identity triple in a request body or query.
type keyRequest struct {
	App       string `json:"app"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

func (k keyRequest) key() types.SessionKey {
	return types.SessionKey{App: k.App, UserID: k.UserID, SessionID: k.SessionID}
}

func keyFromQuery(r *http.Request) keyRequest {
	q := r.URL.Query()
	return keyRequest{
		App:       q.Get("app"),
		UserID:    q.Get("user_id"),
		SessionID: q.Get("session_id"),
	}
}

func (k keyRequest) validate(needSession bool) string {
	switch {
	case k.App == "":
		return "app is required"
	case k.UserID == "":
		return "user_id is required"
	case needSession && k.SessionID == "":
		return "session_id is required"
	}
	return ""
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if msg := req.validate(false); msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	sess, err := s.registry.Store().Create(r.Context(), req.key())
	if err == store.ErrSessionExists {
		writeError(w, http.StatusConflict, "session_exists", "session already exists")
		return
	}
	if err != nil {
		s.logger.Error("creating session failed", "session", req.key(), "err", err)
		writeError(w, http.StatusInternalServerError, "store_error", "failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"key":   sess.Key,
		"title": sess.Title(),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	req := keyFromQuery(r)
	if req.App == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "app is required")
		return
	}

	summaries, err := s.registry.Store().List(r.Context(), req.App, req.UserID)
	if err != nil {
		s.logger.Error("listing sessions failed", "app", req.App, "err", err)
		writeError(w, http.StatusInternalServerError, "store_error", "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if msg := req.validate(true); msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}

	key := req.key()
	s.registry.Remove(key)
	err := s.registry.Store().Delete(r.Context(), key)
	if err == store.ErrSessionNotFound {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if err != nil {
		s.logger.Error("deleting session failed", "session", key, "err", err)
		writeError(w, http.StatusInternalServerError, "store_error", "failed to delete session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": true})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	req := keyFromQuery(r)
	if msg := req.validate(true); msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}

	sess, err := s.registry.Store().Get(r.Context(), req.key())
	if err == store.ErrSessionNotFound {
		writeError(w, http.StatusNotFound, "not_found", "session not found")
		return
	}
	if err != nil {
		s.logger.Error("loading history failed", "session", req.key(), "err", err)
		writeError(w, http.StatusInternalServerError, "store_error", "failed to load session")
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(renderHistoryHTML(sess))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"key":    sess.Key,
		"title":  sess.Title(),
		"events": sess.Events,
	})
}

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	keyRequest
	Message string `json:"message"`
}

// handleChat runs one turn and streams its chunks as NDJSON, one JSON
// object per line, flushed per chunk.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if msg := req.validate(true); msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message is required")
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	session := s.registry.GetOrCreate(req.key())
	enc := json.NewEncoder(w)
	for chunk := range session.RunTask(r.Context(), req.Message) {
		if err := enc.Encode(chunk); err != nil {
			// Client went away; the turn keeps draining so session
			// state still lands in the store.
			s.logger.Debug("chat client disconnected", "session", req.key())
			continue
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if msg := req.validate(true); msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}

	signalled := s.registry.Cancel(req.key())
	if signalled {
		s.logger.Info("cancel signal enqueued", "session", req.key())
	}
	writeJSON(w, http.StatusOK, map[string]any{"signalled": signalled})
}
