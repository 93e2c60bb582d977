// ABOUTME: HTTP handlers for health, search, context, capture and status plus shared JSON helpers
// ABOUTME: Store errors map to 400 (validation), 404 (not found) or 500 (everything else)

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/2389/second-brain/internal/capture"
	"github.com/2389/second-brain/internal/status"
	"github.com/2389/second-brain/internal/store"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// IdempotencyKeyHeader lets capture clients retry safely.
const IdempotencyKeyHeader = "Idempotency-Key"

// SuccessResponse is returned by DELETE endpoints.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// StatusRequest is the JSON request body for POST /status.
type StatusRequest struct {
	Status      string  `json:"status"`
	CurrentTask *string `json:"currentTask"`
}

// StatusResponse is the JSON response for POST /status.
type StatusResponse struct {
	*status.Status
	Message string `json:"message"`
}

// writeJSON writes v as a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, map[string]string{"error": message})
}

// sendStoreError maps a store or service error onto an HTTP response.
func (s *Server) sendStoreError(w http.ResponseWriter, r *http.Request, entity string, err error) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		s.sendJSONError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, store.ErrNotFound):
		s.sendJSONError(w, http.StatusNotFound, entity+" not found")
	default:
		s.logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
		)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// parseLimit reads ?limit=. Missing means 0 (the caller's default); a
// non-numeric value is a client error.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("limit must be an integer (got %q)", raw)
	}
	return n, nil
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the store is reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// handleSearch handles GET /search?q=.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	res, err := s.aggregate.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.sendStoreError(w, r, "search", err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// handleContext handles GET /context?limit=.
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.aggregate.Context(r.Context(), limit)
	if err != nil {
		s.sendStoreError(w, r, "context", err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

// handleCapture routes capture requests by HTTP method.
func (s *Server) handleCapture(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListCaptures(w, r)
	case http.MethodPost:
		s.handleCreateCapture(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleListCaptures handles GET /capture?limit=&type=.
func (s *Server) handleListCaptures(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := s.captures.List(r.Context(), limit, r.URL.Query().Get("type"))
	if err != nil {
		s.sendStoreError(w, r, "capture", err)
		return
	}
	s.writeJSON(w, http.StatusOK, records)
}

// handleCreateCapture handles POST /capture.
// An Idempotency-Key header makes retries return the first response.
func (s *Server) handleCreateCapture(w http.ResponseWriter, r *http.Request) {
	var req capture.Request
	if !s.decodeJSON(w, r, &req) {
		return
	}

	res, err := s.captures.Capture(r.Context(), req, r.Header.Get(IdempotencyKeyHeader))
	if errors.Is(err, capture.ErrInProgress) {
		s.sendJSONError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.sendStoreError(w, r, "capture", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, res)
}

// handleStatus routes status requests by HTTP method.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		now := s.now().UTC()
		s.writeJSON(w, http.StatusOK, status.GetOrIdle(r.Context(), s.status, &now))
	case http.MethodPost:
		s.handleSetStatus(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleSetStatus handles POST /status. The whole document is replaced.
func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	state, err := status.ParseState(req.Status)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := s.now().UTC()
	st := &status.Status{
		Status:      state,
		LastUpdated: &now,
		CurrentTask: req.CurrentTask,
	}
	if err := s.status.Set(r.Context(), st); err != nil {
		s.sendStoreError(w, r, "status", err)
		return
	}

	s.logger.Info("status updated", "status", state)
	s.writeJSON(w, http.StatusOK, StatusResponse{Status: st, Message: "Status updated successfully"})
}
