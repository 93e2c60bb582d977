// ABOUTME: CRUD handlers for tasks, notes, conversations and credentials
// ABOUTME: GET lists or fetches by ?id, POST creates, PUT overwrites by body id, DELETE removes by ?id

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/2389/second-brain/internal/store"
)

// listOrGet serves GET for an entity: ?id= fetches one record, otherwise
// the full list is returned.
func listOrGet[T any](s *Server, w http.ResponseWriter, r *http.Request, entity string,
	get func(context.Context, string) (T, error), list func(context.Context) ([]T, error),
) {
	if id := r.URL.Query().Get("id"); id != "" {
		v, err := get(r.Context(), id)
		if err != nil {
			s.sendStoreError(w, r, entity, err)
			return
		}
		s.writeJSON(w, http.StatusOK, v)
		return
	}

	all, err := list(r.Context())
	if err != nil {
		s.sendStoreError(w, r, entity, err)
		return
	}
	if all == nil {
		all = []T{}
	}
	s.writeJSON(w, http.StatusOK, all)
}

// deleteByID serves DELETE ?id= for an entity.
func (s *Server) deleteByID(w http.ResponseWriter, r *http.Request, entity string, del func(context.Context, string) error) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.sendJSONError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := del(r.Context(), id); err != nil {
		s.sendStoreError(w, r, entity, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// optional dereferences s, reading nil as empty.
func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// parseTagsField accepts tags as a plain string or a JSON object.
func parseTagsField(raw json.RawMessage) (*string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, &store.ValidationError{Field: "tags", Message: "tags must be a string or an object"}
		}
		return store.FreeformTags(text).Serialize()
	case '{':
		var m map[string]any
		if err := json.Unmarshal(trimmed, &m); err != nil {
			return nil, &store.ValidationError{Field: "tags", Message: "tags must be a string or an object"}
		}
		return store.StructuredTags(m).Serialize()
	}
	return nil, &store.ValidationError{Field: "tags", Message: "tags must be a string or an object"}
}

// Tasks

// TaskRequest is the JSON body for POST and PUT /tasks.
type TaskRequest struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	Status      *string         `json:"status"`
	Priority    *string         `json:"priority"`
	DueDate     *string         `json:"dueDate"`
	Category    *string         `json:"category"`
	Tags        json.RawMessage `json:"tags"`
}

func (req *TaskRequest) toTask() (*store.Task, error) {
	t := &store.Task{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	if v := optional(req.Status); v != "" {
		st := store.TaskStatus(v)
		t.Status = &st
	}
	if v := optional(req.Priority); v != "" {
		p := store.TaskPriority(v)
		t.Priority = &p
	}
	if v := optional(req.DueDate); v != "" {
		due, err := store.ParseDate("dueDate", v)
		if err != nil {
			return nil, err
		}
		t.DueDate = &due
	}
	tags, err := parseTagsField(req.Tags)
	if err != nil {
		return nil, err
	}
	t.Tags = tags
	return t, nil
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		listOrGet(s, w, r, "task", s.store.GetTask, s.store.ListTasks)
	case http.MethodPost, http.MethodPut:
		s.handleSaveTask(w, r)
	case http.MethodDelete:
		s.deleteByID(w, r, "task", s.store.DeleteTask)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleSaveTask handles POST (create) and PUT (full overwrite) /tasks.
func (s *Server) handleSaveTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	task, err := req.toTask()
	if err != nil {
		s.sendStoreError(w, r, "task", err)
		return
	}

	if r.Method == http.MethodPost {
		task.ID = ""
		if err := s.store.CreateTask(r.Context(), task); err != nil {
			s.sendStoreError(w, r, "task", err)
			return
		}
		s.writeJSON(w, http.StatusCreated, task)
		return
	}

	if task.ID == "" {
		s.sendJSONError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := s.store.UpdateTask(r.Context(), task); err != nil {
		s.sendStoreError(w, r, "task", err)
		return
	}
	s.writeJSON(w, http.StatusOK, task)
}

// Notes

// NoteRequest is the JSON body for POST and PUT /notes.
type NoteRequest struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Content  string          `json:"content"`
	Category *string         `json:"category"`
	Tags     json.RawMessage `json:"tags"`
}

func (req *NoteRequest) toNote() (*store.Note, error) {
	n := &store.Note{
		ID:       req.ID,
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
	}
	tags, err := parseTagsField(req.Tags)
	if err != nil {
		return nil, err
	}
	n.Tags = tags
	return n, nil
}

// NoteDetail is a note with its content rendered as HTML.
type NoteDetail struct {
	*store.Note
	ContentHTML string `json:"contentHtml"`
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if r.URL.Query().Get("format") == "html" && r.URL.Query().Get("id") != "" {
			s.handleNoteHTML(w, r)
			return
		}
		listOrGet(s, w, r, "note", s.store.GetNote, s.store.ListNotes)
	case http.MethodPost, http.MethodPut:
		s.handleSaveNote(w, r)
	case http.MethodDelete:
		s.deleteByID(w, r, "note", s.store.DeleteNote)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleNoteHTML handles GET /notes?id=X&format=html.
func (s *Server) handleNoteHTML(w http.ResponseWriter, r *http.Request) {
	note, err := s.store.GetNote(r.Context(), r.URL.Query().Get("id"))
	if err != nil {
		s.sendStoreError(w, r, "note", err)
		return
	}

	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(note.Content), &buf); err != nil {
		s.sendStoreError(w, r, "note", err)
		return
	}
	s.writeJSON(w, http.StatusOK, NoteDetail{Note: note, ContentHTML: buf.String()})
}

// handleSaveNote handles POST (create) and PUT (full overwrite) /notes.
func (s *Server) handleSaveNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	note, err := req.toNote()
	if err != nil {
		s.sendStoreError(w, r, "note", err)
		return
	}

	if r.Method == http.MethodPost {
		note.ID = ""
		if err := s.store.CreateNote(r.Context(), note); err != nil {
			s.sendStoreError(w, r, "note", err)
			return
		}
		s.writeJSON(w, http.StatusCreated, note)
		return
	}

	if note.ID == "" {
		s.sendJSONError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := s.store.UpdateNote(r.Context(), note); err != nil {
		s.sendStoreError(w, r, "note", err)
		return
	}
	s.writeJSON(w, http.StatusOK, note)
}

// Conversations

// ConversationRequest is the JSON body for POST and PUT /conversations.
type ConversationRequest struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Participants string  `json:"participants"`
	Summary      string  `json:"summary"`
	Decisions    *string `json:"decisions"`
	LinkedTasks  *string `json:"linkedTasks"`
	Date         *string `json:"date"`
}

func (req *ConversationRequest) toConversation() (*store.Conversation, error) {
	c := &store.Conversation{
		ID:           req.ID,
		Title:        req.Title,
		Participants: req.Participants,
		Summary:      req.Summary,
		Decisions:    req.Decisions,
		LinkedTasks:  req.LinkedTasks,
	}
	if v := optional(req.Date); v != "" {
		date, err := store.ParseDate("date", v)
		if err != nil {
			return nil, err
		}
		c.Date = date
	}
	return c, nil
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		listOrGet(s, w, r, "conversation", s.store.GetConversation, s.store.ListConversations)
	case http.MethodPost, http.MethodPut:
		s.handleSaveConversation(w, r)
	case http.MethodDelete:
		s.deleteByID(w, r, "conversation", s.store.DeleteConversation)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleSaveConversation handles POST (create) and PUT (overwrite) /conversations.
// A PUT without a date keeps the stored date.
func (s *Server) handleSaveConversation(w http.ResponseWriter, r *http.Request) {
	var req ConversationRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	conv, err := req.toConversation()
	if err != nil {
		s.sendStoreError(w, r, "conversation", err)
		return
	}

	if r.Method == http.MethodPost {
		conv.ID = ""
		if err := s.store.CreateConversation(r.Context(), conv); err != nil {
			s.sendStoreError(w, r, "conversation", err)
			return
		}
		s.writeJSON(w, http.StatusCreated, conv)
		return
	}

	if conv.ID == "" {
		s.sendJSONError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := s.store.UpdateConversation(r.Context(), conv); err != nil {
		s.sendStoreError(w, r, "conversation", err)
		return
	}
	s.writeJSON(w, http.StatusOK, conv)
}

// Credentials

// CredentialRequest is the JSON body for POST and PUT /credentials.
type CredentialRequest struct {
	ID       string  `json:"id"`
	Service  string  `json:"service"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	URL      *string `json:"url"`
	Notes    *string `json:"notes"`
}

func (req *CredentialRequest) toCredential() *store.Credential {
	return &store.Credential{
		ID:       req.ID,
		Service:  req.Service,
		Username: req.Username,
		Password: req.Password,
		URL:      req.URL,
		Notes:    req.Notes,
	}
}

func (s *Server) handleCredentials(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		listOrGet(s, w, r, "credential", s.store.GetCredential, s.store.ListCredentials)
	case http.MethodPost, http.MethodPut:
		s.handleSaveCredential(w, r)
	case http.MethodDelete:
		s.deleteByID(w, r, "credential", s.store.DeleteCredential)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleSaveCredential handles POST (create) and PUT (overwrite) /credentials.
func (s *Server) handleSaveCredential(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	cred := req.toCredential()

	if r.Method == http.MethodPost {
		cred.ID = ""
		if err := s.store.CreateCredential(r.Context(), cred); err != nil {
			s.sendStoreError(w, r, "credential", err)
			return
		}
		s.writeJSON(w, http.StatusCreated, cred)
		return
	}

	if cred.ID == "" {
		s.sendJSONError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := s.store.UpdateCredential(r.Context(), cred); err != nil {
		s.sendStoreError(w, r, "credential", err)
		return
	}
	s.writeJSON(w, http.StatusOK, cred)
}
