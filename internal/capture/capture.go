// ABOUTME: Quick-capture service that stores loosely typed entries as notes
// ABOUTME: Captures live under the reserved "capture:<type>" category with structured tags

package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2389/second-brain/internal/dedupe"
	"github.com/2389/second-brain/internal/store"
)

// CategoryPrefix marks notes created by capture.
const CategoryPrefix = "capture:"

const (
	DefaultType  = "note"
	DefaultLimit = 20
)

// ErrInProgress is returned when a request with the same idempotency key
// is still being processed.
var ErrInProgress = errors.New("a request with this idempotency key is in progress")

// Request is a capture submission. Only Text is required.
type Request struct {
	Text     string         `json:"text"`
	Type     string         `json:"type,omitempty"`
	Source   string         `json:"source,omitempty"`
	Title    string         `json:"title,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Result acknowledges a stored capture.
type Result struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Record is a capture as read back from the note store.
type Record struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Type      string         `json:"type"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Service stores and lists captures.
type Service struct {
	notes         store.NoteStore
	defaultSource string
	seen          *dedupe.Cache[*Result]
	now           func() time.Time
	logger        *slog.Logger
}

// NewService creates a capture service. seen may be nil to disable
// idempotency key handling.
func NewService(notes store.NoteStore, defaultSource string, seen *dedupe.Cache[*Result], logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultSource == "" {
		defaultSource = "api"
	}
	return &Service{
		notes:         notes,
		defaultSource: defaultSource,
		seen:          seen,
		now:           time.Now,
		logger:        logger.With("component", "capture"),
	}
}

// Capture stores req as a note. When idempotencyKey is set and was seen
// within the dedupe window, the first result is returned and nothing new is stored.
func (s *Service) Capture(ctx context.Context, req Request, idempotencyKey string) (*Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, &store.ValidationError{Field: "text", Message: "text is required"}
	}

	if idempotencyKey == "" || s.seen == nil {
		return s.capture(ctx, req)
	}

	prev, state := s.seen.Claim(idempotencyKey)
	switch state {
	case dedupe.Done:
		s.logger.Debug("replaying capture", "idempotency_key", idempotencyKey, "id", prev.ID)
		return prev, nil
	case dedupe.Pending:
		return nil, ErrInProgress
	}

	res, err := s.capture(ctx, req)
	if err != nil {
		s.seen.Release(idempotencyKey)
		return nil, err
	}
	s.seen.Complete(idempotencyKey, res)
	return res, nil
}

func (s *Service) capture(ctx context.Context, req Request) (*Result, error) {
	now := s.now()

	typ := strings.TrimSpace(req.Type)
	if typ == "" {
		typ = DefaultType
	}
	source := req.Source
	if source == "" {
		source = s.defaultSource
	}
	title := req.Title
	if title == "" {
		title = "Quick Capture - " + now.Local().Format("1/2/2006, 3:04:05 PM")
	}

	// Caller metadata never overrides the bookkeeping keys
	payload := make(map[string]any, len(req.Metadata)+3)
	for k, v := range req.Metadata {
		payload[k] = v
	}
	payload["type"] = typ
	payload["source"] = source
	payload["timestamp"] = now.UTC().Format(time.RFC3339Nano)

	tags, err := store.StructuredTags(payload).Serialize()
	if err != nil {
		return nil, err
	}

	category := CategoryPrefix + typ
	note := &store.Note{
		Title:    title,
		Content:  req.Text,
		Category: &category,
		Tags:     tags,
	}
	if err := s.notes.CreateNote(ctx, note); err != nil {
		return nil, fmt.Errorf("storing capture: %w", err)
	}

	s.logger.Info("captured", "id", note.ID, "type", typ, "source", source)
	return &Result{
		Success: true,
		ID:      note.ID,
		Type:    typ,
		Message: fmt.Sprintf("Captured %s successfully", typ),
	}, nil
}

// List returns the newest captures, optionally of a single type.
// A limit <= 0 uses DefaultLimit.
func (s *Service) List(ctx context.Context, limit int, typ string) ([]*Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	filter := store.NoteFilter{CategoryPrefix: CategoryPrefix, Limit: limit}
	if typ != "" {
		filter = store.NoteFilter{Category: CategoryPrefix + typ, Limit: limit}
	}

	notes, err := s.notes.FindNotes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing captures: %w", err)
	}

	records := make([]*Record, 0, len(notes))
	for _, n := range notes {
		records = append(records, toRecord(n))
	}
	return records, nil
}

func toRecord(n *store.Note) *Record {
	var typ string
	if n.Category != nil {
		typ = strings.TrimPrefix(*n.Category, CategoryPrefix)
	}
	return &Record{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Type:      typ,
		Metadata:  store.ParseTags(n.Tags).Metadata(),
		CreatedAt: n.CreatedAt,
	}
}
