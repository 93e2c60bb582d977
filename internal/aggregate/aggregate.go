// ABOUTME: Read-only compositions over the entity stores: cross-entity search and the context summary
// ABOUTME: Per-entity queries are issued concurrently with errgroup; any failure fails the whole request

package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/2389/second-brain/internal/status"
	"github.com/2389/second-brain/internal/store"
)

const (
	// DefaultContextLimit is used when Context is called with limit <= 0.
	DefaultContextLimit = 10

	recentTaskCount     = 5
	recentNoteCount     = 3
	noteSnippetLength   = 200
	noteSnippetEllipsis = "..."
)

// SearchResult groups matches by entity kind. Every slice is non-nil.
type SearchResult struct {
	Tasks         []*store.Task         `json:"tasks"`
	Notes         []*store.Note         `json:"notes"`
	Conversations []*store.Conversation `json:"conversations"`
	Credentials   []*store.Credential   `json:"credentials"`
}

// TaskSummary is the slice of a task shown in the context view.
type TaskSummary struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Status    *store.TaskStatus   `json:"status"`
	Priority  *store.TaskPriority `json:"priority"`
	Category  *string             `json:"category"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// NoteSummary is the slice of a note shown in the context view.
type NoteSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  *string   `json:"category"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Counts are computed over the fetched (limited) sets, not the whole tables.
type Counts struct {
	TotalTasks    int `json:"totalTasks"`
	ActiveTasks   int `json:"activeTasks"`
	CriticalTasks int `json:"criticalTasks"`
	TotalNotes    int `json:"totalNotes"`
}

// ContextView is a snapshot of recent activity.
type ContextView struct {
	Status        *status.Status `json:"status"`
	Summary       Counts         `json:"summary"`
	ActiveTasks   []*TaskSummary `json:"activeTasks"`
	CriticalTasks []*TaskSummary `json:"criticalTasks"`
	RecentTasks   []*TaskSummary `json:"recentTasks"`
	RecentNotes   []*NoteSummary `json:"recentNotes"`
	LastUpdated   time.Time      `json:"lastUpdated"`
}

// Service runs aggregate queries.
type Service struct {
	store  store.Store
	status status.Store
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates an aggregate query service.
func NewService(s store.Store, st status.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  s,
		status: st,
		now:    time.Now,
		logger: logger.With("component", "aggregate"),
	}
}

// Search matches query case-insensitively against the text fields of every
// entity kind. An empty query matches nothing.
func (s *Service) Search(ctx context.Context, query string) (*SearchResult, error) {
	res := &SearchResult{
		Tasks:         []*store.Task{},
		Notes:         []*store.Note{},
		Conversations: []*store.Conversation{},
		Credentials:   []*store.Credential{},
	}
	if query == "" {
		return res, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tasks, err := s.store.SearchTasks(gctx, query)
		if err != nil {
			return fmt.Errorf("searching tasks: %w", err)
		}
		res.Tasks = nonNil(tasks)
		return nil
	})
	g.Go(func() error {
		notes, err := s.store.SearchNotes(gctx, query)
		if err != nil {
			return fmt.Errorf("searching notes: %w", err)
		}
		res.Notes = nonNil(notes)
		return nil
	})
	g.Go(func() error {
		convs, err := s.store.SearchConversations(gctx, query)
		if err != nil {
			return fmt.Errorf("searching conversations: %w", err)
		}
		res.Conversations = nonNil(convs)
		return nil
	})
	g.Go(func() error {
		creds, err := s.store.SearchCredentials(gctx, query)
		if err != nil {
			return fmt.Errorf("searching credentials: %w", err)
		}
		res.Credentials = nonNil(creds)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("search complete",
		"query", query,
		"tasks", len(res.Tasks),
		"notes", len(res.Notes),
		"conversations", len(res.Conversations),
		"credentials", len(res.Credentials),
	)
	return res, nil
}

// Context summarizes the most recently updated tasks and notes, up to limit
// of each, together with the current status. A missing status reads as idle.
func (s *Service) Context(ctx context.Context, limit int) (*ContextView, error) {
	if limit <= 0 {
		limit = DefaultContextLimit
	}

	var (
		tasks []*store.Task
		notes []*store.Note
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tasks, err = s.store.RecentTasks(gctx, limit); err != nil {
			return fmt.Errorf("loading recent tasks: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if notes, err = s.store.RecentNotes(gctx, limit); err != nil {
			return fmt.Errorf("loading recent notes: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &ContextView{
		Status:        status.GetOrIdle(ctx, s.status, nil),
		ActiveTasks:   []*TaskSummary{},
		CriticalTasks: []*TaskSummary{},
		RecentTasks:   []*TaskSummary{},
		RecentNotes:   []*NoteSummary{},
		LastUpdated:   s.now().UTC(),
	}

	for i, t := range tasks {
		sum := summarizeTask(t)
		if t.Status != nil && t.Status.IsActive() {
			view.ActiveTasks = append(view.ActiveTasks, sum)
		}
		if t.Priority != nil && *t.Priority == store.TaskPriorityCritical {
			view.CriticalTasks = append(view.CriticalTasks, sum)
		}
		if i < recentTaskCount {
			view.RecentTasks = append(view.RecentTasks, sum)
		}
	}
	for i, n := range notes {
		if i >= recentNoteCount {
			break
		}
		view.RecentNotes = append(view.RecentNotes, summarizeNote(n))
	}

	view.Summary = Counts{
		TotalTasks:    len(tasks),
		ActiveTasks:   len(view.ActiveTasks),
		CriticalTasks: len(view.CriticalTasks),
		TotalNotes:    len(notes),
	}
	return view, nil
}

func summarizeTask(t *store.Task) *TaskSummary {
	return &TaskSummary{
		ID:        t.ID,
		Title:     t.Title,
		Status:    t.Status,
		Priority:  t.Priority,
		Category:  t.Category,
		UpdatedAt: t.UpdatedAt,
	}
}

func summarizeNote(n *store.Note) *NoteSummary {
	return &NoteSummary{
		ID:        n.ID,
		Title:     n.Title,
		Content:   Snippet(n.Content),
		Category:  n.Category,
		UpdatedAt: n.UpdatedAt,
	}
}

// Snippet shortens content to its first 200 characters, marking the cut
// with "...".
func Snippet(content string) string {
	if utf8.RuneCountInString(content) <= noteSnippetLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:noteSnippetLength]) + noteSnippetEllipsis
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
