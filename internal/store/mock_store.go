// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject store failures

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu            sync.RWMutex
	tasks         map[string]*Task
	notes         map[string]*Note
	conversations map[string]*Conversation
	credentials   map[string]*Credential
	seq           map[string]int64 // insertion order, breaks timestamp ties
	next          int64

	// Err, when set, is returned by every method.
	Err error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		tasks:         make(map[string]*Task),
		notes:         make(map[string]*Note),
		conversations: make(map[string]*Conversation),
		credentials:   make(map[string]*Credential),
		seq:           make(map[string]int64),
	}
}

func (m *MockStore) register(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
	m.next++
	m.seq[*id] = m.next
}

// newerFirst orders by t descending, then by insertion order descending.
func (m *MockStore) newerFirst(ti, tj time.Time, idi, idj string) bool {
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return m.seq[idi] > m.seq[idj]
}

func containsFold(query string, fields ...*string) bool {
	q := strings.ToLower(query)
	for _, f := range fields {
		if f != nil && strings.Contains(strings.ToLower(*f), q) {
			return true
		}
	}
	return false
}

// Tasks

func (m *MockStore) sortedTasks(byUpdate bool, keep func(*Task) bool) []*Task {
	result := make([]*Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if keep != nil && !keep(t) {
			continue
		}
		c := *t
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if byUpdate {
			return m.newerFirst(result[i].UpdatedAt, result[j].UpdatedAt, result[i].ID, result[j].ID)
		}
		return m.newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})
	return result
}

// ListTasks returns every task, newest first.
func (m *MockStore) ListTasks(ctx context.Context) ([]*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.sortedTasks(false, nil), nil
}

// RecentTasks returns up to limit tasks by most recent update.
func (m *MockStore) RecentTasks(ctx context.Context, limit int) ([]*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	result := m.sortedTasks(true, nil)
	if limit < 0 {
		limit = 0
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// GetTask retrieves a task by ID.
func (m *MockStore) GetTask(ctx context.Context, id string) (*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *t
	return &result, nil
}

// CreateTask stores a new task.
func (m *MockStore) CreateTask(ctx context.Context, task *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	applyTaskDefaults(task)
	if err := validateTask(task); err != nil {
		return err
	}
	m.register(&task.ID)
	task.CreatedAt = newTimestamp()
	task.UpdatedAt = task.CreatedAt

	// Make a copy to avoid external modification
	t := *task
	m.tasks[t.ID] = &t
	return nil
}

// UpdateTask overwrites an existing task.
func (m *MockStore) UpdateTask(ctx context.Context, task *Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := validateTask(task); err != nil {
		return err
	}
	existing, ok := m.tasks[task.ID]
	if !ok {
		return ErrNotFound
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = newTimestamp()

	t := *task
	m.tasks[t.ID] = &t
	return nil
}

// DeleteTask deletes a task by ID.
func (m *MockStore) DeleteTask(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

// SearchTasks matches the query against title, description, category and tags.
func (m *MockStore) SearchTasks(ctx context.Context, query string) ([]*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if query == "" {
		return []*Task{}, nil
	}
	return m.sortedTasks(false, func(t *Task) bool {
		return containsFold(query, &t.Title, t.Description, t.Category, t.Tags)
	}), nil
}

// Notes

func (m *MockStore) sortedNotes(byUpdate bool, keep func(*Note) bool) []*Note {
	result := make([]*Note, 0, len(m.notes))
	for _, n := range m.notes {
		if keep != nil && !keep(n) {
			continue
		}
		c := *n
		result = append(result, &c)
	}
	sort.Slice(result, func(i, j int) bool {
		if byUpdate {
			return m.newerFirst(result[i].UpdatedAt, result[j].UpdatedAt, result[i].ID, result[j].ID)
		}
		return m.newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})
	return result
}

// ListNotes returns every note, newest first.
func (m *MockStore) ListNotes(ctx context.Context) ([]*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.sortedNotes(false, nil), nil
}

// RecentNotes returns up to limit notes by most recent update.
func (m *MockStore) RecentNotes(ctx context.Context, limit int) ([]*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	result := m.sortedNotes(true, nil)
	if limit < 0 {
		limit = 0
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// FindNotes returns notes matching the filter, newest first.
func (m *MockStore) FindNotes(ctx context.Context, filter NoteFilter) ([]*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	result := m.sortedNotes(false, func(n *Note) bool {
		cat := ""
		if n.Category != nil {
			cat = *n.Category
		}
		if filter.Category != "" && cat != filter.Category {
			return false
		}
		return strings.HasPrefix(cat, filter.CategoryPrefix)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

// GetNote retrieves a note by ID.
func (m *MockStore) GetNote(ctx context.Context, id string) (*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	n, ok := m.notes[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *n
	return &result, nil
}

// CreateNote stores a new note.
func (m *MockStore) CreateNote(ctx context.Context, note *Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	applyNoteDefaults(note)
	if err := validateNote(note); err != nil {
		return err
	}
	m.register(&note.ID)
	note.CreatedAt = newTimestamp()
	note.UpdatedAt = note.CreatedAt

	n := *note
	m.notes[n.ID] = &n
	return nil
}

// UpdateNote overwrites an existing note.
func (m *MockStore) UpdateNote(ctx context.Context, note *Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := validateNote(note); err != nil {
		return err
	}
	existing, ok := m.notes[note.ID]
	if !ok {
		return ErrNotFound
	}
	note.CreatedAt = existing.CreatedAt
	note.UpdatedAt = newTimestamp()

	n := *note
	m.notes[n.ID] = &n
	return nil
}

// DeleteNote deletes a note by ID.
func (m *MockStore) DeleteNote(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.notes[id]; !ok {
		return ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

// SearchNotes matches the query against title, content, category and tags.
func (m *MockStore) SearchNotes(ctx context.Context, query string) ([]*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if query == "" {
		return []*Note{}, nil
	}
	return m.sortedNotes(false, func(n *Note) bool {
		return containsFold(query, &n.Title, &n.Content, n.Category, n.Tags)
	}), nil
}

// Conversations

func (m *MockStore) sortedConversations(keep func(*Conversation) bool) []*Conversation {
	result := make([]*Conversation, 0, len(m.conversations))
	for _, c := range m.conversations {
		if keep != nil && !keep(c) {
			continue
		}
		cc := *c
		result = append(result, &cc)
	}
	sort.Slice(result, func(i, j int) bool {
		return m.newerFirst(result[i].Date, result[j].Date, result[i].ID, result[j].ID)
	})
	return result
}

// ListConversations returns every conversation, most recent date first.
func (m *MockStore) ListConversations(ctx context.Context) ([]*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.sortedConversations(nil), nil
}

// GetConversation retrieves a conversation by ID.
func (m *MockStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *c
	return &result, nil
}

// CreateConversation stores a new conversation.
func (m *MockStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := validateConversation(conv); err != nil {
		return err
	}
	m.register(&conv.ID)
	conv.CreatedAt = newTimestamp()
	conv.UpdatedAt = conv.CreatedAt
	if conv.Date.IsZero() {
		conv.Date = conv.CreatedAt
	}

	c := *conv
	m.conversations[c.ID] = &c
	return nil
}

// UpdateConversation overwrites an existing conversation, keeping the stored
// date when conv.Date is zero.
func (m *MockStore) UpdateConversation(ctx context.Context, conv *Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := validateConversation(conv); err != nil {
		return err
	}
	existing, ok := m.conversations[conv.ID]
	if !ok {
		return ErrNotFound
	}
	conv.CreatedAt = existing.CreatedAt
	conv.UpdatedAt = newTimestamp()
	if conv.Date.IsZero() {
		conv.Date = existing.Date
	}

	c := *conv
	m.conversations[c.ID] = &c
	return nil
}

// DeleteConversation deletes a conversation by ID.
func (m *MockStore) DeleteConversation(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(m.conversations, id)
	return nil
}

// SearchConversations matches the query against title, summary, participants
// and decisions.
func (m *MockStore) SearchConversations(ctx context.Context, query string) ([]*Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if query == "" {
		return []*Conversation{}, nil
	}
	return m.sortedConversations(func(c *Conversation) bool {
		return containsFold(query, &c.Title, &c.Summary, &c.Participants, c.Decisions)
	}), nil
}

// Credentials

func (m *MockStore) sortedCredentials(keep func(*Credential) bool) []*Credential {
	result := make([]*Credential, 0, len(m.credentials))
	for _, c := range m.credentials {
		if keep != nil && !keep(c) {
			continue
		}
		cc := *c
		result = append(result, &cc)
	}
	sort.Slice(result, func(i, j int) bool {
		return m.newerFirst(result[i].CreatedAt, result[j].CreatedAt, result[i].ID, result[j].ID)
	})
	return result
}

// ListCredentials returns every credential, newest first.
func (m *MockStore) ListCredentials(ctx context.Context) ([]*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.sortedCredentials(nil), nil
}

// GetCredential retrieves a credential by ID.
func (m *MockStore) GetCredential(ctx context.Context, id string) (*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	c, ok := m.credentials[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *c
	return &result, nil
}

// CreateCredential stores a new credential.
func (m *MockStore) CreateCredential(ctx context.Context, cred *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := validateCredential(cred); err != nil {
		return err
	}
	m.register(&cred.ID)
	cred.CreatedAt = newTimestamp()

	c := *cred
	m.credentials[c.ID] = &c
	return nil
}

// UpdateCredential overwrites an existing credential.
func (m *MockStore) UpdateCredential(ctx context.Context, cred *Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if err := validateCredential(cred); err != nil {
		return err
	}
	existing, ok := m.credentials[cred.ID]
	if !ok {
		return ErrNotFound
	}
	cred.CreatedAt = existing.CreatedAt

	c := *cred
	m.credentials[c.ID] = &c
	return nil
}

// DeleteCredential deletes a credential by ID.
func (m *MockStore) DeleteCredential(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if _, ok := m.credentials[id]; !ok {
		return ErrNotFound
	}
	delete(m.credentials, id)
	return nil
}

// SearchCredentials matches the query against service, username and notes.
func (m *MockStore) SearchCredentials(ctx context.Context, query string) ([]*Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if query == "" {
		return []*Credential{}, nil
	}
	return m.sortedCredentials(func(c *Credential) bool {
		return containsFold(query, &c.Service, &c.Username, c.Notes)
	}), nil
}

// Ping reports the injected failure, if any.
func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Err
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// Ensure MockStore implements Store interface
var _ Store = (*MockStore)(nil)
