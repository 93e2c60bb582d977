// ABOUTME: Store interfaces and data types for second-brain persistence
// ABOUTME: Defines Task, Note, Conversation, Credential records and their access contracts

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// TaskStatus is the closed set of task states. Any state may move to any other.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusBlocked    TaskStatus = "blocked"

	// taskStatusInProgressLegacy is accepted on input and still matched when
	// reading older rows.
	taskStatusInProgressLegacy TaskStatus = "in_progress"
)

// IsActive reports whether the status is an in-progress variant.
func (s TaskStatus) IsActive() bool {
	return s == TaskStatusInProgress || s == taskStatusInProgressLegacy
}

// TaskPriority is the closed set of task priorities.
type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "low"
	TaskPriorityMedium   TaskPriority = "medium"
	TaskPriorityHigh     TaskPriority = "high"
	TaskPriorityCritical TaskPriority = "critical"
)

// Default field values applied on create.
const (
	DefaultTaskStatus   = TaskStatusTodo
	DefaultTaskPriority = TaskPriorityMedium
	DefaultNoteCategory = "general"
)

// Task is a unit of work. Nil optional fields are stored as NULL.
type Task struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Status      *TaskStatus   `json:"status"`
	Priority    *TaskPriority `json:"priority"`
	DueDate     *time.Time    `json:"dueDate"`
	Category    *string       `json:"category"`
	Tags        *string       `json:"tags"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Note is a free-form document. Tags is raw text; see ParseTags for the
// structured form used by captures.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  *string   `json:"category"`
	Tags      *string   `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Conversation is a logged discussion. Date is when it happened, which is
// independent of CreatedAt.
type Conversation struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Participants string    `json:"participants"`
	Summary      string    `json:"summary"`
	Decisions    *string   `json:"decisions"`
	LinkedTasks  *string   `json:"linkedTasks"`
	Date         time.Time `json:"date"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Credential is a stored service login. The password is kept as plain text.
type Credential struct {
	ID        string    `json:"id"`
	Service   string    `json:"service"`
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	URL       *string   `json:"url"`
	Notes     *string   `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

// NoteFilter narrows FindNotes. Category matches exactly; CategoryPrefix
// matches the start of the category. Empty fields are ignored.
type NoteFilter struct {
	Category       string
	CategoryPrefix string
	Limit          int
}

// TaskStore is the entity access contract for tasks.
type TaskStore interface {
	ListTasks(ctx context.Context) ([]*Task, error)
	GetTask(ctx context.Context, id string) (*Task, error)
	CreateTask(ctx context.Context, task *Task) error
	// UpdateTask overwrites every field of the stored task with the given one.
	UpdateTask(ctx context.Context, task *Task) error
	DeleteTask(ctx context.Context, id string) error
	SearchTasks(ctx context.Context, query string) ([]*Task, error)
	RecentTasks(ctx context.Context, limit int) ([]*Task, error)
}

// NoteStore is the entity access contract for notes.
type NoteStore interface {
	ListNotes(ctx context.Context) ([]*Note, error)
	GetNote(ctx context.Context, id string) (*Note, error)
	CreateNote(ctx context.Context, note *Note) error
	UpdateNote(ctx context.Context, note *Note) error
	DeleteNote(ctx context.Context, id string) error
	SearchNotes(ctx context.Context, query string) ([]*Note, error)
	RecentNotes(ctx context.Context, limit int) ([]*Note, error)
	FindNotes(ctx context.Context, filter NoteFilter) ([]*Note, error)
}

// ConversationStore is the entity access contract for conversations.
type ConversationStore interface {
	ListConversations(ctx context.Context) ([]*Conversation, error)
	GetConversation(ctx context.Context, id string) (*Conversation, error)
	CreateConversation(ctx context.Context, conv *Conversation) error
	// UpdateConversation keeps the stored date when conv.Date is zero.
	UpdateConversation(ctx context.Context, conv *Conversation) error
	DeleteConversation(ctx context.Context, id string) error
	SearchConversations(ctx context.Context, query string) ([]*Conversation, error)
}

// CredentialStore is the entity access contract for credentials.
type CredentialStore interface {
	ListCredentials(ctx context.Context) ([]*Credential, error)
	GetCredential(ctx context.Context, id string) (*Credential, error)
	CreateCredential(ctx context.Context, cred *Credential) error
	UpdateCredential(ctx context.Context, cred *Credential) error
	DeleteCredential(ctx context.Context, id string) error
	SearchCredentials(ctx context.Context, query string) ([]*Credential, error)
}

// Store is the full persistent store: four independent tables.
type Store interface {
	TaskStore
	NoteStore
	ConversationStore
	CredentialStore

	// Ping checks that the backing database is reachable
	Ping(ctx context.Context) error

	// Close releases any resources held by the store
	Close() error
}
