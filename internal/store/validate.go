// ABOUTME: Field validation and create-time defaults shared by every Store implementation
// ABOUTME: Produces ValidationError for missing required fields, bad enums, and bad dates

package store

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError reports a request that cannot be stored as given.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: field + " is required"}
	}
	return nil
}

// ParseTaskStatus validates a status string. The legacy "in_progress"
// spelling is normalized to TaskStatusInProgress.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch st := TaskStatus(s); st {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone, TaskStatusBlocked:
		return st, nil
	case taskStatusInProgressLegacy:
		return TaskStatusInProgress, nil
	}
	return "", &ValidationError{
		Field:   "status",
		Message: fmt.Sprintf("status must be one of todo, in-progress, done, blocked (got %q)", s),
	}
}

// ParseTaskPriority validates a priority string.
func ParseTaskPriority(s string) (TaskPriority, error) {
	switch p := TaskPriority(s); p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityCritical:
		return p, nil
	}
	return "", &ValidationError{
		Field:   "priority",
		Message: fmt.Sprintf("priority must be one of low, medium, high, critical (got %q)", s),
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate accepts a calendar date or a full timestamp. Values without a
// zone are read as UTC.
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%s must be a date (YYYY-MM-DD) or RFC 3339 timestamp (got %q)", field, s),
	}
}

// validateTask checks required fields and normalizes enum values in place.
func validateTask(t *Task) error {
	if err := required("title", t.Title); err != nil {
		return err
	}
	if t.Status != nil {
		st, err := ParseTaskStatus(string(*t.Status))
		if err != nil {
			return err
		}
		t.Status = &st
	}
	if t.Priority != nil {
		p, err := ParseTaskPriority(string(*t.Priority))
		if err != nil {
			return err
		}
		t.Priority = &p
	}
	return nil
}

func applyTaskDefaults(t *Task) {
	if t.Status == nil || *t.Status == "" {
		st := DefaultTaskStatus
		t.Status = &st
	}
	if t.Priority == nil || *t.Priority == "" {
		p := DefaultTaskPriority
		t.Priority = &p
	}
}

func validateNote(n *Note) error {
	if err := required("title", n.Title); err != nil {
		return err
	}
	return required("content", n.Content)
}

func applyNoteDefaults(n *Note) {
	if n.Category == nil || *n.Category == "" {
		c := DefaultNoteCategory
		n.Category = &c
	}
}

func validateConversation(c *Conversation) error {
	if err := required("title", c.Title); err != nil {
		return err
	}
	if err := required("participants", c.Participants); err != nil {
		return err
	}
	return required("summary", c.Summary)
}

func validateCredential(c *Credential) error {
	if err := required("service", c.Service); err != nil {
		return err
	}
	if err := required("username", c.Username); err != nil {
		return err
	}
	return required("password", c.Password)
}
