// ABOUTME: Working/idle status record and the Store contract for reading and writing it
// ABOUTME: Status is advisory; callers fall back to Idle when the store is unavailable

package status

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable is returned when no usable status record exists.
var ErrUnavailable = errors.New("status unavailable")

// State is whether background work is currently active.
type State string

const (
	Working State = "working"
	Idle    State = "idle"
)

// ParseState validates a state string. An empty string means Idle.
func ParseState(s string) (State, error) {
	switch st := State(s); st {
	case Working, Idle:
		return st, nil
	case "":
		return Idle, nil
	}
	return "", fmt.Errorf("status must be working or idle (got %q)", s)
}

// Status is the persisted status document. It is always read and written
// as a whole.
type Status struct {
	Status      State      `json:"status"`
	LastUpdated *time.Time `json:"lastUpdated"`
	CurrentTask *string    `json:"currentTask,omitempty"`
}

// Store reads and writes the single status record.
type Store interface {
	// Get returns the current status, or ErrUnavailable if none is stored
	// or the stored record is unreadable.
	Get(ctx context.Context) (*Status, error)
	// Set replaces the stored status.
	Set(ctx context.Context, s *Status) error
}

// GetOrIdle returns the stored status, or an Idle status with the given
// LastUpdated when the store has nothing usable.
func GetOrIdle(ctx context.Context, store Store, lastUpdated *time.Time) *Status {
	s, err := store.Get(ctx)
	if err != nil {
		return &Status{Status: Idle, LastUpdated: lastUpdated}
	}
	return s
}
