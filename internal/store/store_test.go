package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// setTimestamps pins a row's timestamps so ordering tests don't depend on the clock.
func setTimestamps(t *testing.T, s *SQLStore, table, id string, created, updated time.Time) {
	t.Helper()
	_, err := s.db.Exec(s.rebind(`UPDATE `+table+` SET created_at = ?, updated_at = ? WHERE id = ?`),
		formatTime(created), formatTime(updated), id)
	require.NoError(t, err)
}

func ptr[T any](v T) *T {
	return &v
}

func TestTaskStatus_IsActive(t *testing.T) {
	assert.True(t, TaskStatusInProgress.IsActive())
	assert.True(t, TaskStatus("in_progress").IsActive())
	assert.False(t, TaskStatusTodo.IsActive())
	assert.False(t, TaskStatusDone.IsActive())
	assert.False(t, TaskStatusBlocked.IsActive())
}

func TestStore_TablesAreIndependent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	task := &Task{Title: "shared words"}
	require.NoError(t, s.CreateTask(ctx, task))
	note := &Note{Title: "shared words", Content: "body"}
	require.NoError(t, s.CreateNote(ctx, note))

	require.NoError(t, s.DeleteTask(ctx, task.ID))

	notes, err := s.ListNotes(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	// IDs are not shared across tables
	assert.ErrorIs(t, s.DeleteNote(ctx, task.ID), ErrNotFound)
}
