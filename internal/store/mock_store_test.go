// ABOUTME: Unit tests for MockStore to ensure behavior matches SQLStore
// ABOUTME: Covers defaults, overwrite semantics, ordering ties, and failure injection

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStore_CreateTask_Defaults(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	task := &Task{Title: "x"}
	require.NoError(t, store.CreateTask(ctx, task))
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, TaskStatusTodo, *task.Status)
	assert.Equal(t, TaskPriorityMedium, *task.Priority)

	// Returned copies don't alias stored state
	got, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	got.Title = "mutated"
	again, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", again.Title)
}

func TestMockStore_UpdateTask_Overwrites(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	task := &Task{Title: "x", Priority: ptr(TaskPriorityHigh)}
	require.NoError(t, store.CreateTask(ctx, task))
	require.NoError(t, store.UpdateTask(ctx, &Task{ID: task.ID, Title: "y"}))

	got, err := store.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Status)
	assert.Nil(t, got.Priority)

	assert.ErrorIs(t, store.UpdateTask(ctx, &Task{ID: "nope", Title: "y"}), ErrNotFound)
}

func TestMockStore_ListOrder_TiesBreakByInsertion(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	for _, title := range []string{"one", "two", "three"} {
		require.NoError(t, store.CreateNote(ctx, &Note{Title: title, Content: "c"}))
	}

	notes, err := store.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "three", notes[0].Title)
	assert.Equal(t, "one", notes[2].Title)

	recent, err := store.RecentNotes(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestMockStore_FindNotes(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	require.NoError(t, store.CreateNote(ctx, &Note{Title: "a", Content: "c", Category: ptr("capture:idea")}))
	require.NoError(t, store.CreateNote(ctx, &Note{Title: "b", Content: "c"}))

	notes, err := store.FindNotes(ctx, NoteFilter{CategoryPrefix: "capture:"})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "a", notes[0].Title)
}

func TestMockStore_Search(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	require.NoError(t, store.CreateTask(ctx, &Task{Title: "Fix BUG"}))
	require.NoError(t, store.CreateCredential(ctx, &Credential{Service: "bugzilla", Username: "u", Password: "p"}))

	tasks, err := store.SearchTasks(ctx, "bug")
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	creds, err := store.SearchCredentials(ctx, "BUG")
	require.NoError(t, err)
	assert.Len(t, creds, 1)

	empty, err := store.SearchConversations(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, empty)
}

func TestMockStore_UpdateConversation_KeepsDate(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()

	conv := &Conversation{Title: "t", Participants: "p", Summary: "s"}
	require.NoError(t, store.CreateConversation(ctx, conv))

	update := &Conversation{ID: conv.ID, Title: "t2", Participants: "p", Summary: "s"}
	require.NoError(t, store.UpdateConversation(ctx, update))
	assert.True(t, conv.Date.Equal(update.Date))
}

func TestMockStore_Err(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	boom := errors.New("database is down")
	store.Err = boom

	_, err := store.ListTasks(ctx)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, store.CreateNote(ctx, &Note{Title: "t", Content: "c"}), boom)
	assert.ErrorIs(t, store.DeleteCredential(ctx, "x"), boom)
	assert.ErrorIs(t, store.Ping(ctx), boom)

	store.Err = nil
	notes, err := store.ListNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes, "failed create must not store anything")
}
