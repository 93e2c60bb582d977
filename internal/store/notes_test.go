package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateNote_DefaultCategory(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	note := &Note{Title: "Idea", Content: "write it down"}
	require.NoError(t, s.CreateNote(ctx, note))

	assert.NotEmpty(t, note.ID)
	require.NotNil(t, note.Category)
	assert.Equal(t, "general", *note.Category)

	got, err := s.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "Idea", got.Title)
	assert.Equal(t, "write it down", got.Content)
	assert.Equal(t, "general", *got.Category)
	assert.Nil(t, got.Tags)
}

func TestCreateNote_RequiresContent(t *testing.T) {
	s := setupTestStore(t)

	err := s.CreateNote(context.Background(), &Note{Title: "empty"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content", verr.Field)
	assert.Equal(t, "content is required", verr.Error())
}

func TestUpdateNote(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	note := &Note{Title: "v1", Content: "first", Category: ptr("journal"), Tags: ptr("a,b")}
	require.NoError(t, s.CreateNote(ctx, note))

	require.NoError(t, s.UpdateNote(ctx, &Note{ID: note.ID, Title: "v2", Content: "second"}))

	got, err := s.GetNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Title)
	assert.Equal(t, "second", got.Content)
	assert.Nil(t, got.Category, "update does not re-apply create defaults")
	assert.Nil(t, got.Tags)

	assert.ErrorIs(t, s.UpdateNote(ctx, &Note{ID: "missing", Title: "t", Content: "c"}), ErrNotFound)
}

func TestDeleteNote(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	note := &Note{Title: "t", Content: "c"}
	require.NoError(t, s.CreateNote(ctx, note))
	require.NoError(t, s.DeleteNote(ctx, note.ID))

	_, err := s.GetNote(ctx, note.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteNote(ctx, note.ID), ErrNotFound)
}

func TestRecentNotes(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, title := range []string{"old", "mid", "new"} {
		note := &Note{Title: title, Content: "c"}
		require.NoError(t, s.CreateNote(ctx, note))
		at := base.Add(time.Duration(i) * time.Minute)
		setTimestamps(t, s, "notes", note.ID, at, at)
	}

	notes, err := s.RecentNotes(ctx, 2)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "new", notes[0].Title)
	assert.Equal(t, "mid", notes[1].Title)
}

func TestFindNotes(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNote(ctx, &Note{Title: "plain", Content: "c"}))
	require.NoError(t, s.CreateNote(ctx, &Note{Title: "idea", Content: "c", Category: ptr("capture:idea")}))
	require.NoError(t, s.CreateNote(ctx, &Note{Title: "todo", Content: "c", Category: ptr("capture:todo")}))
	require.NoError(t, s.CreateNote(ctx, &Note{Title: "lookalike", Content: "c", Category: ptr("captureXidea")}))

	captures, err := s.FindNotes(ctx, NoteFilter{CategoryPrefix: "capture:"})
	require.NoError(t, err)
	assert.Len(t, captures, 2)

	ideas, err := s.FindNotes(ctx, NoteFilter{Category: "capture:idea"})
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	assert.Equal(t, "idea", ideas[0].Title)

	limited, err := s.FindNotes(ctx, NoteFilter{CategoryPrefix: "capture:", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	all, err := s.FindNotes(ctx, NoteFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSearchNotes(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateNote(ctx, &Note{Title: "Meeting", Content: "Discussed the Roadmap"}))
	require.NoError(t, s.CreateNote(ctx, &Note{Title: "Groceries", Content: "milk", Tags: ptr(`{"type":"roadmap"}`)}))
	require.NoError(t, s.CreateNote(ctx, &Note{Title: "Other", Content: "nothing"}))

	notes, err := s.SearchNotes(ctx, "roadmap")
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	none, err := s.SearchNotes(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}
