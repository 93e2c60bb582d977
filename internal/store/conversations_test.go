package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateConversation_DefaultDate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	conv := &Conversation{Title: "Standup", Participants: "ana, bo", Summary: "all good"}
	require.NoError(t, s.CreateConversation(ctx, conv))

	assert.NotEmpty(t, conv.ID)
	assert.True(t, conv.Date.After(before))

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana, bo", got.Participants)
	assert.True(t, conv.Date.Equal(got.Date))
	assert.Nil(t, got.Decisions)
	assert.Nil(t, got.LinkedTasks)
}

func TestCreateConversation_PastDate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	past := time.Date(2023, 11, 5, 0, 0, 0, 0, time.UTC)
	conv := &Conversation{
		Title:        "Vendor call",
		Participants: "me, vendor",
		Summary:      "pricing",
		Decisions:    ptr("go with plan B"),
		LinkedTasks:  ptr("task-1, task-2"),
		Date:         past,
	}
	require.NoError(t, s.CreateConversation(ctx, conv))

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, past.Equal(got.Date))
	assert.True(t, got.CreatedAt.After(past), "date is independent of createdAt")
	assert.Equal(t, "go with plan B", *got.Decisions)
	assert.Equal(t, "task-1, task-2", *got.LinkedTasks)
}

func TestCreateConversation_Validation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for field, conv := range map[string]*Conversation{
		"title":        {Participants: "p", Summary: "s"},
		"participants": {Title: "t", Summary: "s"},
		"summary":      {Title: "t", Participants: "p"},
	} {
		t.Run(field, func(t *testing.T) {
			var verr *ValidationError
			require.ErrorAs(t, s.CreateConversation(ctx, conv), &verr)
			assert.Equal(t, field, verr.Field)
		})
	}
}

func TestListConversations_ByDate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	dates := map[string]time.Time{
		"newest": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		"oldest": time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		"middle": time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, title := range []string{"newest", "oldest", "middle"} {
		require.NoError(t, s.CreateConversation(ctx, &Conversation{
			Title: title, Participants: "p", Summary: "s", Date: dates[title],
		}))
	}

	convs, err := s.ListConversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 3)
	assert.Equal(t, "newest", convs[0].Title)
	assert.Equal(t, "middle", convs[1].Title)
	assert.Equal(t, "oldest", convs[2].Title)
}

func TestUpdateConversation_KeepsDateWhenOmitted(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	past := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	conv := &Conversation{Title: "t", Participants: "p", Summary: "s", Decisions: ptr("d"), Date: past}
	require.NoError(t, s.CreateConversation(ctx, conv))

	update := &Conversation{ID: conv.ID, Title: "t2", Participants: "p2", Summary: "s2"}
	require.NoError(t, s.UpdateConversation(ctx, update))
	assert.True(t, past.Equal(update.Date))

	got, err := s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "t2", got.Title)
	assert.True(t, past.Equal(got.Date))
	assert.Nil(t, got.Decisions)

	moved := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpdateConversation(ctx, &Conversation{ID: conv.ID, Title: "t3", Participants: "p", Summary: "s", Date: moved}))
	got, err = s.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, moved.Equal(got.Date))
}

func TestUpdateConversation_NotFound(t *testing.T) {
	s := setupTestStore(t)

	err := s.UpdateConversation(context.Background(), &Conversation{ID: "nope", Title: "t", Participants: "p", Summary: "s"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteConversation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	conv := &Conversation{Title: "t", Participants: "p", Summary: "s"}
	require.NoError(t, s.CreateConversation(ctx, conv))
	require.NoError(t, s.DeleteConversation(ctx, conv.ID))
	assert.ErrorIs(t, s.DeleteConversation(ctx, conv.ID), ErrNotFound)
}

func TestSearchConversations(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateConversation(ctx, &Conversation{Title: "Sync", Participants: "Alice, Bob", Summary: "weekly"}))
	require.NoError(t, s.CreateConversation(ctx, &Conversation{Title: "Budget", Participants: "Carol", Summary: "numbers", Decisions: ptr("hire alice's team")}))
	require.NoError(t, s.CreateConversation(ctx, &Conversation{Title: "Other", Participants: "Dan", Summary: "misc", LinkedTasks: ptr("alice")}))

	convs, err := s.SearchConversations(ctx, "ALICE")
	require.NoError(t, err)
	assert.Len(t, convs, 2, "linked tasks are not searched")
}
