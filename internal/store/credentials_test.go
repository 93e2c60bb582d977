package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCredential(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	cred := &Credential{Service: "GitHub", Username: "me", Password: "hunter2", URL: ptr("https://github.com")}
	require.NoError(t, s.CreateCredential(ctx, cred))
	assert.NotEmpty(t, cred.ID)
	assert.False(t, cred.CreatedAt.IsZero())

	got, err := s.GetCredential(ctx, cred.ID)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got.Password, "passwords are stored as given")
	assert.Equal(t, "https://github.com", *got.URL)
	assert.Nil(t, got.Notes)
}

func TestCreateCredential_NoUniqueness(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCredential(ctx, &Credential{Service: "aws", Username: "root", Password: "a"}))
	require.NoError(t, s.CreateCredential(ctx, &Credential{Service: "aws", Username: "root", Password: "b"}))

	creds, err := s.ListCredentials(ctx)
	require.NoError(t, err)
	assert.Len(t, creds, 2)
}

func TestCreateCredential_Validation(t *testing.T) {
	s := setupTestStore(t)

	var verr *ValidationError
	err := s.CreateCredential(context.Background(), &Credential{Service: "x", Username: "y"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "password", verr.Field)
}

func TestListCredentials_NewestFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, svc := range []string{"a", "b", "c"} {
		cred := &Credential{Service: svc, Username: "u", Password: "p"}
		require.NoError(t, s.CreateCredential(ctx, cred))
		_, err := s.db.Exec(s.rebind(`UPDATE credentials SET created_at = ? WHERE id = ?`),
			formatTime(base.Add(time.Duration(i)*time.Hour)), cred.ID)
		require.NoError(t, err)
	}

	creds, err := s.ListCredentials(ctx)
	require.NoError(t, err)
	require.Len(t, creds, 3)
	assert.Equal(t, "c", creds[0].Service)
	assert.Equal(t, "a", creds[2].Service)
}

func TestUpdateCredential(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	cred := &Credential{Service: "s", Username: "u", Password: "p", Notes: ptr("old note")}
	require.NoError(t, s.CreateCredential(ctx, cred))

	update := &Credential{ID: cred.ID, Service: "s", Username: "u2", Password: "p2"}
	require.NoError(t, s.UpdateCredential(ctx, update))
	assert.True(t, cred.CreatedAt.Equal(update.CreatedAt))

	got, err := s.GetCredential(ctx, cred.ID)
	require.NoError(t, err)
	assert.Equal(t, "u2", got.Username)
	assert.Nil(t, got.Notes)

	assert.ErrorIs(t, s.UpdateCredential(ctx, &Credential{ID: "nope", Service: "s", Username: "u", Password: "p"}), ErrNotFound)
}

func TestDeleteCredential(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	cred := &Credential{Service: "s", Username: "u", Password: "p"}
	require.NoError(t, s.CreateCredential(ctx, cred))
	require.NoError(t, s.DeleteCredential(ctx, cred.ID))
	assert.ErrorIs(t, s.DeleteCredential(ctx, cred.ID), ErrNotFound)
}

func TestSearchCredentials_SkipsPassword(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateCredential(ctx, &Credential{Service: "Stripe", Username: "billing", Password: "secret"}))
	require.NoError(t, s.CreateCredential(ctx, &Credential{Service: "bank", Username: "me", Password: "stripe-pass", Notes: ptr("linked to STRIPE payouts")}))

	creds, err := s.SearchCredentials(ctx, "stripe")
	require.NoError(t, err)
	assert.Len(t, creds, 2)

	creds, err = s.SearchCredentials(ctx, "secret")
	require.NoError(t, err)
	assert.Empty(t, creds)
}
