// ABOUTME: Conversation persistence for SQLStore
// ABOUTME: Conversations are ordered by the date they happened, not when they were logged

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const conversationColumns = `id, title, participants, summary, decisions, linked_tasks, date, created_at, updated_at`

type conversationRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	Participants string         `db:"participants"`
	Summary      string         `db:"summary"`
	Decisions    sql.NullString `db:"decisions"`
	LinkedTasks  sql.NullString `db:"linked_tasks"`
	Date         string         `db:"date"`
	CreatedAt    string         `db:"created_at"`
	UpdatedAt    string         `db:"updated_at"`
}

func (r *conversationRow) toConversation() (*Conversation, error) {
	c := &Conversation{
		ID:           r.ID,
		Title:        r.Title,
		Participants: r.Participants,
		Summary:      r.Summary,
		Decisions:    stringPtr(r.Decisions),
		LinkedTasks:  stringPtr(r.LinkedTasks),
	}
	var err error
	if c.Date, err = parseTime(r.Date); err != nil {
		return nil, fmt.Errorf("parsing date: %w", err)
	}
	if c.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if c.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return c, nil
}

func (s *SQLStore) selectConversations(ctx context.Context, query string, args ...any) ([]*Conversation, error) {
	var rows []conversationRow
	if err := s.db.SelectContext(ctx, &rows, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}

	convs := make([]*Conversation, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toConversation()
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, nil
}

// ListConversations returns every conversation, most recent date first.
func (s *SQLStore) ListConversations(ctx context.Context) ([]*Conversation, error) {
	return s.selectConversations(ctx, `SELECT `+conversationColumns+` FROM conversations ORDER BY date DESC, created_at DESC`)
}

// GetConversation retrieves a conversation by ID.
// Returns ErrNotFound if the conversation doesn't exist.
func (s *SQLStore) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var row conversationRow
	err := s.db.GetContext(ctx, &row, s.rebind(`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}
	return row.toConversation()
}

// CreateConversation inserts a conversation. A zero Date defaults to now.
func (s *SQLStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	if err := validateConversation(conv); err != nil {
		return err
	}
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	now := newTimestamp()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	if conv.Date.IsZero() {
		conv.Date = now
	}

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO conversations (`+conversationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		conv.ID,
		conv.Title,
		conv.Participants,
		conv.Summary,
		nullString(conv.Decisions),
		nullString(conv.LinkedTasks),
		formatTime(conv.Date),
		formatTime(conv.CreatedAt),
		formatTime(conv.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}

	s.logger.Debug("created conversation", "id", conv.ID)
	return nil
}

// UpdateConversation overwrites an existing conversation. A zero Date keeps
// the stored date. Returns ErrNotFound if the conversation doesn't exist.
func (s *SQLStore) UpdateConversation(ctx context.Context, conv *Conversation) error {
	if err := validateConversation(conv); err != nil {
		return err
	}
	conv.UpdatedAt = newTimestamp()

	var date any
	if !conv.Date.IsZero() {
		date = formatTime(conv.Date)
	}

	var createdAt, storedDate string
	err := s.db.QueryRowxContext(ctx, s.rebind(`
		UPDATE conversations
		SET title = ?, participants = ?, summary = ?, decisions = ?, linked_tasks = ?,
		    date = COALESCE(?, date), updated_at = ?
		WHERE id = ?
		RETURNING created_at, date
	`),
		conv.Title,
		conv.Participants,
		conv.Summary,
		nullString(conv.Decisions),
		nullString(conv.LinkedTasks),
		date,
		formatTime(conv.UpdatedAt),
		conv.ID,
	).Scan(&createdAt, &storedDate)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating conversation: %w", err)
	}
	if conv.CreatedAt, err = parseTime(createdAt); err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	if conv.Date, err = parseTime(storedDate); err != nil {
		return fmt.Errorf("parsing date: %w", err)
	}

	s.logger.Debug("updated conversation", "id", conv.ID)
	return nil
}

// DeleteConversation deletes a conversation by ID.
// Returns ErrNotFound if the conversation doesn't exist.
func (s *SQLStore) DeleteConversation(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM conversations WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted conversation", "id", id)
	return nil
}

// SearchConversations matches the query against title, summary, participants
// and decisions.
func (s *SQLStore) SearchConversations(ctx context.Context, query string) ([]*Conversation, error) {
	if query == "" {
		return []*Conversation{}, nil
	}
	where, args := searchWhere(query, "title", "summary", "participants", "decisions")
	return s.selectConversations(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE `+where+` ORDER BY date DESC`, args...)
}
