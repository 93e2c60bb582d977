// ABOUTME: Note persistence for SQLStore
// ABOUTME: CRUD, substring search, recency, and category-filtered lookups used by captures

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const noteColumns = `id, title, content, category, tags, created_at, updated_at`

type noteRow struct {
	ID        string         `db:"id"`
	Title     string         `db:"title"`
	Content   string         `db:"content"`
	Category  sql.NullString `db:"category"`
	Tags      sql.NullString `db:"tags"`
	CreatedAt string         `db:"created_at"`
	UpdatedAt string         `db:"updated_at"`
}

func (r *noteRow) toNote() (*Note, error) {
	n := &Note{
		ID:       r.ID,
		Title:    r.Title,
		Content:  r.Content,
		Category: stringPtr(r.Category),
		Tags:     stringPtr(r.Tags),
	}
	var err error
	if n.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if n.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return n, nil
}

func (s *SQLStore) selectNotes(ctx context.Context, query string, args ...any) ([]*Note, error) {
	var rows []noteRow
	if err := s.db.SelectContext(ctx, &rows, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying notes: %w", err)
	}

	notes := make([]*Note, 0, len(rows))
	for i := range rows {
		n, err := rows[i].toNote()
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// ListNotes returns every note, newest first.
func (s *SQLStore) ListNotes(ctx context.Context) ([]*Note, error) {
	return s.selectNotes(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY created_at DESC, id DESC`)
}

// RecentNotes returns up to limit notes ordered by most recent update.
func (s *SQLStore) RecentNotes(ctx context.Context, limit int) ([]*Note, error) {
	if limit <= 0 {
		return []*Note{}, nil
	}
	return s.selectNotes(ctx, `SELECT `+noteColumns+` FROM notes ORDER BY updated_at DESC, id DESC LIMIT ?`, limit)
}

// FindNotes returns notes matching the filter, newest first.
func (s *SQLStore) FindNotes(ctx context.Context, filter NoteFilter) ([]*Note, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE 1=1`
	var args []any

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.CategoryPrefix != "" {
		query += ` AND category LIKE ? ESCAPE '\'`
		args = append(args, likeEscaper.Replace(filter.CategoryPrefix)+"%")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	return s.selectNotes(ctx, query, args...)
}

// GetNote retrieves a note by ID.
// Returns ErrNotFound if the note doesn't exist.
func (s *SQLStore) GetNote(ctx context.Context, id string) (*Note, error) {
	var row noteRow
	err := s.db.GetContext(ctx, &row, s.rebind(`SELECT `+noteColumns+` FROM notes WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying note: %w", err)
	}
	return row.toNote()
}

// CreateNote applies defaults, assigns an ID and timestamps, and inserts the note.
func (s *SQLStore) CreateNote(ctx context.Context, note *Note) error {
	applyNoteDefaults(note)
	if err := validateNote(note); err != nil {
		return err
	}
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	now := newTimestamp()
	note.CreatedAt = now
	note.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`),
		note.ID,
		note.Title,
		note.Content,
		nullString(note.Category),
		nullString(note.Tags),
		formatTime(note.CreatedAt),
		formatTime(note.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting note: %w", err)
	}

	s.logger.Debug("created note", "id", note.ID, "category", nullString(note.Category))
	return nil
}

// UpdateNote overwrites every column of an existing note.
// Returns ErrNotFound if the note doesn't exist.
func (s *SQLStore) UpdateNote(ctx context.Context, note *Note) error {
	if err := validateNote(note); err != nil {
		return err
	}
	note.UpdatedAt = newTimestamp()

	var createdAt string
	err := s.db.QueryRowxContext(ctx, s.rebind(`
		UPDATE notes
		SET title = ?, content = ?, category = ?, tags = ?, updated_at = ?
		WHERE id = ?
		RETURNING created_at
	`),
		note.Title,
		note.Content,
		nullString(note.Category),
		nullString(note.Tags),
		formatTime(note.UpdatedAt),
		note.ID,
	).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating note: %w", err)
	}
	if note.CreatedAt, err = parseTime(createdAt); err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}

	s.logger.Debug("updated note", "id", note.ID)
	return nil
}

// DeleteNote deletes a note by ID.
// Returns ErrNotFound if the note doesn't exist.
func (s *SQLStore) DeleteNote(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM notes WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted note", "id", id)
	return nil
}

// SearchNotes matches the query against title, content, category and tags.
func (s *SQLStore) SearchNotes(ctx context.Context, query string) ([]*Note, error) {
	if query == "" {
		return []*Note{}, nil
	}
	where, args := searchWhere(query, "title", "content", "category", "tags")
	return s.selectNotes(ctx, `SELECT `+noteColumns+` FROM notes WHERE `+where+` ORDER BY created_at DESC`, args...)
}
