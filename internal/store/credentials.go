// ABOUTME: Credential persistence for SQLStore
// ABOUTME: Credentials record only a creation time; passwords are stored as given

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const credentialColumns = `id, service, username, password, url, notes, created_at`

type credentialRow struct {
	ID        string         `db:"id"`
	Service   string         `db:"service"`
	Username  string         `db:"username"`
	Password  string         `db:"password"`
	URL       sql.NullString `db:"url"`
	Notes     sql.NullString `db:"notes"`
	CreatedAt string         `db:"created_at"`
}

func (r *credentialRow) toCredential() (*Credential, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &Credential{
		ID:        r.ID,
		Service:   r.Service,
		Username:  r.Username,
		Password:  r.Password,
		URL:       stringPtr(r.URL),
		Notes:     stringPtr(r.Notes),
		CreatedAt: createdAt,
	}, nil
}

func (s *SQLStore) selectCredentials(ctx context.Context, query string, args ...any) ([]*Credential, error) {
	var rows []credentialRow
	if err := s.db.SelectContext(ctx, &rows, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying credentials: %w", err)
	}

	creds := make([]*Credential, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toCredential()
		if err != nil {
			return nil, err
		}
		creds = append(creds, c)
	}
	return creds, nil
}

// ListCredentials returns every credential, newest first.
func (s *SQLStore) ListCredentials(ctx context.Context) ([]*Credential, error) {
	return s.selectCredentials(ctx, `SELECT `+credentialColumns+` FROM credentials ORDER BY created_at DESC, id DESC`)
}

// GetCredential retrieves a credential by ID.
// Returns ErrNotFound if the credential doesn't exist.
func (s *SQLStore) GetCredential(ctx context.Context, id string) (*Credential, error) {
	var row credentialRow
	err := s.db.GetContext(ctx, &row, s.rebind(`SELECT `+credentialColumns+` FROM credentials WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying credential: %w", err)
	}
	return row.toCredential()
}

// CreateCredential inserts a credential with a fresh ID and creation time.
func (s *SQLStore) CreateCredential(ctx context.Context, cred *Credential) error {
	if err := validateCredential(cred); err != nil {
		return err
	}
	if cred.ID == "" {
		cred.ID = uuid.New().String()
	}
	cred.CreatedAt = newTimestamp()

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO credentials (`+credentialColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`),
		cred.ID,
		cred.Service,
		cred.Username,
		cred.Password,
		nullString(cred.URL),
		nullString(cred.Notes),
		formatTime(cred.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting credential: %w", err)
	}

	s.logger.Debug("created credential", "id", cred.ID, "service", cred.Service)
	return nil
}

// UpdateCredential overwrites an existing credential.
// Returns ErrNotFound if the credential doesn't exist.
func (s *SQLStore) UpdateCredential(ctx context.Context, cred *Credential) error {
	if err := validateCredential(cred); err != nil {
		return err
	}

	var createdAt string
	err := s.db.QueryRowxContext(ctx, s.rebind(`
		UPDATE credentials
		SET service = ?, username = ?, password = ?, url = ?, notes = ?
		WHERE id = ?
		RETURNING created_at
	`),
		cred.Service,
		cred.Username,
		cred.Password,
		nullString(cred.URL),
		nullString(cred.Notes),
		cred.ID,
	).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating credential: %w", err)
	}
	if cred.CreatedAt, err = parseTime(createdAt); err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}

	s.logger.Debug("updated credential", "id", cred.ID)
	return nil
}

// DeleteCredential deletes a credential by ID.
// Returns ErrNotFound if the credential doesn't exist.
func (s *SQLStore) DeleteCredential(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM credentials WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted credential", "id", id)
	return nil
}

// SearchCredentials matches the query against service, username and notes.
func (s *SQLStore) SearchCredentials(ctx context.Context, query string) ([]*Credential, error) {
	if query == "" {
		return []*Credential{}, nil
	}
	where, args := searchWhere(query, "service", "username", "notes")
	return s.selectCredentials(ctx, `SELECT `+credentialColumns+` FROM credentials WHERE `+where+` ORDER BY created_at DESC`, args...)
}
