// ABOUTME: SQL implementation of the Store interface on top of sqlx
// ABOUTME: Supports modernc SQLite, mattn SQLite, and PostgreSQL (pgx) with one schema

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"  // modernc.org/sqlite, pure Go
	DriverSQLite3  = "sqlite3" // github.com/mattn/go-sqlite3, requires cgo
	DriverPostgres = "pgx"     // github.com/jackc/pgx/v5/stdlib
)

// timeLayout is fixed-width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// SQLStore implements the Store interface using a SQL database
type SQLStore struct {
	db     *sqlx.DB
	driver string
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path using the
// pure Go driver.
func NewSQLiteStore(path string) (*SQLStore, error) {
	return Open(DriverSQLite, path)
}

// Open connects to the database and creates the schema if it doesn't exist.
// For the SQLite drivers dsn is a file path (or ":memory:") and parent
// directories are created if needed; for pgx it is a connection string.
func Open(driver, dsn string) (*SQLStore, error) {
	logger := slog.Default().With("component", "store")

	switch driver {
	case DriverSQLite, DriverSQLite3:
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, connString(driver, dsn))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLStore{
		db:     db,
		driver: driver,
		logger: logger,
	}

	// Every connection to ":memory:" gets its own database
	if s.isSQLite() && dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("store initialized", "driver", driver)
	return s, nil
}

func (s *SQLStore) isSQLite() bool {
	return s.driver == DriverSQLite || s.driver == DriverSQLite3
}

// busyTimeoutMillis is how long a SQLite writer waits for the lock before
// failing with SQLITE_BUSY.
const busyTimeoutMillis = 5000

// connString adds per-connection pragmas to a SQLite path. A pragma run once
// with Exec only reaches one pooled connection, so they go in the DSN where
// each driver applies them to every connection it opens.
func connString(driver, dsn string) string {
	switch driver {
	case DriverSQLite:
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", dsn, busyTimeoutMillis)
	case DriverSQLite3:
		return fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", dsn, busyTimeoutMillis)
	}
	return dsn
}

// schema is portable between SQLite and PostgreSQL. Timestamps are stored as
// fixed-width UTC text.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT,
		status      TEXT,
		priority    TEXT,
		due_date    TEXT,
		category    TEXT,
		tags        TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_created ON tasks(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_updated ON tasks(updated_at)`,

	`CREATE TABLE IF NOT EXISTS notes (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL,
		category   TEXT,
		tags       TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_created ON notes(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_updated ON notes(updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_notes_category ON notes(category)`,

	`CREATE TABLE IF NOT EXISTS conversations (
		id           TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		participants TEXT NOT NULL,
		summary      TEXT NOT NULL,
		decisions    TEXT,
		linked_tasks TEXT,
		date         TEXT NOT NULL,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_date ON conversations(date)`,

	`CREATE TABLE IF NOT EXISTS credentials (
		id         TEXT PRIMARY KEY,
		service    TEXT NOT NULL,
		username   TEXT NOT NULL,
		password   TEXT NOT NULL,
		url        TEXT,
		notes      TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_credentials_created ON credentials(created_at)`,
}

// createSchema creates the database tables if they don't exist
func (s *SQLStore) createSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLStore) Close() error {
	s.logger.Info("closing store")
	return s.db.Close()
}

// rebind converts ? placeholders to the driver's bind style.
func (s *SQLStore) rebind(query string) string {
	return s.db.Rebind(query)
}

// Ensure SQLStore implements Store interface
var _ Store = (*SQLStore)(nil)

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// nullString returns nil for a nil pointer, otherwise the string
func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func timePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// newTimestamp returns the current time at the precision the schema keeps.
func newTimestamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-folded substring pattern with LIKE wildcards in
// the query escaped.
func likePattern(query string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
}

// searchWhere builds an OR of case-insensitive substring matches over cols.
// The returned args repeat the pattern once per column.
func searchWhere(query string, cols ...string) (string, []any) {
	pattern := likePattern(query)
	clauses := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		clauses[i] = "LOWER(" + c + `) LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return strings.Join(clauses, " OR "), args
}
