// Package store provides persistent storage for second-brain records.
//
// # Architecture
//
// The store package uses one interface per entity kind, composed into Store:
//
//   - TaskStore: tasks with status/priority enums and optional due dates
//   - NoteStore: notes, including the reserved "capture:*" category namespace
//   - ConversationStore: logged discussions ordered by the date they happened
//   - CredentialStore: service logins (passwords stored as plain text)
//
// SQLStore implements all interfaces in a single struct on top of sqlx. The
// four tables are independent; there are no foreign keys between them.
//
// # Drivers
//
// Open accepts one of three database/sql drivers with a single portable schema:
//
//   - "sqlite": modernc.org/sqlite, pure Go (default)
//   - "sqlite3": github.com/mattn/go-sqlite3, requires cgo
//   - "pgx": PostgreSQL via github.com/jackc/pgx/v5/stdlib
//
// SQLite databases run in WAL mode with a 5s busy timeout. Both pragmas are
// passed in the DSN so every pooled connection gets them:
//
//	file:brain.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)
//
// Concurrent writers wait for the lock instead of failing, and the last write
// to a record wins.
//
// # Update Semantics
//
// Update methods overwrite the whole record. Optional fields left nil are
// stored as NULL rather than keeping their previous value. The one exception
// is Conversation.Date, which keeps the stored date when zero.
//
// # Error Handling
//
//   - ErrNotFound: Requested entity does not exist
//   - *ValidationError: Missing required field or invalid enum value
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewMockStore() for unit tests that need failure injection:
//
//	s := store.NewMockStore()
//	s.Err = errors.New("db down")
//
// Use NewSQLiteStore(path) under t.TempDir() for tests against real SQLite.
package store
