// ABOUTME: Task persistence for SQLStore
// ABOUTME: List/get/create/update/delete plus substring search and recency queries

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const taskColumns = `id, title, description, status, priority, due_date, category, tags, created_at, updated_at`

type taskRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Status      sql.NullString `db:"status"`
	Priority    sql.NullString `db:"priority"`
	DueDate     sql.NullString `db:"due_date"`
	Category    sql.NullString `db:"category"`
	Tags        sql.NullString `db:"tags"`
	CreatedAt   string         `db:"created_at"`
	UpdatedAt   string         `db:"updated_at"`
}

func (r *taskRow) toTask() (*Task, error) {
	t := &Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: stringPtr(r.Description),
		Category:    stringPtr(r.Category),
		Tags:        stringPtr(r.Tags),
	}
	if r.Status.Valid {
		st := TaskStatus(r.Status.String)
		t.Status = &st
	}
	if r.Priority.Valid {
		p := TaskPriority(r.Priority.String)
		t.Priority = &p
	}

	var err error
	if t.DueDate, err = timePtr(r.DueDate); err != nil {
		return nil, fmt.Errorf("parsing due_date: %w", err)
	}
	if t.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if t.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return t, nil
}

func (s *SQLStore) selectTasks(ctx context.Context, query string, args ...any) ([]*Task, error) {
	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	tasks := make([]*Task, 0, len(rows))
	for i := range rows {
		t, err := rows[i].toTask()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// ListTasks returns every task, newest first.
func (s *SQLStore) ListTasks(ctx context.Context) ([]*Task, error) {
	return s.selectTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY created_at DESC, id DESC`)
}

// RecentTasks returns up to limit tasks ordered by most recent update.
func (s *SQLStore) RecentTasks(ctx context.Context, limit int) ([]*Task, error) {
	if limit <= 0 {
		return []*Task{}, nil
	}
	return s.selectTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY updated_at DESC, id DESC LIMIT ?`, limit)
}

// GetTask retrieves a task by ID.
// Returns ErrNotFound if the task doesn't exist.
func (s *SQLStore) GetTask(ctx context.Context, id string) (*Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row, s.rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying task: %w", err)
	}
	return row.toTask()
}

// CreateTask applies defaults, assigns an ID and timestamps, and inserts the task.
func (s *SQLStore) CreateTask(ctx context.Context, task *Task) error {
	applyTaskDefaults(task)
	if err := validateTask(task); err != nil {
		return err
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := newTimestamp()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		task.ID,
		task.Title,
		nullString(task.Description),
		nullString((*string)(task.Status)),
		nullString((*string)(task.Priority)),
		nullTime(task.DueDate),
		nullString(task.Category),
		nullString(task.Tags),
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}

	s.logger.Debug("created task", "id", task.ID)
	return nil
}

// UpdateTask overwrites every column of an existing task. Nil fields become
// NULL. Returns ErrNotFound if the task doesn't exist.
func (s *SQLStore) UpdateTask(ctx context.Context, task *Task) error {
	if err := validateTask(task); err != nil {
		return err
	}
	task.UpdatedAt = newTimestamp()

	var createdAt string
	err := s.db.QueryRowxContext(ctx, s.rebind(`
		UPDATE tasks
		SET title = ?, description = ?, status = ?, priority = ?, due_date = ?,
		    category = ?, tags = ?, updated_at = ?
		WHERE id = ?
		RETURNING created_at
	`),
		task.Title,
		nullString(task.Description),
		nullString((*string)(task.Status)),
		nullString((*string)(task.Priority)),
		nullTime(task.DueDate),
		nullString(task.Category),
		nullString(task.Tags),
		formatTime(task.UpdatedAt),
		task.ID,
	).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}

	s.logger.Debug("updated task", "id", task.ID)
	return nil
}

// DeleteTask deletes a task by ID.
// Returns ErrNotFound if the task doesn't exist.
func (s *SQLStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted task", "id", id)
	return nil
}

// SearchTasks matches the query against title, description, category and tags.
func (s *SQLStore) SearchTasks(ctx context.Context, query string) ([]*Task, error) {
	if query == "" {
		return []*Task{}, nil
	}
	where, args := searchWhere(query, "title", "description", "category", "tags")
	return s.selectTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE `+where+` ORDER BY created_at DESC`, args...)
}
