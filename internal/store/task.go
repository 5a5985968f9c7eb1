package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dukerupert/todo/internal/database"
	"github.com/dukerupert/todo/internal/model"
)

type TaskStore struct {
	db *database.DB
}

func NewTaskStore(db *database.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	err := scanner.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Completed, &t.OwnerID)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const taskCols = `id, title, description, priority, completed, owner_id`

func (s *TaskStore) Create(ctx context.Context, t *model.Task) (*model.Task, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.db.Rebind(
		`INSERT INTO tasks (title, description, priority, completed, owner_id) VALUES (?, ?, ?, ?, ?) RETURNING id`),
		t.Title, t.Description, t.Priority, t.Completed, t.OwnerID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *TaskStore) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+taskCols+` FROM tasks WHERE id = ?`), id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) List(ctx context.Context) ([]model.Task, error) {
	return s.query(ctx, "list tasks", `SELECT `+taskCols+` FROM tasks ORDER BY id`)
}

func (s *TaskStore) ListByOwner(ctx context.Context, ownerID int64) ([]model.Task, error) {
	return s.query(ctx, "list tasks by owner", `SELECT `+taskCols+` FROM tasks WHERE owner_id = ? ORDER BY id`, ownerID)
}

func (s *TaskStore) query(ctx context.Context, op, query string, args ...any) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tasks, nil
}

// Update replaces the mutable fields of the task with t.ID. It returns nil
// if no such task exists.
func (s *TaskStore) Update(ctx context.Context, t *model.Task) (*model.Task, error) {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE tasks SET title = ?, description = ?, priority = ?, completed = ? WHERE id = ?`),
		t.Title, t.Description, t.Priority, t.Completed, t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetByID(ctx, t.ID)
}

// Delete removes the task and reports whether it existed.
func (s *TaskStore) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
