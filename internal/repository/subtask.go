package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/emilianohg/skilltracker/internal/models"
)

type SubtaskRepo struct {
	db DBTX
}

func NewSubtaskRepo(db DBTX) *SubtaskRepo {
	return &SubtaskRepo{db: db}
}

func (r *SubtaskRepo) Create(ctx context.Context, taskID, title string) (*models.Subtask, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subtasks (id, task_id, title, is_completed, created_at)
		VALUES (?, ?, ?, 0, ?)
	`, id, taskID, title, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *SubtaskRepo) GetByID(ctx context.Context, id string) (*models.Subtask, error) {
	var s models.Subtask
	err := r.db.QueryRowContext(ctx, `
		SELECT id, task_id, title, is_completed, created_at
		FROM subtasks
		WHERE id = ?
	`, id).Scan(&s.ID, &s.TaskID, &s.Title, &s.IsCompleted, &s.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubtaskRepo) GetByTaskID(ctx context.Context, taskID string) ([]models.Subtask, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, task_id, title, is_completed, created_at
		FROM subtasks
		WHERE task_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subtasks := []models.Subtask{}
	for rows.Next() {
		var s models.Subtask
		if err := rows.Scan(&s.ID, &s.TaskID, &s.Title, &s.IsCompleted, &s.CreatedAt); err != nil {
			return nil, err
		}
		subtasks = append(subtasks, s)
	}
	return subtasks, rows.Err()
}

func (r *SubtaskRepo) UpdateTitle(ctx context.Context, id, title string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE subtasks SET title = ? WHERE id = ?", title, id)
	return err
}

func (r *SubtaskRepo) SetCompleted(ctx context.Context, id string, completed bool) error {
	_, err := r.db.ExecContext(ctx, "UPDATE subtasks SET is_completed = ? WHERE id = ?", completed, id)
	return err
}

func (r *SubtaskRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM subtasks WHERE id = ?", id)
	return err
}

func (r *SubtaskRepo) DeleteByTaskID(ctx context.Context, taskID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM subtasks WHERE task_id = ?", taskID)
	return err
}

// DeleteByTaskIDs removes every subtask belonging to any of taskIDs.
func (r *SubtaskRepo) DeleteByTaskIDs(ctx context.Context, taskIDs []string) error {
	if len(taskIDs) == 0 {
		return nil
	}

	args := make([]any, len(taskIDs))
	for i, id := range taskIDs {
		args[i] = id
	}

	_, err := r.db.ExecContext(ctx,
		"DELETE FROM subtasks WHERE task_id IN ("+placeholders(len(taskIDs))+")",
		args...,
	)
	return err
}
