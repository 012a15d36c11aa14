package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/emilianohg/skilltracker/internal/models"
)

type TaskRepo struct {
	db DBTX
}

func NewTaskRepo(db DBTX) *TaskRepo {
	return &TaskRepo{db: db}
}

// Create inserts a task at 0% under goalID.
func (r *TaskRepo) Create(ctx context.Context, goalID, title string) (*models.Task, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, goal_id, title, progress, is_completed, created_at)
		VALUES (?, ?, ?, 0, 0, ?)
	`, id, goalID, title, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *TaskRepo) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	err := r.db.QueryRowContext(ctx, `
		SELECT id, goal_id, title, progress, is_completed, created_at
		FROM tasks
		WHERE id = ?
	`, id).Scan(&t.ID, &t.GoalID, &t.Title, &t.Progress, &t.IsCompleted, &t.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepo) GetByGoalID(ctx context.Context, goalID string) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, goal_id, title, progress, is_completed, created_at
		FROM tasks
		WHERE goal_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.GoalID, &t.Title, &t.Progress, &t.IsCompleted, &t.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepo) UpdateTitle(ctx context.Context, id, title string) error {
	_, err := r.db.ExecContext(ctx, "UPDATE tasks SET title = ? WHERE id = ?", title, id)
	return err
}

func (r *TaskRepo) SetProgress(ctx context.Context, id string, progress int, completed bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE tasks SET progress = ?, is_completed = ? WHERE id = ?",
		progress, completed, id,
	)
	return err
}

func (r *TaskRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	return err
}

func (r *TaskRepo) DeleteByGoalID(ctx context.Context, goalID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE goal_id = ?", goalID)
	return err
}
