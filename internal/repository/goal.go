package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/emilianohg/skilltracker/internal/models"
)

type GoalRepo struct {
	db DBTX
}

func NewGoalRepo(db DBTX) *GoalRepo {
	return &GoalRepo{db: db}
}

func (r *GoalRepo) Create(ctx context.Context, ownerID, title, description, category string) (*models.Goal, error) {
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, owner_id, title, description, category, progress, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`, id, ownerID, title, description, category, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *GoalRepo) GetByID(ctx context.Context, id string) (*models.Goal, error) {
	var g models.Goal
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, description, category, progress, created_at
		FROM goals
		WHERE id = ?
	`, id).Scan(&g.ID, &g.OwnerID, &g.Title, &g.Description, &g.Category, &g.Progress, &g.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByOwner lists a user's goals, most recently created first.
func (r *GoalRepo) GetByOwner(ctx context.Context, ownerID string) ([]models.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, title, description, category, progress, created_at
		FROM goals
		WHERE owner_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := []models.Goal{}
	for rows.Next() {
		var g models.Goal
		if err := rows.Scan(&g.ID, &g.OwnerID, &g.Title, &g.Description, &g.Category, &g.Progress, &g.CreatedAt); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *GoalRepo) Update(ctx context.Context, id, title, description, category string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE goals SET title = ?, description = ?, category = ? WHERE id = ?",
		title, description, category, id,
	)
	return err
}

func (r *GoalRepo) SetProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, "UPDATE goals SET progress = ? WHERE id = ?", progress, id)
	return err
}

func (r *GoalRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM goals WHERE id = ?", id)
	return err
}
