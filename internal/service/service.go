// Package service exposes the goal hierarchy operations to the transport
// layer: it scopes every call to the caller, validates input, and runs each
// mutation together with the progress recompute it triggers in one
// transaction under the owning goal's lock.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/emilianohg/skilltracker/internal/db"
	"github.com/emilianohg/skilltracker/internal/models"
	"github.com/emilianohg/skilltracker/internal/progress"
	"github.com/emilianohg/skilltracker/internal/repository"
)

type Service struct {
	conn *sql.DB
	agg  *progress.Aggregator
	log  *slog.Logger
}

func New(conn *sql.DB, agg *progress.Aggregator, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{conn: conn, agg: agg, log: log}
}

// GoalPatch carries the goal fields a client may change. Nil fields are left
// untouched; progress is deliberately absent.
type GoalPatch struct {
	Title       *string
	Description *string
	Category    *string
}

type TitlePatch struct {
	Title *string
}

// ToggleResult reports the flipped subtask and the aggregates it moved.
type ToggleResult struct {
	Subtask models.Subtask
	Task    models.Task
	Goal    models.Goal
}

func (s *Service) store() *repository.Store {
	return repository.NewStore(s.conn)
}

// mutate holds the aggregate lock of goalID and runs fn in a transaction.
func (s *Service) mutate(ctx context.Context, goalID string, fn func(st *repository.Store) error) error {
	unlock := s.agg.Lock(goalID)
	defer unlock()

	return db.WithTx(ctx, s.conn, func(tx *sql.Tx) error {
		return fn(repository.NewStore(tx))
	})
}

// goalOf loads a goal for its owner. A goal owned by someone else is
// reported as missing.
func goalOf(ctx context.Context, st *repository.Store, owner, goalID string) (*models.Goal, error) {
	goal, err := st.Goals.GetByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("load goal %s: %w", goalID, err)
	}
	if goal == nil || goal.OwnerID != owner {
		return nil, fmt.Errorf("goal %s: %w", goalID, ErrNotFound)
	}
	return goal, nil
}

// parentGoal loads the goal a task or subtask hangs under and checks the
// caller owns it.
func parentGoal(ctx context.Context, st *repository.Store, owner, goalID string) (*models.Goal, error) {
	goal, err := st.Goals.GetByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("load goal %s: %w", goalID, err)
	}
	if goal == nil {
		return nil, fmt.Errorf("goal %s: %w", goalID, ErrNotFound)
	}
	if goal.OwnerID != owner {
		return nil, fmt.Errorf("goal %s: %w", goalID, ErrForbidden)
	}
	return goal, nil
}

func taskOf(ctx context.Context, st *repository.Store, owner, taskID string) (*models.Task, *models.Goal, error) {
	task, err := st.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("load task %s: %w", taskID, err)
	}
	if task == nil {
		return nil, nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}

	goal, err := parentGoal(ctx, st, owner, task.GoalID)
	if err != nil {
		return nil, nil, err
	}
	return task, goal, nil
}

func subtaskOf(ctx context.Context, st *repository.Store, owner, subtaskID string) (*models.Subtask, *models.Task, *models.Goal, error) {
	sub, err := st.Subtasks.GetByID(ctx, subtaskID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load subtask %s: %w", subtaskID, err)
	}
	if sub == nil {
		return nil, nil, nil, fmt.Errorf("subtask %s: %w", subtaskID, ErrNotFound)
	}

	task, goal, err := taskOf(ctx, st, owner, sub.TaskID)
	if err != nil {
		return nil, nil, nil, err
	}
	return sub, task, goal, nil
}

func requireTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("title is required: %w", ErrValidation)
	}
	return title, nil
}
