package service

import (
	"context"
	"fmt"

	"github.com/emilianohg/skilltracker/internal/models"
	"github.com/emilianohg/skilltracker/internal/repository"
)

// CreateTask adds a 0% task under goalID, which dilutes the goal's average.
func (s *Service) CreateTask(ctx context.Context, owner, goalID, title string) (*models.Task, error) {
	title, err := requireTitle(title)
	if err != nil {
		return nil, err
	}
	if _, err := parentGoal(ctx, s.store(), owner, goalID); err != nil {
		return nil, err
	}

	var task *models.Task
	err = s.mutate(ctx, goalID, func(st *repository.Store) error {
		if _, err := parentGoal(ctx, st, owner, goalID); err != nil {
			return err
		}

		var err error
		if task, err = st.Tasks.Create(ctx, goalID, title); err != nil {
			return fmt.Errorf("create task: %w", err)
		}
		_, err = s.agg.RecomputeGoal(ctx, st, goalID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetTask returns the task with its subtasks.
func (s *Service) GetTask(ctx context.Context, owner, taskID string) (*models.TaskWithSubtasks, error) {
	st := s.store()

	task, _, err := taskOf(ctx, st, owner, taskID)
	if err != nil {
		return nil, err
	}

	subs, err := st.Subtasks.GetByTaskID(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks of task %s: %w", task.ID, err)
	}
	return &models.TaskWithSubtasks{Task: *task, Subtasks: subs}, nil
}

func (s *Service) ListTasksByGoal(ctx context.Context, owner, goalID string) ([]models.Task, error) {
	st := s.store()

	if _, err := parentGoal(ctx, st, owner, goalID); err != nil {
		return nil, err
	}

	tasks, err := st.Tasks.GetByGoalID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("list tasks of goal %s: %w", goalID, err)
	}
	return tasks, nil
}

// UpdateTask renames a task. Progress is unaffected.
func (s *Service) UpdateTask(ctx context.Context, owner, taskID string, patch TitlePatch) (*models.Task, error) {
	st := s.store()

	task, _, err := taskOf(ctx, st, owner, taskID)
	if err != nil {
		return nil, err
	}
	if patch.Title == nil {
		return task, nil
	}

	title, err := requireTitle(*patch.Title)
	if err != nil {
		return nil, err
	}
	if err := st.Tasks.UpdateTitle(ctx, task.ID, title); err != nil {
		return nil, fmt.Errorf("update task %s: %w", task.ID, err)
	}
	task.Title = title
	return task, nil
}

// DeleteTask removes the task and its subtasks and recomputes the goal.
func (s *Service) DeleteTask(ctx context.Context, owner, taskID string) error {
	_, goal, err := taskOf(ctx, s.store(), owner, taskID)
	if err != nil {
		return err
	}

	return s.mutate(ctx, goal.ID, func(st *repository.Store) error {
		if _, _, err := taskOf(ctx, st, owner, taskID); err != nil {
			return err
		}
		_, err := s.agg.DeleteTask(ctx, st, taskID)
		return err
	})
}
