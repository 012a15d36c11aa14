package service

import (
	"context"
	"fmt"

	"github.com/emilianohg/skilltracker/internal/models"
	"github.com/emilianohg/skilltracker/internal/repository"
)

func (s *Service) CreateSubtask(ctx context.Context, owner, taskID, title string) (*models.Subtask, error) {
	title, err := requireTitle(title)
	if err != nil {
		return nil, err
	}
	_, goal, err := taskOf(ctx, s.store(), owner, taskID)
	if err != nil {
		return nil, err
	}

	var sub *models.Subtask
	err = s.mutate(ctx, goal.ID, func(st *repository.Store) error {
		if _, _, err := taskOf(ctx, st, owner, taskID); err != nil {
			return err
		}

		var err error
		if sub, err = st.Subtasks.Create(ctx, taskID, title); err != nil {
			return fmt.Errorf("create subtask: %w", err)
		}
		_, _, err = s.agg.RecomputeTask(ctx, st, taskID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Service) GetSubtask(ctx context.Context, owner, subtaskID string) (*models.Subtask, error) {
	sub, _, _, err := subtaskOf(ctx, s.store(), owner, subtaskID)
	return sub, err
}

func (s *Service) ListSubtasksByTask(ctx context.Context, owner, taskID string) ([]models.Subtask, error) {
	st := s.store()

	if _, _, err := taskOf(ctx, st, owner, taskID); err != nil {
		return nil, err
	}

	subs, err := st.Subtasks.GetByTaskID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list subtasks of task %s: %w", taskID, err)
	}
	return subs, nil
}

// UpdateSubtask renames a subtask. Titles do not affect progress.
func (s *Service) UpdateSubtask(ctx context.Context, owner, subtaskID string, patch TitlePatch) (*models.Subtask, error) {
	st := s.store()

	sub, _, _, err := subtaskOf(ctx, st, owner, subtaskID)
	if err != nil {
		return nil, err
	}
	if patch.Title == nil {
		return sub, nil
	}

	title, err := requireTitle(*patch.Title)
	if err != nil {
		return nil, err
	}
	if err := st.Subtasks.UpdateTitle(ctx, sub.ID, title); err != nil {
		return nil, fmt.Errorf("update subtask %s: %w", sub.ID, err)
	}
	sub.Title = title
	return sub, nil
}

// ToggleSubtask flips the subtask's completion and rolls the change up to
// its task and goal.
func (s *Service) ToggleSubtask(ctx context.Context, owner, subtaskID string) (*ToggleResult, error) {
	_, _, goal, err := subtaskOf(ctx, s.store(), owner, subtaskID)
	if err != nil {
		return nil, err
	}

	var res ToggleResult
	err = s.mutate(ctx, goal.ID, func(st *repository.Store) error {
		sub, _, _, err := subtaskOf(ctx, st, owner, subtaskID)
		if err != nil {
			return err
		}

		sub.IsCompleted = !sub.IsCompleted
		if err := st.Subtasks.SetCompleted(ctx, sub.ID, sub.IsCompleted); err != nil {
			return fmt.Errorf("toggle subtask %s: %w", sub.ID, err)
		}

		task, goal, err := s.agg.RecomputeTask(ctx, st, sub.TaskID)
		if err != nil {
			return err
		}
		res = ToggleResult{Subtask: *sub, Task: *task, Goal: *goal}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Service) DeleteSubtask(ctx context.Context, owner, subtaskID string) error {
	_, _, goal, err := subtaskOf(ctx, s.store(), owner, subtaskID)
	if err != nil {
		return err
	}

	return s.mutate(ctx, goal.ID, func(st *repository.Store) error {
		sub, _, _, err := subtaskOf(ctx, st, owner, subtaskID)
		if err != nil {
			return err
		}

		taskID := sub.TaskID
		if err := st.Subtasks.Delete(ctx, sub.ID); err != nil {
			return fmt.Errorf("delete subtask %s: %w", sub.ID, err)
		}
		_, _, err = s.agg.RecomputeTask(ctx, st, taskID)
		return err
	})
}
