package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/emilianohg/skilltracker/internal/models"
	"github.com/emilianohg/skilltracker/internal/repository"
)

func (s *Service) CreateGoal(ctx context.Context, owner, title, description, category string) (*models.Goal, error) {
	title, err := requireTitle(title)
	if err != nil {
		return nil, err
	}

	goal, err := s.store().Goals.Create(ctx, owner, title, strings.TrimSpace(description), strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	s.log.Info("goal created", "goal_id", goal.ID, "owner_id", owner)
	return goal, nil
}

func (s *Service) GetGoal(ctx context.Context, owner, goalID string) (*models.Goal, error) {
	return goalOf(ctx, s.store(), owner, goalID)
}

// GoalDetail returns the goal with its tasks, each carrying its subtasks.
func (s *Service) GoalDetail(ctx context.Context, owner, goalID string) (*models.GoalDetail, error) {
	st := s.store()

	goal, err := goalOf(ctx, st, owner, goalID)
	if err != nil {
		return nil, err
	}

	tasks, err := st.Tasks.GetByGoalID(ctx, goal.ID)
	if err != nil {
		return nil, fmt.Errorf("list tasks of goal %s: %w", goal.ID, err)
	}

	detail := &models.GoalDetail{Goal: *goal, Tasks: make([]models.TaskWithSubtasks, 0, len(tasks))}
	for _, t := range tasks {
		subs, err := st.Subtasks.GetByTaskID(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("list subtasks of task %s: %w", t.ID, err)
		}
		detail.Tasks = append(detail.Tasks, models.TaskWithSubtasks{Task: t, Subtasks: subs})
	}
	return detail, nil
}

func (s *Service) ListGoals(ctx context.Context, owner string) ([]models.Goal, error) {
	goals, err := s.store().Goals.GetByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

// UpdateGoal applies the scalar fields present in patch. Progress cannot be
// set here; only the aggregator writes it.
func (s *Service) UpdateGoal(ctx context.Context, owner, goalID string, patch GoalPatch) (*models.Goal, error) {
	st := s.store()

	goal, err := goalOf(ctx, st, owner, goalID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		if goal.Title, err = requireTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Description != nil {
		goal.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		goal.Category = strings.TrimSpace(*patch.Category)
	}

	if err := st.Goals.Update(ctx, goal.ID, goal.Title, goal.Description, goal.Category); err != nil {
		return nil, fmt.Errorf("update goal %s: %w", goal.ID, err)
	}
	return goalOf(ctx, st, owner, goal.ID)
}

// DeleteGoal removes the goal with all of its tasks and subtasks.
func (s *Service) DeleteGoal(ctx context.Context, owner, goalID string) error {
	if _, err := goalOf(ctx, s.store(), owner, goalID); err != nil {
		return err
	}

	err := s.mutate(ctx, goalID, func(st *repository.Store) error {
		if _, err := goalOf(ctx, st, owner, goalID); err != nil {
			return err
		}
		return s.agg.DeleteGoal(ctx, st, goalID)
	})
	if err != nil {
		return err
	}

	s.log.Info("goal deleted", "goal_id", goalID, "owner_id", owner)
	return nil
}
