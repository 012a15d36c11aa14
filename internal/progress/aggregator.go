package progress

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/emilianohg/skilltracker/internal/models"
	"github.com/emilianohg/skilltracker/internal/repository"
	"github.com/emilianohg/skilltracker/internal/telemetry"
)

// Aggregator recomputes derived progress after hierarchy mutations and
// performs cascade deletes. Callers pass a repository.Store, normally bound to
// the transaction that carried the triggering mutation, and hold Lock for the
// owning goal so concurrent sibling edits cannot overwrite each other's
// aggregates.
type Aggregator struct {
	locks      *keyLock
	log        *slog.Logger
	tracer     trace.Tracer
	recomputes metric.Int64Counter
	cascades   metric.Int64Counter
}

func NewAggregator(log *slog.Logger) *Aggregator {
	if log == nil {
		log = slog.Default()
	}

	meter := telemetry.Meter("")
	recomputes, _ := meter.Int64Counter("skilltracker.progress.recomputes",
		metric.WithDescription("Progress recomputations by hierarchy level"))
	cascades, _ := meter.Int64Counter("skilltracker.progress.cascade_deletes",
		metric.WithDescription("Records removed by cascade deletes"))

	return &Aggregator{
		locks:      newKeyLock(),
		log:        log,
		tracer:     telemetry.Tracer(""),
		recomputes: recomputes,
		cascades:   cascades,
	}
}

// Lock serializes aggregate writes for one goal subtree.
func (a *Aggregator) Lock(goalID string) func() {
	return a.locks.Lock(goalID)
}

// RecomputeTask derives the task's progress from its subtasks, stores it and
// propagates to the owning goal.
func (a *Aggregator) RecomputeTask(ctx context.Context, st *repository.Store, taskID string) (*models.Task, *models.Goal, error) {
	ctx, span := a.tracer.Start(ctx, "progress.RecomputeTask",
		trace.WithAttributes(attribute.String("task.id", taskID)))
	defer span.End()

	task, err := st.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("load task %s: %w", taskID, err)
	}
	if task == nil {
		return nil, nil, fmt.Errorf("task %s: %w", taskID, repository.ErrNotFound)
	}

	subtasks, err := st.Subtasks.GetByTaskID(ctx, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("load subtasks of task %s: %w", taskID, err)
	}

	task.Progress = TaskProgress(countCompleted(subtasks), len(subtasks))
	task.IsCompleted = task.Progress == 100

	if err := st.Tasks.SetProgress(ctx, task.ID, task.Progress, task.IsCompleted); err != nil {
		return nil, nil, fmt.Errorf("store task %s progress: %w", taskID, err)
	}
	a.recomputes.Add(ctx, 1, metric.WithAttributes(attribute.String("level", "task")))
	a.log.Debug("task progress recomputed", "task_id", task.ID, "subtasks", len(subtasks), "progress", task.Progress)

	goal, err := a.RecomputeGoal(ctx, st, task.GoalID)
	if err != nil {
		return nil, nil, err
	}
	return task, goal, nil
}

// RecomputeGoal derives the goal's progress from its tasks and stores it.
func (a *Aggregator) RecomputeGoal(ctx context.Context, st *repository.Store, goalID string) (*models.Goal, error) {
	ctx, span := a.tracer.Start(ctx, "progress.RecomputeGoal",
		trace.WithAttributes(attribute.String("goal.id", goalID)))
	defer span.End()

	goal, err := st.Goals.GetByID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("load goal %s: %w", goalID, err)
	}
	if goal == nil {
		return nil, fmt.Errorf("goal %s: %w", goalID, repository.ErrNotFound)
	}

	tasks, err := st.Tasks.GetByGoalID(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("load tasks of goal %s: %w", goalID, err)
	}

	goal.Progress = GoalProgress(taskPercentages(tasks))

	if err := st.Goals.SetProgress(ctx, goal.ID, goal.Progress); err != nil {
		return nil, fmt.Errorf("store goal %s progress: %w", goalID, err)
	}
	a.recomputes.Add(ctx, 1, metric.WithAttributes(attribute.String("level", "goal")))
	a.log.Debug("goal progress recomputed", "goal_id", goal.ID, "tasks", len(tasks), "progress", goal.Progress)

	return goal, nil
}

// DeleteTask removes the task and its subtasks, then recomputes the goal the
// task belonged to.
func (a *Aggregator) DeleteTask(ctx context.Context, st *repository.Store, taskID string) (*models.Goal, error) {
	ctx, span := a.tracer.Start(ctx, "progress.DeleteTask",
		trace.WithAttributes(attribute.String("task.id", taskID)))
	defer span.End()

	task, err := st.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", taskID, err)
	}
	if task == nil {
		return nil, fmt.Errorf("task %s: %w", taskID, repository.ErrNotFound)
	}
	goalID := task.GoalID

	if err := st.Subtasks.DeleteByTaskID(ctx, taskID); err != nil {
		return nil, fmt.Errorf("delete subtasks of task %s: %w", taskID, err)
	}
	if err := st.Tasks.Delete(ctx, taskID); err != nil {
		return nil, fmt.Errorf("delete task %s: %w", taskID, err)
	}
	a.cascades.Add(ctx, 1, metric.WithAttributes(attribute.String("level", "task")))
	a.log.Debug("task deleted", "task_id", taskID, "goal_id", goalID)

	return a.RecomputeGoal(ctx, st, goalID)
}

// DeleteGoal removes the goal together with all of its tasks and their
// subtasks. Nothing is recomputed since no ancestor remains.
func (a *Aggregator) DeleteGoal(ctx context.Context, st *repository.Store, goalID string) error {
	ctx, span := a.tracer.Start(ctx, "progress.DeleteGoal",
		trace.WithAttributes(attribute.String("goal.id", goalID)))
	defer span.End()

	goal, err := st.Goals.GetByID(ctx, goalID)
	if err != nil {
		return fmt.Errorf("load goal %s: %w", goalID, err)
	}
	if goal == nil {
		return fmt.Errorf("goal %s: %w", goalID, repository.ErrNotFound)
	}

	tasks, err := st.Tasks.GetByGoalID(ctx, goalID)
	if err != nil {
		return fmt.Errorf("load tasks of goal %s: %w", goalID, err)
	}
	taskIDs := make([]string, len(tasks))
	for i, t := range tasks {
		taskIDs[i] = t.ID
	}

	if err := st.Subtasks.DeleteByTaskIDs(ctx, taskIDs); err != nil {
		return fmt.Errorf("delete subtasks of goal %s: %w", goalID, err)
	}
	if err := st.Tasks.DeleteByGoalID(ctx, goalID); err != nil {
		return fmt.Errorf("delete tasks of goal %s: %w", goalID, err)
	}
	if err := st.Goals.Delete(ctx, goalID); err != nil {
		return fmt.Errorf("delete goal %s: %w", goalID, err)
	}
	a.cascades.Add(ctx, 1, metric.WithAttributes(attribute.String("level", "goal")))
	a.log.Debug("goal deleted", "goal_id", goalID, "tasks", len(tasks))

	return nil
}
