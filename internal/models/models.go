package models

import "time"

type Goal struct {
	ID          string    `json:"_id"`
	OwnerID     string    `json:"ownerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Progress    int       `json:"progress"` // derived, 0-100
	CreatedAt   time.Time `json:"createdAt"`
}

type Task struct {
	ID          string    `json:"_id"`
	GoalID      string    `json:"goalId"`
	Title       string    `json:"title"`
	Progress    int       `json:"progress"`    // derived, 0-100
	IsCompleted bool      `json:"isCompleted"` // true iff Progress == 100
	CreatedAt   time.Time `json:"createdAt"`
}

type Subtask struct {
	ID          string    `json:"_id"`
	TaskID      string    `json:"taskId"`
	Title       string    `json:"title"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TaskWithSubtasks is a task together with its checklist, as served by the
// task and goal detail views.
type TaskWithSubtasks struct {
	Task
	Subtasks []Subtask `json:"subtasks"`
}

type GoalDetail struct {
	Goal  Goal               `json:"goal"`
	Tasks []TaskWithSubtasks `json:"tasks"`
}
