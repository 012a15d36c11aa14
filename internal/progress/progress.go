// Package progress derives task and goal completion from the subtask
// checklist and keeps the stored percentages in line with it.
package progress

import "github.com/emilianohg/skilltracker/internal/models"

// TaskProgress is round(100*completed/total), halves rounded up, or 0 for a
// task without subtasks.
func TaskProgress(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return roundDiv(100*completed, total)
}

// GoalProgress is the rounded unweighted mean of the task percentages, or 0
// for a goal without tasks. Tasks count equally regardless of how many
// subtasks each one has.
func GoalProgress(taskProgress []int) int {
	if len(taskProgress) == 0 {
		return 0
	}

	sum := 0
	for _, p := range taskProgress {
		sum += p
	}
	return roundDiv(sum, len(taskProgress))
}

// roundDiv returns n/d rounded half up for n >= 0, d > 0, in integers so
// that exact halves never drift below .5.
func roundDiv(n, d int) int {
	return (2*n + d) / (2 * d)
}

func countCompleted(subtasks []models.Subtask) int {
	n := 0
	for _, s := range subtasks {
		if s.IsCompleted {
			n++
		}
	}
	return n
}

func taskPercentages(tasks []models.Task) []int {
	out := make([]int, len(tasks))
	for i, t := range tasks {
		out[i] = t.Progress
	}
	return out
}
