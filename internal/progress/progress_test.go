package progress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskProgress(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		want      int
	}{
		{name: "no subtasks", completed: 0, total: 0, want: 0},
		{name: "none completed", completed: 0, total: 3, want: 0},
		{name: "half", completed: 1, total: 2, want: 50},
		{name: "one third rounds down", completed: 1, total: 3, want: 33},
		{name: "two thirds rounds up", completed: 2, total: 3, want: 67},
		{name: "exact half rounds up", completed: 1, total: 8, want: 13},
		{name: "all completed", completed: 5, total: 5, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TaskProgress(tt.completed, tt.total))
		})
	}
}

func TestTaskProgressMatchesRoundedRatio(t *testing.T) {
	for n := 1; n <= 60; n++ {
		for k := 0; k <= n; k++ {
			want := int(math.Round(float64(100*k) / float64(n)))
			if got := TaskProgress(k, n); got != want {
				t.Fatalf("TaskProgress(%d, %d) = %d, want %d", k, n, got, want)
			}
		}
	}
}

func TestGoalProgress(t *testing.T) {
	tests := []struct {
		name  string
		tasks []int
		want  int
	}{
		{name: "no tasks", tasks: nil, want: 0},
		{name: "single task", tasks: []int{40}, want: 40},
		{name: "half and empty", tasks: []int{50, 0}, want: 25},
		{name: "complete and new", tasks: []int{100, 0}, want: 50},
		{name: "rounds half up", tasks: []int{33, 34}, want: 34},
		{name: "rounds down", tasks: []int{33, 33, 34}, want: 33},
		{name: "all complete", tasks: []int{100, 100, 100}, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GoalProgress(tt.tasks))
		})
	}
}

func TestGoalProgressIsUnweighted(t *testing.T) {
	// A task with one finished subtask and a task with ten open ones weigh the same.
	done := TaskProgress(1, 1)
	open := TaskProgress(0, 10)
	assert.Equal(t, 50, GoalProgress([]int{done, open}))
}
