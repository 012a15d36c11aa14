package repository

import (
	"context"
	"database/sql"
	"strings"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so every repository can run
// inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store bundles the hierarchy repositories over a single handle.
type Store struct {
	Goals    *GoalRepo
	Tasks    *TaskRepo
	Subtasks *SubtaskRepo
}

func NewStore(q DBTX) *Store {
	return &Store{
		Goals:    NewGoalRepo(q),
		Tasks:    NewTaskRepo(q),
		Subtasks: NewSubtaskRepo(q),
	}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
