package service

import (
	"errors"

	"github.com/emilianohg/skilltracker/internal/repository"
)

// Error kinds surfaced to callers. Anything else is a storage failure.
var (
	// ErrNotFound means the goal, task or subtask does not exist, or a goal
	// lookup was scoped to a user who does not own it.
	ErrNotFound = repository.ErrNotFound

	// ErrForbidden means the caller is authenticated but the goal at the top
	// of the record's parent chain belongs to someone else.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation means a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")
)
