package tasks

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// Task is a single unit of work assigned to one user.
type Task struct {
	ID          int64      `json:"id"`
	AssignedTo  int64      `json:"assignedTo"`
	AssignedBy  int64      `json:"assignedBy"`
	Department  string     `json:"department"`
	Description string     `json:"description"`
	Status      Status     `json:"status"`
	DueAt       *time.Time `json:"dueAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// IsDelayed reports whether a pending task slipped past its due date. The
// comparison is by calendar day, not instant, so a task due today is not
// delayed yet. Completed tasks are never delayed.
func (t Task) IsDelayed(today time.Time) bool {
	if t.Status != StatusPending || t.DueAt == nil {
		return false
	}
	due := t.DueAt
	ty, tm, td := today.Date()
	dy, dm, dd := due.Date()
	if dy != ty {
		return dy < ty
	}
	if dm != tm {
		return dm < tm
	}
	return dd < td
}

var (
	// ErrNotFound indicates an unknown task id.
	ErrNotFound = errors.New("task not found")
	// ErrValidation indicates a malformed request.
	ErrValidation = errors.New("task validation failed")
	// ErrNotYourTask indicates completion by someone other than the assignee.
	ErrNotYourTask = errors.New("task is assigned to another user")
	// ErrAlreadyCompleted indicates a second completion attempt.
	ErrAlreadyCompleted = errors.New("task already completed")
	// ErrDepartmentScope indicates assignment outside the caller's supervision.
	ErrDepartmentScope = errors.New("cannot assign tasks outside your department")
)
