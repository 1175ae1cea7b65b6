package tasks

import "time"

// AssignTaskRequest is the assignment payload.
type AssignTaskRequest struct {
	AssignedTo  int64      `json:"assignedTo" validate:"required,gt=0"`
	Department  string     `json:"department,omitempty" validate:"max=50"`
	Description string     `json:"description" validate:"required,max=500"`
	DueAt       *time.Time `json:"dueAt,omitempty"`
}

// TaskView decorates a task with its computed delay flag for responses.
type TaskView struct {
	Task
	Delayed bool `json:"delayed"`
}
