package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chairline/chairline/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the task queue.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// AssignInput carries a new task.
type AssignInput struct {
	AssignedTo  int64
	Department  string
	Description string
	DueAt       *time.Time
}

// Assign creates a pending task. Non-admin actors may only assign within
// their own department; multiple pending tasks per user are allowed, the
// earliest created is surfaced as "current".
func (s *Service) Assign(ctx context.Context, actor shared.Actor, input AssignInput) (Task, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return Task{}, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if input.AssignedTo <= 0 {
		return Task{}, fmt.Errorf("%w: assigned_to is required", ErrValidation)
	}
	department := strings.TrimSpace(input.Department)
	if department == "" {
		department = actor.Department
	}
	if actor.Role != shared.RoleAdmin && !strings.EqualFold(department, actor.Department) {
		return Task{}, fmt.Errorf("%w: %s cannot assign into %s", ErrDepartmentScope, actor.Department, department)
	}

	task := Task{
		AssignedTo:  input.AssignedTo,
		AssignedBy:  actor.ID,
		Department:  department,
		Description: description,
		Status:      StatusPending,
		DueAt:       input.DueAt,
	}
	id, err := s.repo.Insert(ctx, task)
	if err != nil {
		return Task{}, err
	}
	s.recordAudit(ctx, actor, "TASK_ASSIGN", fmt.Sprint(id), map[string]any{
		"assigned_to": input.AssignedTo,
		"department":  department,
	})
	return s.repo.Get(ctx, id)
}

// Complete marks a task done. Only the assignee may complete it, and only
// once; the status flip and the completion timestamp commit together.
func (s *Service) Complete(ctx context.Context, actor shared.Actor, id int64) (Task, error) {
	completedAt := s.now()

	var completed Task
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		task, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if task.AssignedTo != actor.ID {
			return fmt.Errorf("%w: task %d belongs to user %d", ErrNotYourTask, id, task.AssignedTo)
		}
		if task.Status != StatusPending {
			return fmt.Errorf("%w: task %d", ErrAlreadyCompleted, id)
		}
		if err := tx.MarkCompleted(ctx, id, completedAt); err != nil {
			return err
		}
		completed = task
		completed.Status = StatusCompleted
		completed.CompletedAt = &completedAt
		return nil
	})
	if err != nil {
		return Task{}, err
	}
	s.recordAudit(ctx, actor, "TASK_COMPLETE", fmt.Sprint(id), nil)
	return completed, nil
}

// Current returns the actor's pending tasks, earliest first.
func (s *Service) Current(ctx context.Context, userID int64) ([]Task, error) {
	return s.repo.ListPending(ctx, userID)
}

// History returns the actor's completed tasks, newest completion first.
func (s *Service) History(ctx context.Context, userID int64) ([]Task, error) {
	return s.repo.ListCompleted(ctx, userID)
}

// Delayed returns every pending task past its due date as of now.
func (s *Service) Delayed(ctx context.Context) ([]Task, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	candidates, err := s.repo.ListOverdue(ctx, startOfDay)
	if err != nil {
		return nil, err
	}
	delayed := []Task{}
	for _, task := range candidates {
		if task.IsDelayed(now) {
			delayed = append(delayed, task)
		}
	}
	return delayed, nil
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Actor, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "task",
		EntityID: entityID,
		Meta:     meta,
	})
}
