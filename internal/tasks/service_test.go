package tasks

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chairline/chairline/internal/shared"
)

type memoryRepo struct {
	nextID int64
	tasks  map[int64]Task
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, tasks: map[int64]Task{}}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) Insert(_ context.Context, task Task) (int64, error) {
	task.ID = m.nextID
	task.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	m.tasks[task.ID] = task
	m.nextID++
	return task.ID, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Task, error) {
	task, ok := m.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return task, nil
}

func (m *memoryRepo) ListPending(_ context.Context, assignedTo int64) ([]Task, error) {
	tasks := []Task{}
	for _, task := range m.tasks {
		if task.AssignedTo == assignedTo && task.Status == StatusPending {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.Before(tasks[j].CreatedAt) })
	return tasks, nil
}

func (m *memoryRepo) ListCompleted(_ context.Context, assignedTo int64) ([]Task, error) {
	tasks := []Task{}
	for _, task := range m.tasks {
		if task.AssignedTo == assignedTo && task.Status == StatusCompleted {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CompletedAt.After(*tasks[j].CompletedAt) })
	return tasks, nil
}

func (m *memoryRepo) ListOverdue(_ context.Context, before time.Time) ([]Task, error) {
	tasks := []Task{}
	for _, task := range m.tasks {
		if task.Status == StatusPending && task.DueAt != nil && task.DueAt.Before(before) {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (m *memoryRepo) GetForUpdate(ctx context.Context, id int64) (Task, error) {
	return m.Get(ctx, id)
}

func (m *memoryRepo) MarkCompleted(_ context.Context, id int64, at time.Time) error {
	task, ok := m.tasks[id]
	if !ok {
		return ErrNotFound
	}
	task.Status = StatusCompleted
	task.CompletedAt = &at
	m.tasks[id] = task
	return nil
}

func supervisor(role shared.Role, department string) shared.Actor {
	return shared.Actor{ID: 1, Name: "Vik", Role: role, Department: department}
}

func assignee() shared.Actor {
	return shared.Actor{ID: 8, Name: "Uma", Role: shared.RoleFitting, Department: "fitting"}
}

func TestAssignWithinDepartment(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	task, err := svc.Assign(context.Background(), supervisor(shared.RoleFitting, "fitting"), AssignInput{
		AssignedTo:  8,
		Description: "Inspect returned batch",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, task.Status)
	require.Equal(t, "fitting", task.Department)
	require.Equal(t, int64(1), task.AssignedBy)
}

func TestAssignOutsideDepartmentForbidden(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Assign(context.Background(), supervisor(shared.RoleSales, "sales"), AssignInput{
		AssignedTo:  8,
		Department:  "fitting",
		Description: "Inspect returned batch",
	})
	require.ErrorIs(t, err, ErrDepartmentScope)

	// Admin is exempt from the department scope rule.
	_, err = svc.Assign(context.Background(), supervisor(shared.RoleAdmin, "management"), AssignInput{
		AssignedTo:  8,
		Department:  "fitting",
		Description: "Inspect returned batch",
	})
	require.NoError(t, err)
}

func TestCompleteByAssigneeOnlyOnce(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	task, err := svc.Assign(context.Background(), supervisor(shared.RoleFitting, "fitting"), AssignInput{
		AssignedTo:  8,
		Description: "Fit armrests",
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), supervisor(shared.RoleFitting, "fitting"), task.ID)
	require.ErrorIs(t, err, ErrNotYourTask)

	completed, err := svc.Complete(context.Background(), assignee(), task.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)

	_, err = svc.Complete(context.Background(), assignee(), task.ID)
	require.ErrorIs(t, err, ErrAlreadyCompleted)
}

func TestDelayedIsDateOnlyAndClearsOnCompletion(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	yesterday := time.Now().AddDate(0, 0, -1)
	today := time.Now()
	overdue, err := svc.Assign(context.Background(), supervisor(shared.RoleFitting, "fitting"), AssignInput{
		AssignedTo:  8,
		Description: "Overdue job",
		DueAt:       &yesterday,
	})
	require.NoError(t, err)
	_, err = svc.Assign(context.Background(), supervisor(shared.RoleFitting, "fitting"), AssignInput{
		AssignedTo:  8,
		Description: "Due today, not delayed yet",
		DueAt:       &today,
	})
	require.NoError(t, err)

	delayed, err := svc.Delayed(context.Background())
	require.NoError(t, err)
	require.Len(t, delayed, 1)
	require.Equal(t, overdue.ID, delayed[0].ID)

	_, err = svc.Complete(context.Background(), assignee(), overdue.ID)
	require.NoError(t, err)

	delayed, err = svc.Delayed(context.Background())
	require.NoError(t, err)
	require.Empty(t, delayed)
}

func TestCurrentOrdersEarliestFirst(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	boss := supervisor(shared.RoleFitting, "fitting")
	first, err := svc.Assign(context.Background(), boss, AssignInput{AssignedTo: 8, Description: "First"})
	require.NoError(t, err)
	second, err := svc.Assign(context.Background(), boss, AssignInput{AssignedTo: 8, Description: "Second"})
	require.NoError(t, err)

	current, err := svc.Current(context.Background(), 8)
	require.NoError(t, err)
	require.Len(t, current, 2)
	require.Equal(t, first.ID, current[0].ID)
	require.Equal(t, second.ID, current[1].ID)

	_, err = svc.Complete(context.Background(), assignee(), first.ID)
	require.NoError(t, err)

	history, err := svc.History(context.Background(), 8)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, first.ID, history[0].ID)
}

func TestAssignValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Assign(context.Background(), supervisor(shared.RoleFitting, "fitting"), AssignInput{AssignedTo: 8})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Assign(context.Background(), supervisor(shared.RoleFitting, "fitting"), AssignInput{Description: "No assignee"})
	require.ErrorIs(t, err, ErrValidation)
}
