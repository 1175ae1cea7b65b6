package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chairline/chairline/internal/platform/db"
)

// TxRepository exposes the transactional operations used by the service.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Task, error)
	MarkCompleted(ctx context.Context, id int64, at time.Time) error
}

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Insert(ctx context.Context, task Task) (int64, error)
	Get(ctx context.Context, id int64) (Task, error)
	ListPending(ctx context.Context, assignedTo int64) ([]Task, error)
	ListCompleted(ctx context.Context, assignedTo int64) ([]Task, error)
	ListOverdue(ctx context.Context, before time.Time) ([]Task, error)
}

// Repository is the PostgreSQL implementation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("tasks repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const selectTask = `SELECT id, assigned_to, assigned_by, department, description, status, due_at, created_at, completed_at
FROM tasks`

// Insert persists a new task.
func (r *Repository) Insert(ctx context.Context, task Task) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO tasks (assigned_to, assigned_by, department, description, status, due_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW()) RETURNING id`,
		task.AssignedTo, task.AssignedBy, task.Department, task.Description, string(task.Status), task.DueAt).Scan(&id)
	return id, err
}

// Get loads one task.
func (r *Repository) Get(ctx context.Context, id int64) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, selectTask+` WHERE id=$1`, id))
}

// ListPending returns a user's pending tasks, earliest created first, so the
// head of the slice is the "current" task.
func (r *Repository) ListPending(ctx context.Context, assignedTo int64) ([]Task, error) {
	return r.list(ctx, selectTask+` WHERE assigned_to=$1 AND status=$2 ORDER BY created_at ASC, id ASC`,
		assignedTo, string(StatusPending))
}

// ListCompleted returns a user's completed tasks, most recently completed
// first.
func (r *Repository) ListCompleted(ctx context.Context, assignedTo int64) ([]Task, error) {
	return r.list(ctx, selectTask+` WHERE assigned_to=$1 AND status=$2 ORDER BY completed_at DESC, id DESC`,
		assignedTo, string(StatusCompleted))
}

// ListOverdue returns every pending task whose due date precedes the cutoff.
func (r *Repository) ListOverdue(ctx context.Context, before time.Time) ([]Task, error) {
	return r.list(ctx, selectTask+` WHERE status=$1 AND due_at IS NOT NULL AND due_at < $2 ORDER BY due_at ASC, id ASC`,
		string(StatusPending), before)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tasks := []Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Task, error) {
	return scanTask(r.tx.QueryRow(ctx, selectTask+` WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) MarkCompleted(ctx context.Context, id int64, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE tasks SET status=$2, completed_at=$3 WHERE id=$1`,
		id, string(StatusCompleted), at)
	return err
}

func scanTask(row pgx.Row) (Task, error) {
	var task Task
	var status string
	err := row.Scan(&task.ID, &task.AssignedTo, &task.AssignedBy, &task.Department, &task.Description, &status,
		&task.DueAt, &task.CreatedAt, &task.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	task.Status = Status(status)
	return task, nil
}
