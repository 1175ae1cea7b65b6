package production

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chairline/chairline/internal/inventory"
	"github.com/chairline/chairline/internal/platform/db"
)

// TxRepository exposes the transactional operations used by the service.
// The ledger credit rides on the same transaction as the status flip.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id int64) (Inward, error)
	Insert(ctx context.Context, inward Inward) (int64, error)
	MarkAccepted(ctx context.Context, id int64, acceptedBy int64, location string, at time.Time) error
	CreditRecord(ctx context.Context, input inventory.CreditInput) (inventory.Record, error)
}

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Inward, error)
	List(ctx context.Context, filter ListFilter) ([]Inward, error)
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
		return errors.New("production repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, ledger: inventory.NewTxStore(tx)})
	})
}

const selectInward = `SELECT id, part_name, qty, assigned_to, status, location, created_by, created_at, accepted_by, accepted_at
FROM production_inwards`

// Get loads one inward request.
func (r *Repository) Get(ctx context.Context, id int64) (Inward, error) {
	return scanInward(r.pool.QueryRow(ctx, selectInward+` WHERE id=$1`, id))
}

// List returns inward requests matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Inward, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, selectInward+`
WHERE ($1 = '' OR status = $1)
  AND ($2 = 0 OR assigned_to = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3`, string(filter.Status), filter.AssignedTo, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	inwards := []Inward{}
	for rows.Next() {
		inward, err := scanInward(rows)
		if err != nil {
			return nil, err
		}
		inwards = append(inwards, inward)
	}
	return inwards, rows.Err()
}

type txRepository struct {
	tx     pgx.Tx
	ledger *inventory.TxStore
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (Inward, error) {
	return scanInward(r.tx.QueryRow(ctx, selectInward+` WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) Insert(ctx context.Context, inward Inward) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO production_inwards (part_name, qty, assigned_to, status, location, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW()) RETURNING id`,
		inward.PartName, inward.Qty, inward.AssignedTo, string(inward.Status), inward.Location, inward.CreatedBy).Scan(&id)
	return id, err
}

func (r *txRepository) MarkAccepted(ctx context.Context, id int64, acceptedBy int64, location string, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE production_inwards SET status=$2, accepted_by=$3, location=$4, accepted_at=$5 WHERE id=$1`,
		id, string(InwardAccepted), acceptedBy, location, at)
	return err
}

func (r *txRepository) CreditRecord(ctx context.Context, input inventory.CreditInput) (inventory.Record, error) {
	return r.ledger.Credit(ctx, input)
}

func scanInward(row pgx.Row) (Inward, error) {
	var inward Inward
	var status string
	err := row.Scan(&inward.ID, &inward.PartName, &inward.Qty, &inward.AssignedTo, &status, &inward.Location,
		&inward.CreatedBy, &inward.CreatedAt, &inward.AcceptedBy, &inward.AcceptedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Inward{}, ErrNotFound
		}
		return Inward{}, err
	}
	inward.Status = InwardStatus(status)
	return inward, nil
}
