package orders

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chairline/chairline/internal/platform/db"
)

// Repository persists orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by the service.
type TxRepository interface {
	GetForUpdate(ctx context.Context, id string) (Order, error)
	Insert(ctx context.Context, order Order) error
	UpdateAmendable(ctx context.Context, order Order) error
	UpdateStage(ctx context.Context, order Order) error
	Delete(ctx context.Context, id string) error
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("orders repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, NewTxStore(tx))
	})
}

// Get loads one order.
func (r *Repository) Get(ctx context.Context, id string) (Order, error) {
	return scanOrder(r.pool.QueryRow(ctx, selectOrder+` WHERE id=$1`, id))
}

// List returns orders matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	stage := -1
	if filter.Stage != nil {
		stage = int(*filter.Stage)
	}
	rows, err := r.pool.Query(ctx, selectOrder+`
WHERE ($1 = -1 OR stage = $1)
  AND ($2 = '' OR destination = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3 OFFSET $4`, stage, filter.Destination, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := []Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// TxStore implements TxRepository over a caller-owned transaction. The
// picking engine reuses it so a pick and its stage advance share a commit.
type TxStore struct {
	tx pgx.Tx
}

// NewTxStore wraps a transaction.
func NewTxStore(tx pgx.Tx) *TxStore {
	return &TxStore{tx: tx}
}

const selectOrder = `SELECT id, destination, model, quantity, order_date, delivery_date, stage, delivered_at, on_time, created_by, created_at, updated_at
FROM orders`

// GetForUpdate loads and row-locks an order.
func (s *TxStore) GetForUpdate(ctx context.Context, id string) (Order, error) {
	return scanOrder(s.tx.QueryRow(ctx, selectOrder+` WHERE id=$1 FOR UPDATE`, id))
}

// Insert creates a new order row.
func (s *TxStore) Insert(ctx context.Context, order Order) error {
	_, err := s.tx.Exec(ctx, `INSERT INTO orders (id, destination, model, quantity, order_date, delivery_date, stage, created_by, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())`,
		order.ID, order.Destination, order.Model, order.Quantity, order.OrderDate, order.DeliveryDate, int(order.Stage), order.CreatedBy)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

// UpdateAmendable overwrites the amendable fields only.
func (s *TxStore) UpdateAmendable(ctx context.Context, order Order) error {
	_, err := s.tx.Exec(ctx, `UPDATE orders SET destination=$2, order_date=$3, delivery_date=$4, updated_at=NOW() WHERE id=$1`,
		order.ID, order.Destination, order.OrderDate, order.DeliveryDate)
	return err
}

// UpdateStage writes the stage and, at delivery, the delivered timestamp
// and the on-time flag.
func (s *TxStore) UpdateStage(ctx context.Context, order Order) error {
	_, err := s.tx.Exec(ctx, `UPDATE orders SET stage=$2, delivered_at=$3, on_time=$4, updated_at=NOW() WHERE id=$1`,
		order.ID, int(order.Stage), order.DeliveredAt, order.OnTime)
	return err
}

// Delete removes an order row.
func (s *TxStore) Delete(ctx context.Context, id string) error {
	_, err := s.tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	return err
}

func scanOrder(row pgx.Row) (Order, error) {
	var order Order
	var stage int
	err := row.Scan(&order.ID, &order.Destination, &order.Model, &order.Quantity, &order.OrderDate, &order.DeliveryDate,
		&stage, &order.DeliveredAt, &order.OnTime, &order.CreatedBy, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	order.Stage = Stage(stage)
	return order, nil
}
