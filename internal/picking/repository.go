package picking

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chairline/chairline/internal/inventory"
	"github.com/chairline/chairline/internal/orders"
	"github.com/chairline/chairline/internal/platform/db"
)

// TxRepository bundles everything a pick must do under one commit: debit
// sources, credit the fitting section, persist the allocation and advance
// the order stage. Ledger mutations delegate to inventory.TxStore so the
// pick shares the same serialisation path as every other quantity write.
type TxRepository interface {
	GetOrderForUpdate(ctx context.Context, orderID string) (orders.Order, error)
	SetOrderStage(ctx context.Context, order orders.Order) error
	DebitRecord(ctx context.Context, input inventory.DebitInput) (inventory.Record, error)
	CreditRecord(ctx context.Context, input inventory.CreditInput) (inventory.Record, error)
	InsertAllocation(ctx context.Context, alloc Allocation) error
}

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Availability(ctx context.Context, partName string) ([]inventory.LocationQty, error)
	ListAllocations(ctx context.Context, orderID string) ([]Allocation, error)
}

// Repository is the PostgreSQL implementation.
type Repository struct {
	pool      *pgxpool.Pool
	inventory *inventory.Repository
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, inventory: inventory.NewRepository(pool)}
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("picking repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{
			tx:      tx,
			ledger:  inventory.NewTxStore(tx),
			orderTx: orders.NewTxStore(tx),
		})
	})
}

// Availability delegates to the ledger read path.
func (r *Repository) Availability(ctx context.Context, partName string) ([]inventory.LocationQty, error) {
	return r.inventory.Availability(ctx, partName)
}

// ListAllocations returns committed allocations for an order, oldest first.
func (r *Repository) ListAllocations(ctx context.Context, orderID string) ([]Allocation, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, order_id, lines, created_by, created_at
FROM pick_allocations WHERE order_id=$1 ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	allocations := []Allocation{}
	for rows.Next() {
		var alloc Allocation
		var lines []byte
		if err := rows.Scan(&alloc.ID, &alloc.OrderID, &lines, &alloc.CreatedBy, &alloc.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(lines, &alloc.Lines); err != nil {
			return nil, err
		}
		allocations = append(allocations, alloc)
	}
	return allocations, rows.Err()
}

type txRepository struct {
	tx      pgx.Tx
	ledger  *inventory.TxStore
	orderTx *orders.TxStore
}

func (r *txRepository) GetOrderForUpdate(ctx context.Context, orderID string) (orders.Order, error) {
	return r.orderTx.GetForUpdate(ctx, orderID)
}

func (r *txRepository) SetOrderStage(ctx context.Context, order orders.Order) error {
	return r.orderTx.UpdateStage(ctx, order)
}

func (r *txRepository) DebitRecord(ctx context.Context, input inventory.DebitInput) (inventory.Record, error) {
	return r.ledger.Debit(ctx, input)
}

func (r *txRepository) CreditRecord(ctx context.Context, input inventory.CreditInput) (inventory.Record, error) {
	return r.ledger.Credit(ctx, input)
}

func (r *txRepository) InsertAllocation(ctx context.Context, alloc Allocation) error {
	lines, err := json.Marshal(alloc.Lines)
	if err != nil {
		return err
	}
	_, err = r.tx.Exec(ctx, `INSERT INTO pick_allocations (id, order_id, lines, created_by, created_at)
VALUES ($1,$2,$3,$4,NOW())`, alloc.ID, alloc.OrderID, lines, alloc.CreatedBy)
	return err
}
