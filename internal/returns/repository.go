package returns

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chairline/chairline/internal/inventory"
	"github.com/chairline/chairline/internal/orders"
	"github.com/chairline/chairline/internal/platform/db"
)

// TxRepository exposes the transactional operations used by the service. The
// accept-credit and defect insert ride on the same transaction as the status
// write.
type TxRepository interface {
	GetOrder(ctx context.Context, orderID string) (orders.Order, error)
	GetForUpdate(ctx context.Context, id int64) (ReturnRecord, error)
	Insert(ctx context.Context, record ReturnRecord) (int64, error)
	SetStatus(ctx context.Context, id int64, status Status) error
	SetDecision(ctx context.Context, id int64, status Status, remarks string, decidedBy int64, at time.Time) error
	InsertDefect(ctx context.Context, defect Defect) (int64, error)
	GetDefectForUpdate(ctx context.Context, id int64) (Defect, error)
	UpdateDefect(ctx context.Context, defect Defect) (Defect, error)
	CreditRecord(ctx context.Context, input inventory.CreditInput) (inventory.Record, error)
}

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (ReturnRecord, error)
	List(ctx context.Context, filter ListFilter) ([]ReturnRecord, error)
	ListDefects(ctx context.Context, limit int) ([]Defect, error)
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
		return errors.New("returns repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, ledger: inventory.NewTxStore(tx), orderTx: orders.NewTxStore(tx)})
	})
}

const selectReturn = `SELECT id, order_id, chair_type, qty, destination, category, status, return_date, description, remarks, warning, created_by, created_at, decided_by, decided_at
FROM return_records`

// Get loads one return record.
func (r *Repository) Get(ctx context.Context, id int64) (ReturnRecord, error) {
	return scanReturn(r.pool.QueryRow(ctx, selectReturn+` WHERE id=$1`, id))
}

// List returns records matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]ReturnRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, selectReturn+`
WHERE ($1 = '' OR status = $1)
  AND ($2 = '' OR order_id = $2)
ORDER BY created_at DESC, id DESC
LIMIT $3`, string(filter.Status), filter.OrderID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []ReturnRecord{}
	for rows.Next() {
		record, err := scanReturn(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

const selectDefect = `SELECT id, return_id, chair_type, qty, severity, warranty_status, repair_status, created_at, updated_at
FROM defect_records`

// ListDefects returns the defect register, newest first.
func (r *Repository) ListDefects(ctx context.Context, limit int) ([]Defect, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, selectDefect+` ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	defects := []Defect{}
	for rows.Next() {
		defect, err := scanDefect(rows)
		if err != nil {
			return nil, err
		}
		defects = append(defects, defect)
	}
	return defects, rows.Err()
}

type txRepository struct {
	tx      pgx.Tx
	ledger  *inventory.TxStore
	orderTx *orders.TxStore
}

func (r *txRepository) GetOrder(ctx context.Context, orderID string) (orders.Order, error) {
	return r.orderTx.GetForUpdate(ctx, orderID)
}

func (r *txRepository) GetForUpdate(ctx context.Context, id int64) (ReturnRecord, error) {
	return scanReturn(r.tx.QueryRow(ctx, selectReturn+` WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) Insert(ctx context.Context, record ReturnRecord) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO return_records
(order_id, chair_type, qty, destination, category, status, return_date, description, remarks, warning, created_by, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW()) RETURNING id`,
		record.OrderID, record.ChairType, record.Qty, record.Destination, string(record.Category), string(record.Status),
		record.ReturnDate, record.Description, record.Remarks, record.Warning, record.CreatedBy).Scan(&id)
	return id, err
}

func (r *txRepository) SetStatus(ctx context.Context, id int64, status Status) error {
	_, err := r.tx.Exec(ctx, `UPDATE return_records SET status=$2 WHERE id=$1`, id, string(status))
	return err
}

func (r *txRepository) SetDecision(ctx context.Context, id int64, status Status, remarks string, decidedBy int64, at time.Time) error {
	_, err := r.tx.Exec(ctx, `UPDATE return_records SET status=$2, remarks=$3, decided_by=$4, decided_at=$5 WHERE id=$1`,
		id, string(status), remarks, decidedBy, at)
	return err
}

func (r *txRepository) InsertDefect(ctx context.Context, defect Defect) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO defect_records
(return_id, chair_type, qty, severity, warranty_status, repair_status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW()) RETURNING id`,
		defect.ReturnID, defect.ChairType, defect.Qty, defect.Severity, defect.WarrantyStatus, defect.RepairStatus).Scan(&id)
	return id, err
}

func (r *txRepository) GetDefectForUpdate(ctx context.Context, id int64) (Defect, error) {
	return scanDefect(r.tx.QueryRow(ctx, selectDefect+` WHERE id=$1 FOR UPDATE`, id))
}

func (r *txRepository) UpdateDefect(ctx context.Context, defect Defect) (Defect, error) {
	return scanDefect(r.tx.QueryRow(ctx, `UPDATE defect_records
SET severity=$2, warranty_status=$3, repair_status=$4, updated_at=NOW()
WHERE id=$1
RETURNING id, return_id, chair_type, qty, severity, warranty_status, repair_status, created_at, updated_at`,
		defect.ID, defect.Severity, defect.WarrantyStatus, defect.RepairStatus))
}

func (r *txRepository) CreditRecord(ctx context.Context, input inventory.CreditInput) (inventory.Record, error) {
	return r.ledger.Credit(ctx, input)
}

func scanReturn(row pgx.Row) (ReturnRecord, error) {
	var record ReturnRecord
	var category, status string
	err := row.Scan(&record.ID, &record.OrderID, &record.ChairType, &record.Qty, &record.Destination, &category, &status,
		&record.ReturnDate, &record.Description, &record.Remarks, &record.Warning, &record.CreatedBy, &record.CreatedAt,
		&record.DecidedBy, &record.DecidedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReturnRecord{}, ErrNotFound
		}
		return ReturnRecord{}, err
	}
	record.Category = Category(category)
	record.Status = Status(status)
	return record, nil
}

func scanDefect(row pgx.Row) (Defect, error) {
	var defect Defect
	err := row.Scan(&defect.ID, &defect.ReturnID, &defect.ChairType, &defect.Qty, &defect.Severity,
		&defect.WarrantyStatus, &defect.RepairStatus, &defect.CreatedAt, &defect.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Defect{}, ErrNotFound
		}
		return Defect{}, err
	}
	return defect, nil
}
