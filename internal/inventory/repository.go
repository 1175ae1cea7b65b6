package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository serves ledger reads from PostgreSQL. All writes go through
// TxStore so that every quantity change shares one serialisation path.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Availability lists per-location quantities for a part, sorted by
// location name for deterministic display.
func (r *Repository) Availability(ctx context.Context, partName string) ([]LocationQty, error) {
	if r == nil {
		return nil, errors.New("inventory repository not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, location, qty FROM inventory_records
WHERE part_name=$1 AND qty > 0
ORDER BY location ASC`, CanonicalPart(partName))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []LocationQty{}
	for rows.Next() {
		var entry LocationQty
		if err := rows.Scan(&entry.RecordID, &entry.Location, &entry.Available); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ListRecords returns records matching the filter, ordered by part then location.
func (r *Repository) ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT id, part_name, location, qty, kind, colour, vendor, updated_at
FROM inventory_records
WHERE ($1 = '' OR part_name = $1)
  AND ($2 = '' OR location = $2)
  AND ($3 = '' OR kind = $3)
ORDER BY part_name ASC, location ASC
LIMIT $4`, CanonicalPart(filter.PartName), filter.Location, string(filter.Kind), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.PartName, &rec.Location, &rec.Qty, &rec.Kind, &rec.Colour, &rec.Vendor, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListMovements returns journal entries matching the filter, newest first.
func (r *Repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `SELECT id, part_name, location, movement_type, qty, ref_module, ref_id, actor_id, note, occurred_at
FROM inventory_movements
WHERE ($1 = '' OR part_name = $1)
  AND ($2 = '' OR location = $2)
  AND ($3 = '' OR ref_module = $3)
ORDER BY occurred_at DESC, id DESC
LIMIT $4`, CanonicalPart(filter.PartName), filter.Location, filter.RefModule, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	movements := []Movement{}
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.PartName, &m.Location, &m.Type, &m.Qty, &m.RefModule, &m.RefID, &m.ActorID, &m.Note, &m.OccurredAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// CheckIntegrity recomputes every record balance from its movement journal
// and returns the records that drifted. An empty slice means the ledger
// conserves quantities.
func (r *Repository) CheckIntegrity(ctx context.Context) ([]Drift, error) {
	rows, err := r.pool.Query(ctx, `SELECT rec.part_name, rec.location, rec.qty,
  COALESCE(SUM(CASE WHEN mv.movement_type = 'IN' THEN mv.qty ELSE -mv.qty END), 0) AS expected
FROM inventory_records rec
LEFT JOIN inventory_movements mv
  ON mv.part_name = rec.part_name AND mv.location = rec.location
GROUP BY rec.part_name, rec.location, rec.qty
HAVING rec.qty <> COALESCE(SUM(CASE WHEN mv.movement_type = 'IN' THEN mv.qty ELSE -mv.qty END), 0)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var drifts []Drift
	for rows.Next() {
		var d Drift
		if err := rows.Scan(&d.PartName, &d.Location, &d.Balance, &d.Expected); err != nil {
			return nil, err
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}

// TxStore is the single write path for inventory quantities. Components
// that mutate the ledger (picking, production inward, returns triage)
// construct a TxStore over their own transaction so the balance change
// commits or rolls back together with their state change.
type TxStore struct {
	tx pgx.Tx
}

// NewTxStore wraps a transaction.
func NewTxStore(tx pgx.Tx) *TxStore {
	return &TxStore{tx: tx}
}

// CreditInput describes a ledger credit.
type CreditInput struct {
	PartName  string
	Location  string
	Qty       int64
	Kind      RecordKind
	Colour    string
	Vendor    string
	RefModule string
	RefID     string
	ActorID   int64
	Note      string
}

// DebitInput describes a ledger debit against a specific record.
type DebitInput struct {
	RecordID  int64
	Qty       int64
	RefModule string
	RefID     string
	ActorID   int64
	Note      string
}

// GetByIDForUpdate loads and row-locks a record.
func (s *TxStore) GetByIDForUpdate(ctx context.Context, id int64) (Record, error) {
	return s.scanRecord(s.tx.QueryRow(ctx, `SELECT id, part_name, location, qty, kind, colour, vendor, updated_at
FROM inventory_records WHERE id=$1 FOR UPDATE`, id))
}

// GetForUpdate loads and row-locks a record by its natural key.
func (s *TxStore) GetForUpdate(ctx context.Context, partName, location string) (Record, error) {
	return s.scanRecord(s.tx.QueryRow(ctx, `SELECT id, part_name, location, qty, kind, colour, vendor, updated_at
FROM inventory_records WHERE part_name=$1 AND location=$2 FOR UPDATE`, CanonicalPart(partName), location))
}

// Credit adds quantity at (part, location), creating the record when it
// does not exist yet, and journals the movement.
func (s *TxStore) Credit(ctx context.Context, input CreditInput) (Record, error) {
	if input.Qty <= 0 {
		return Record{}, ErrInvalidQuantity
	}
	part := CanonicalPart(input.PartName)
	if part == "" {
		return Record{}, ErrPartRequired
	}
	kind := input.Kind
	if kind == "" {
		kind = KindSpare
	}

	var rec Record
	err := s.tx.QueryRow(ctx, `INSERT INTO inventory_records (part_name, location, qty, kind, colour, vendor, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NOW())
ON CONFLICT (part_name, location) DO UPDATE
  SET qty = inventory_records.qty + EXCLUDED.qty, updated_at = NOW()
RETURNING id, part_name, location, qty, kind, colour, vendor, updated_at`,
		part, input.Location, input.Qty, string(kind), input.Colour, input.Vendor).
		Scan(&rec.ID, &rec.PartName, &rec.Location, &rec.Qty, &rec.Kind, &rec.Colour, &rec.Vendor, &rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}

	if err := s.insertMovement(ctx, Movement{
		PartName:  part,
		Location:  input.Location,
		Type:      MovementIn,
		Qty:       input.Qty,
		RefModule: input.RefModule,
		RefID:     input.RefID,
		ActorID:   input.ActorID,
		Note:      input.Note,
	}); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Debit removes quantity from a record. The row is locked, the balance is
// re-read and the debit rejected with InsufficientStockError when the
// caller's view was stale.
func (s *TxStore) Debit(ctx context.Context, input DebitInput) (Record, error) {
	if input.Qty <= 0 {
		return Record{}, ErrInvalidQuantity
	}
	rec, err := s.GetByIDForUpdate(ctx, input.RecordID)
	if err != nil {
		return Record{}, err
	}
	if rec.Qty < input.Qty {
		return Record{}, &InsufficientStockError{
			PartName:  rec.PartName,
			Location:  rec.Location,
			Requested: input.Qty,
			Available: rec.Qty,
		}
	}

	err = s.tx.QueryRow(ctx, `UPDATE inventory_records SET qty = qty - $2, updated_at = NOW()
WHERE id=$1
RETURNING id, part_name, location, qty, kind, colour, vendor, updated_at`, input.RecordID, input.Qty).
		Scan(&rec.ID, &rec.PartName, &rec.Location, &rec.Qty, &rec.Kind, &rec.Colour, &rec.Vendor, &rec.UpdatedAt)
	if err != nil {
		return Record{}, err
	}

	if err := s.insertMovement(ctx, Movement{
		PartName:  rec.PartName,
		Location:  rec.Location,
		Type:      MovementOut,
		Qty:       input.Qty,
		RefModule: input.RefModule,
		RefID:     input.RefID,
		ActorID:   input.ActorID,
		Note:      input.Note,
	}); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *TxStore) insertMovement(ctx context.Context, m Movement) error {
	_, err := s.tx.Exec(ctx, `INSERT INTO inventory_movements (part_name, location, movement_type, qty, ref_module, ref_id, actor_id, note, occurred_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())`,
		m.PartName, m.Location, string(m.Type), m.Qty, m.RefModule, m.RefID, m.ActorID, m.Note)
	return err
}

func (s *TxStore) scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.PartName, &rec.Location, &rec.Qty, &rec.Kind, &rec.Colour, &rec.Vendor, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}
	return rec, nil
}
