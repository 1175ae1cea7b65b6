package picking

import (
	"errors"
	"time"

	"github.com/chairline/chairline/internal/inventory"
	"github.com/chairline/chairline/internal/orders"
)

// PickLine is one caller-chosen (source record, quantity) pair. The
// caller's line order is authoritative; the engine never re-sorts or
// auto-selects sources; that decision belongs to the operator.
type PickLine struct {
	RecordID int64 `json:"record_id"`
	Qty      int64 `json:"qty"`
}

// AllocationLine records one committed debit.
type AllocationLine struct {
	RecordID       int64  `json:"record_id"`
	PartName       string `json:"part_name"`
	SourceLocation string `json:"source_location"`
	Qty            int64  `json:"qty"`
}

// Allocation is the committed outcome of one pick: the set of source
// debits that moved spare parts into the fitting section for an order.
type Allocation struct {
	ID        string           `json:"id"`
	OrderID   string           `json:"order_id"`
	Lines     []AllocationLine `json:"lines"`
	CreatedBy int64            `json:"created_by"`
	CreatedAt time.Time        `json:"created_at"`
}

// Result is the authoritative post-state of a successful pick, so the
// caller never needs a follow-up fetch to learn the outcome.
type Result struct {
	Allocation  Allocation         `json:"allocation"`
	Order       orders.Order       `json:"order"`
	Destination []inventory.Record `json:"destination"`
}

var (
	// ErrEmptySelection indicates a pick request without any positive line.
	ErrEmptySelection = errors.New("picking: no lines with positive quantity")
	// ErrValidation indicates a malformed pick line.
	ErrValidation = errors.New("picking: invalid input")
)
