package orders

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Stage is an ordinal position in the fulfillment pipeline, so "at or
// past stage N" checks are plain integer comparisons.
type Stage int

const (
	StageWarehouse Stage = iota
	StageFitting
	StageOrderReady
	StageDispatched
	StageDelivered
)

var stageTokens = [...]string{"warehouse", "fitting", "order_ready", "dispatched", "delivered"}

// String returns the canonical stage token.
func (s Stage) String() string {
	if s < StageWarehouse || s > StageDelivered {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageTokens[s]
}

// Next returns the pipeline successor. ok is false at the terminal stage.
func (s Stage) Next() (Stage, bool) {
	if s >= StageDelivered {
		return s, false
	}
	return s + 1, true
}

// AtLeast reports whether the order has reached the given stage.
func (s Stage) AtLeast(other Stage) bool {
	return s >= other
}

// MarshalJSON encodes the stage as its canonical token.
func (s Stage) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

// UnmarshalJSON accepts both the canonical token and the legacy ordinal.
func (s *Stage) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	parsed, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStage normalises a stage sent by a caller. The legacy client sent
// progress sometimes as a token and sometimes as a bare ordinal; both
// forms map onto the one internal representation here.
func ParseStage(raw string) (Stage, error) {
	token := strings.ToLower(strings.TrimSpace(raw))
	for i, t := range stageTokens {
		if token == t {
			return Stage(i), nil
		}
	}
	if n, err := strconv.Atoi(token); err == nil {
		if n >= int(StageWarehouse) && n <= int(StageDelivered) {
			return Stage(n), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown stage %q", ErrValidation, raw)
}

// Order is the business record driven through the pipeline. ID is the
// human-chosen, globally unique order number. Destination, OrderDate and
// DeliveryDate stay amendable until the order is dispatched; after
// delivery the whole record is an immutable history entry.
type Order struct {
	ID           string     `json:"id"`
	Destination  string     `json:"destination"`
	Model        string     `json:"model"`
	Quantity     int64      `json:"quantity"`
	OrderDate    time.Time  `json:"order_date"`
	DeliveryDate time.Time  `json:"delivery_date"`
	Stage        Stage      `json:"progress"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty"`
	OnTime       *bool      `json:"on_time,omitempty"`
	CreatedBy    int64      `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Amendable reports whether destination and dates may still change.
func (o Order) Amendable() bool {
	return o.Stage < StageDispatched
}

// ListFilter narrows order listings.
type ListFilter struct {
	Stage       *Stage
	Destination string
	Limit       int
	Offset      int
}

var (
	// ErrNotFound indicates a missing order.
	ErrNotFound = errors.New("orders: not found")
	// ErrDuplicateID indicates an order id collision.
	ErrDuplicateID = errors.New("orders: order id already exists")
	// ErrValidation indicates malformed or out-of-range input.
	ErrValidation = errors.New("orders: invalid input")
	// ErrInvalidState indicates the operation is outside its legal window.
	ErrInvalidState = errors.New("orders: invalid state for operation")
	// ErrInvalidTransition indicates a stage skip or regression.
	ErrInvalidTransition = errors.New("orders: invalid stage transition")
)

// SameOrBeforeDay compares two timestamps on calendar date only, which is
// how the on-time flag and task delays are defined.
func SameOrBeforeDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad <= bd
}
