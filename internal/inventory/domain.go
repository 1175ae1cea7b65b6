package inventory

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Well-known locations. Additional warehouse buckets (per staff member
// or aisle) are plain strings created on first credit.
const (
	LocationWarehouse = "WAREHOUSE"
	LocationFitting   = "FITTING_SECTION"
)

// RecordKind distinguishes complete chairs from spare parts.
type RecordKind string

const (
	KindFull  RecordKind = "FULL"
	KindSpare RecordKind = "SPARE"
)

// Record holds the on-hand quantity of one part at one location.
// The (PartName, Location) pair is unique; Qty never goes negative.
type Record struct {
	ID        int64      `json:"id"`
	PartName  string     `json:"part_name"`
	Location  string     `json:"location"`
	Qty       int64      `json:"qty"`
	Kind      RecordKind `json:"kind"`
	Colour    string     `json:"colour,omitempty"`
	Vendor    string     `json:"vendor,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// MovementType marks the direction of a ledger movement.
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// Movement journals a single credit or debit. Every quantity change in
// the ledger leaves exactly one movement row, which is what makes
// conservation checkable after the fact.
type Movement struct {
	ID         int64        `json:"id"`
	PartName   string       `json:"part_name"`
	Location   string       `json:"location"`
	Type       MovementType `json:"type"`
	Qty        int64        `json:"qty"`
	RefModule  string       `json:"ref_module"`
	RefID      string       `json:"ref_id"`
	ActorID    int64        `json:"actor_id"`
	Note       string       `json:"note,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// LocationQty is one entry of a part's availability listing.
type LocationQty struct {
	RecordID  int64  `json:"record_id"`
	Location  string `json:"location"`
	Available int64  `json:"available"`
}

// RecordFilter narrows record listings.
type RecordFilter struct {
	PartName string
	Location string
	Kind     RecordKind
	Limit    int
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	PartName  string
	Location  string
	RefModule string
	Limit     int
}

// Drift reports a record whose balance disagrees with its movement sum.
type Drift struct {
	PartName string `json:"part_name"`
	Location string `json:"location"`
	Balance  int64  `json:"balance"`
	Expected int64  `json:"expected"`
}

// InsufficientStockError reports a debit that exceeds the available
// quantity, carrying enough detail for the operator to correct the line.
type InsufficientStockError struct {
	PartName  string `json:"part_name"`
	Location  string `json:"location"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("inventory: insufficient stock of %q at %s: requested %d, available %d",
		e.PartName, e.Location, e.Requested, e.Available)
}

var (
	// ErrRecordNotFound indicates a missing inventory record.
	ErrRecordNotFound = errors.New("inventory: record not found")
	// ErrInvalidQuantity indicates a non-positive quantity.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
	// ErrPartRequired indicates a blank part name.
	ErrPartRequired = errors.New("inventory: part name required")
)

var partCaser = cases.Title(language.English)

// CanonicalPart normalises a part name so "gas lift", "GAS LIFT" and
// "Gas Lift" address the same ledger key.
func CanonicalPart(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return ""
	}
	return partCaser.String(strings.ToLower(name))
}
