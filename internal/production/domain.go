package production

import (
	"errors"
	"time"
)

// InwardStatus tracks the two-step handover of newly produced stock.
type InwardStatus string

const (
	InwardPending  InwardStatus = "PENDING"
	InwardAccepted InwardStatus = "ACCEPTED"
)

// Inward is a producer-initiated request to move freshly made parts into
// warehouse custody. Creation has no ledger effect; exactly one credit
// happens when the assigned warehouse staff accepts.
type Inward struct {
	ID         int64        `json:"id"`
	PartName   string       `json:"part_name"`
	Qty        int64        `json:"qty"`
	AssignedTo int64        `json:"assigned_to"`
	Status     InwardStatus `json:"status"`
	Location   string       `json:"location,omitempty"`
	CreatedBy  int64        `json:"created_by"`
	CreatedAt  time.Time    `json:"created_at"`
	AcceptedBy *int64       `json:"accepted_by,omitempty"`
	AcceptedAt *time.Time   `json:"accepted_at,omitempty"`
}

// ListFilter narrows inward listings.
type ListFilter struct {
	Status     InwardStatus
	AssignedTo int64
	Limit      int
}

var (
	// ErrNotFound indicates a missing inward request.
	ErrNotFound = errors.New("production: inward not found")
	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("production: invalid input")
	// ErrAlreadyProcessed guards against double-accept and the double
	// credit it would cause.
	ErrAlreadyProcessed = errors.New("production: inward already processed")
)
