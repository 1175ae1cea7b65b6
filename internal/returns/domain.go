package returns

import (
	"errors"
	"time"
)

// Status is the triage state of a returned unit.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusInFitting Status = "IN_FITTING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
)

// Decided reports whether triage has reached a terminal state.
func (s Status) Decided() bool {
	return s == StatusAccepted || s == StatusRejected
}

// Category classifies the returned unit after inspection.
type Category string

const (
	CategoryFunctional    Category = "FUNCTIONAL"
	CategoryNonFunctional Category = "NON_FUNCTIONAL"
)

// Valid reports whether the category is known.
func (c Category) Valid() bool {
	return c == CategoryFunctional || c == CategoryNonFunctional
}

// ReturnRecord tracks one returned unit from intake to decision. Provenance
// fields (ChairType, Qty, Destination) are copied from the order at intake so
// later order amendments cannot rewrite return history.
type ReturnRecord struct {
	ID          int64      `json:"id"`
	OrderID     string     `json:"orderId"`
	ChairType   string     `json:"chairType"`
	Qty         int64      `json:"qty"`
	Destination string     `json:"destination"`
	Category    Category   `json:"category"`
	Status      Status     `json:"status"`
	ReturnDate  time.Time  `json:"returnDate"`
	Description string     `json:"description,omitempty"`
	Remarks     string     `json:"remarks,omitempty"`
	Warning     string     `json:"warning,omitempty"`
	CreatedBy   int64      `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	DecidedBy   *int64     `json:"decidedBy,omitempty"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty"`
}

// Defect is opened when a non-functional return is accepted. It is never
// created outside the triage flow.
type Defect struct {
	ID             int64     `json:"id"`
	ReturnID       int64     `json:"returnId"`
	ChairType      string    `json:"chairType"`
	Qty            int64     `json:"qty"`
	Severity       string    `json:"severity"`
	WarrantyStatus string    `json:"warrantyStatus"`
	RepairStatus   string    `json:"repairStatus"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ListFilter narrows return listings.
type ListFilter struct {
	Status  Status
	OrderID string
	Limit   int
}

var (
	// ErrNotFound indicates an unknown return or defect id.
	ErrNotFound = errors.New("return not found")
	// ErrValidation indicates a malformed request.
	ErrValidation = errors.New("return validation failed")
	// ErrInvalidTransition indicates a move outside the triage state machine.
	ErrInvalidTransition = errors.New("invalid return transition")
	// ErrAlreadyDecided guards against double decision and the double credit
	// it would cause.
	ErrAlreadyDecided = errors.New("return already decided")
)
