package returns

import "time"

// CreateReturnRequest is the intake payload.
type CreateReturnRequest struct {
	OrderID     string     `json:"orderId" validate:"required"`
	Category    Category   `json:"category" validate:"required,oneof=FUNCTIONAL NON_FUNCTIONAL"`
	ReturnDate  *time.Time `json:"returnDate,omitempty"`
	Description string     `json:"description,omitempty" validate:"max=500"`
}

// DecideReturnRequest is the triage decision payload.
type DecideReturnRequest struct {
	Decision Status `json:"decision" validate:"required,oneof=ACCEPTED REJECTED"`
	Remarks  string `json:"remarks,omitempty" validate:"max=500"`
}

// UpdateDefectRequest carries defect register edits.
type UpdateDefectRequest struct {
	Severity       *string `json:"severity,omitempty" validate:"omitempty,max=50"`
	WarrantyStatus *string `json:"warrantyStatus,omitempty" validate:"omitempty,max=50"`
	RepairStatus   *string `json:"repairStatus,omitempty" validate:"omitempty,max=50"`
}
