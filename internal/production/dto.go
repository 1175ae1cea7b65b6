package production

// CreateInwardRequest is the payload for registering a produced batch.
type CreateInwardRequest struct {
	PartName   string `json:"partName" validate:"required"`
	Qty        int64  `json:"qty" validate:"required,gt=0"`
	AssignedTo int64  `json:"assignedTo" validate:"required,gt=0"`
}
