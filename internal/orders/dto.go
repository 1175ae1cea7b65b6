package orders

import "time"

type CreateOrderRequest struct {
	ID           string    `json:"id" validate:"required,max=64"`
	Destination  string    `json:"destination" validate:"required,max=200"`
	Model        string    `json:"model" validate:"required,max=100"`
	Quantity     int64     `json:"quantity" validate:"required,gt=0"`
	OrderDate    time.Time `json:"order_date" validate:"required"`
	DeliveryDate time.Time `json:"delivery_date" validate:"required"`
}

type AmendOrderRequest struct {
	Destination  *string    `json:"destination,omitempty" validate:"omitempty,max=200"`
	OrderDate    *time.Time `json:"order_date,omitempty"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
}

type AdvanceOrderRequest struct {
	// Stage accepts the canonical token or the legacy numeric form.
	Stage string `json:"stage" validate:"required"`
}
