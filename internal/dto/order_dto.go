package dto

import "time"

type CreateOrderRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Amount    int   `json:"amount"     validate:"required,gt=0"`
	// CreatedAt is optional; defaults to the server clock. Matching compares
	// it against the arrival timestamp, so backdated orders are allowed.
	CreatedAt *time.Time `json:"created_at"`
}

type UpdateOrderRequest struct {
	ProductID *int64 `json:"product_id" validate:"omitempty,gt=0"`
	Amount    *int   `json:"amount"     validate:"omitempty,gt=0"`
}

type OrderResponse struct {
	ID          int64      `json:"id"`
	ProductID   int64      `json:"product_id"`
	Amount      int        `json:"amount"`
	CreatedAt   time.Time  `json:"created_at"`
	FulfilledAt *time.Time `json:"fulfilled_at"`
}
