package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocateRequest is the wire form of a stock arrival. CreatedAt is the
// arrival timestamp as a string so the boundary can report an unparseable
// value as a validation error rather than a JSON decode failure.
type AllocateRequest struct {
	ProductID   int64  `json:"product_id"   validate:"required,gt=0"`
	WarehouseID int64  `json:"warehouse_id" validate:"required,gt=0"`
	Amount      int    `json:"amount"       validate:"required,gt=0"`
	CreatedAt   string `json:"created_at"   validate:"required"`
}

type AllocateResponse struct {
	AllocationID int64 `json:"allocation_id"`
}

type AllocationResponse struct {
	ID          int64           `json:"id"`
	WarehouseID int64           `json:"warehouse_id"`
	ProductID   int64           `json:"product_id"`
	OrderID     int64           `json:"order_id"`
	Amount      int             `json:"amount"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"created_at"`
}
