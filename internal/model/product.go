package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a purchasable catalog item. Price is the current unit price;
// allocations copy it at allocation time (historical snapshot), they never
// reference it.
type Product struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"index;not null"`
	Description *string
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
