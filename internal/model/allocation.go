package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Allocation links an arriving shipment to the order it fulfilled.
// Immutable after creation; it is the single source of truth that an order
// has been fulfilled. The unique index on OrderID enforces one allocation
// per order at the storage level, in addition to the in-transaction guard.
type Allocation struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	WarehouseID int64 `gorm:"not null;index"`
	ProductID   int64 `gorm:"not null;index"`
	OrderID     int64 `gorm:"not null;uniqueIndex"`
	Amount      int   `gorm:"not null"`
	// Total is product.Price × Amount captured at allocation time.
	Total     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time

	Warehouse *Warehouse `gorm:"foreignKey:WarehouseID"`
	Product   *Product   `gorm:"foreignKey:ProductID"`
	Order     *Order     `gorm:"foreignKey:OrderID"`
}
