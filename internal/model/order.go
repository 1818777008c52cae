package model

import "time"

// Order is a purchase order for a fixed amount of one product.
// FulfilledAt == nil means pending and eligible for matching; once set the
// order is terminal — only the allocation transaction may set it, exactly once.
type Order struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	ProductID   int64 `gorm:"not null;index:idx_orders_match"`
	Amount      int   `gorm:"not null;index:idx_orders_match"`
	CreatedAt   time.Time `gorm:"not null"`
	FulfilledAt *time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// Pending reports whether the order is still eligible for matching.
func (o *Order) Pending() bool { return o.FulfilledAt == nil }
