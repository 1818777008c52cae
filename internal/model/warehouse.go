package model

import "time"

// Warehouse is a physical location receiving stock. It cannot be deleted
// while allocations reference it.
type Warehouse struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"not null"`
	Address   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
