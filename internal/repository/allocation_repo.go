package repository

import (
	"context"

	"stockroom/internal/model"

	"gorm.io/gorm"
)

// AllocationRepository defines the data access contract for allocations.
// Allocations are immutable — no update or delete methods.
type AllocationRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Allocation, error)
	FindByIDFull(ctx context.Context, id int64) (*model.Allocation, error)
	List(ctx context.Context) ([]model.Allocation, error)
	CountByWarehouseID(ctx context.Context, warehouseID int64) (int64, error)

	// Double-fulfillment guard + insert, both inside the allocation transaction.
	ExistsForOrderTx(tx *gorm.DB, orderID int64) (bool, error)
	CreateTx(tx *gorm.DB, a *model.Allocation) error
}

type allocationRepo struct{ db *gorm.DB }

func NewAllocationRepository(db *gorm.DB) AllocationRepository { return &allocationRepo{db: db} }

func (r *allocationRepo) FindByID(ctx context.Context, id int64) (*model.Allocation, error) {
	var a model.Allocation
	err := r.db.WithContext(ctx).First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByIDFull preloads warehouse and product for the received-note renderer.
func (r *allocationRepo) FindByIDFull(ctx context.Context, id int64) (*model.Allocation, error) {
	var a model.Allocation
	err := r.db.WithContext(ctx).
		Preload("Warehouse").Preload("Product").
		First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *allocationRepo) List(ctx context.Context) ([]model.Allocation, error) {
	var allocations []model.Allocation
	err := r.db.WithContext(ctx).Order("id ASC").Find(&allocations).Error
	return allocations, err
}

func (r *allocationRepo) CountByWarehouseID(ctx context.Context, warehouseID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Allocation{}).
		Where("warehouse_id = ?", warehouseID).Count(&count).Error
	return count, err
}

func (r *allocationRepo) ExistsForOrderTx(tx *gorm.DB, orderID int64) (bool, error) {
	var count int64
	err := tx.Model(&model.Allocation{}).Where("order_id = ?", orderID).Count(&count).Error
	return count > 0, err
}

func (r *allocationRepo) CreateTx(tx *gorm.DB, a *model.Allocation) error {
	return tx.Create(a).Error
}
