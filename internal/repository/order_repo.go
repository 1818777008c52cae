package repository

import (
	"context"
	"errors"
	"time"

	"stockroom/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository defines the data access contract for purchase orders.
type OrderRepository interface {
	Create(ctx context.Context, o *model.Order) error
	FindByID(ctx context.Context, id int64) (*model.Order, error)
	List(ctx context.Context) ([]model.Order, error)
	ListPending(ctx context.Context) ([]model.Order, error)
	Update(ctx context.Context, o *model.Order) error
	Delete(ctx context.Context, id int64) error
	CountByProductID(ctx context.Context, productID int64) (int64, error)

	// Matcher + fulfillment primitives used inside the allocation transaction.
	// FindOldestPendingMatchTx locks the selected row (SELECT … FOR UPDATE)
	// so concurrent allocations against the same order serialize. Tie-break:
	// oldest created_at, then lowest id. A nil order with nil error means
	// no candidate — a normal outcome, not a fault.
	FindOldestPendingMatchTx(tx *gorm.DB, productID int64, amount int, before time.Time) (*model.Order, error)
	// ExistsFulfilledMatchTx reports whether an order matching the same rule
	// exists but has already been fulfilled, so the coordinator can tell a
	// repeat arrival apart from an arrival that never had a match.
	ExistsFulfilledMatchTx(tx *gorm.DB, productID int64, amount int, before time.Time) (bool, error)
	MarkFulfilledTx(tx *gorm.DB, id int64, at time.Time) error
}

type orderRepo struct{ db *gorm.DB }

func NewOrderRepository(db *gorm.DB) OrderRepository { return &orderRepo{db: db} }

func (r *orderRepo) Create(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *orderRepo) FindByID(ctx context.Context, id int64) (*model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) List(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).Order("id ASC").Find(&orders).Error
	return orders, err
}

func (r *orderRepo) ListPending(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where("fulfilled_at IS NULL").
		Order("created_at ASC, id ASC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) Update(ctx context.Context, o *model.Order) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *orderRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Order{}, id).Error
}

func (r *orderRepo) CountByProductID(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

func (r *orderRepo) FindOldestPendingMatchTx(tx *gorm.DB, productID int64, amount int, before time.Time) (*model.Order, error) {
	var o model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("product_id = ? AND amount = ? AND created_at < ? AND fulfilled_at IS NULL",
			productID, amount, before).
		Order("created_at ASC, id ASC").
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) ExistsFulfilledMatchTx(tx *gorm.DB, productID int64, amount int, before time.Time) (bool, error) {
	var count int64
	err := tx.Model(&model.Order{}).
		Where("product_id = ? AND amount = ? AND created_at < ? AND fulfilled_at IS NOT NULL",
			productID, amount, before).
		Count(&count).Error
	return count > 0, err
}

func (r *orderRepo) MarkFulfilledTx(tx *gorm.DB, id int64, at time.Time) error {
	return tx.Model(&model.Order{}).Where("id = ?", id).
		Update("fulfilled_at", at).Error
}
