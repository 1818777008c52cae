package service

import (
	"context"
	"errors"
	"time"

	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AllocateRequest carries a validated stock arrival into the engine.
// ArrivedAt is the shipment's declared timestamp; matching only considers
// orders created strictly before it.
type AllocateRequest struct {
	ProductID   int64
	WarehouseID int64
	Amount      int
	ArrivedAt   time.Time
}

// Allocator links an arriving shipment to the unique open order it satisfies
// and records the linkage exactly once. Two implementations exist — the
// direct transaction coordinator below and the stored-routine adapter — and
// both must enforce identical invariants for any input.
type Allocator interface {
	Allocate(ctx context.Context, req AllocateRequest) (int64, error)
}

// AllocationService is the Allocator plus the read surface for allocations.
type AllocationService interface {
	Allocator
	List(ctx context.Context) ([]model.Allocation, error)
	Get(ctx context.Context, id int64) (*model.Allocation, error)
}

type allocationService struct {
	productRepo    repository.ProductRepository
	warehouseRepo  repository.WarehouseRepository
	orderRepo      repository.OrderRepository
	allocationRepo repository.AllocationRepository
}

func NewAllocationService(
	productRepo repository.ProductRepository,
	warehouseRepo repository.WarehouseRepository,
	orderRepo repository.OrderRepository,
	allocationRepo repository.AllocationRepository,
) AllocationService {
	return &allocationService{
		productRepo:    productRepo,
		warehouseRepo:  warehouseRepo,
		orderRepo:      orderRepo,
		allocationRepo: allocationRepo,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── Allocate ─────────────────────────────────────────────────────────────────
// One atomic transaction:
//   1. revalidate amount (the boundary already checked, revalidated here anyway)
//   2. product exists — price read here for the snapshot
//   3. warehouse exists
//   4. match the oldest pending order, locking its row (FOR UPDATE) so a
//      concurrent allocation against the same order blocks until we commit
//   5. double-fulfillment guard
//   6. mark the order fulfilled and insert the allocation
// Any failure rolls everything back: the order stays pending, no allocation
// row exists. A concurrent caller that lost the race re-evaluates the match
// after the lock releases and observes either the fulfillment flag or the
// existing allocation.

func (s *allocationService) Allocate(ctx context.Context, req AllocateRequest) (int64, error) {
	if req.Amount <= 0 {
		return 0, ErrInvalidInput
	}
	if req.ProductID <= 0 || req.WarehouseID <= 0 {
		return 0, ErrInvalidInput
	}

	var allocationID int64

	txErr := runTx(ctx, s.productRepo.DB(), func(tx *gorm.DB) error {
		product, err := s.productRepo.FindByIDTx(tx, req.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "product", ID: req.ProductID}
		}
		if err != nil {
			return &StoreError{Err: err}
		}

		exists, err := s.warehouseRepo.ExistsTx(tx, req.WarehouseID)
		if err != nil {
			return &StoreError{Err: err}
		}
		if !exists {
			return &NotFoundError{Entity: "warehouse", ID: req.WarehouseID}
		}

		order, err := s.orderRepo.FindOldestPendingMatchTx(tx, req.ProductID, req.Amount, req.ArrivedAt)
		if err != nil {
			return &StoreError{Err: err}
		}
		if order == nil {
			// Distinguish a repeat arrival from one that never had a match:
			// an identical order that is already fulfilled means this
			// shipment was allocated before.
			fulfilled, err := s.orderRepo.ExistsFulfilledMatchTx(tx, req.ProductID, req.Amount, req.ArrivedAt)
			if err != nil {
				return &StoreError{Err: err}
			}
			if fulfilled {
				return ErrAlreadyFulfilled
			}
			return ErrNoMatch
		}

		// Guard against double fulfillment. The row lock above means the
		// fulfillment flag and allocation table are stable until commit.
		fulfilled, err := s.allocationRepo.ExistsForOrderTx(tx, order.ID)
		if err != nil {
			return &StoreError{Err: err}
		}
		if fulfilled || !order.Pending() {
			return ErrAlreadyFulfilled
		}

		now := time.Now()
		total := product.Price.Mul(decimal.NewFromInt(int64(req.Amount)))

		if err := s.orderRepo.MarkFulfilledTx(tx, order.ID, now); err != nil {
			return &StoreError{Err: err}
		}

		allocation := &model.Allocation{
			WarehouseID: req.WarehouseID,
			ProductID:   req.ProductID,
			OrderID:     order.ID,
			Amount:      req.Amount,
			Total:       total,
			CreatedAt:   now,
		}
		if err := s.allocationRepo.CreateTx(tx, allocation); err != nil {
			return &StoreError{Err: err}
		}

		allocationID = allocation.ID
		return nil
	})
	if txErr != nil {
		// A commit failure surfaces here without a taxonomy type — classify it.
		var nf *NotFoundError
		var se *StoreError
		switch {
		case errors.Is(txErr, ErrNoMatch),
			errors.Is(txErr, ErrAlreadyFulfilled),
			errors.Is(txErr, ErrInvalidInput),
			errors.As(txErr, &nf),
			errors.As(txErr, &se):
			return 0, txErr
		default:
			return 0, &StoreError{Err: txErr}
		}
	}
	return allocationID, nil
}

func (s *allocationService) List(ctx context.Context) ([]model.Allocation, error) {
	return s.allocationRepo.List(ctx)
}

func (s *allocationService) Get(ctx context.Context, id int64) (*model.Allocation, error) {
	a, err := s.allocationRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "allocation", ID: id}
	}
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	return a, nil
}
