package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// allocationProcService is the stored-routine entry point: the whole
// validate→match→guard→price→commit sequence runs server-side in the
// allocate_arrival PL/pgSQL function (see infra schema patches). This
// adapter only forwards parameters and maps the routine's custom SQLSTATEs
// back to the service error taxonomy, so callers cannot tell the two
// Allocator implementations apart.
type allocationProcService struct {
	db *gorm.DB
}

func NewAllocationProcService(db *gorm.DB) Allocator {
	return &allocationProcService{db: db}
}

// SQLSTATEs raised by allocate_arrival.
const (
	sqlstateInvalidAmount     = "SR400"
	sqlstateProductNotFound   = "SR404"
	sqlstateWarehouseNotFound = "SR405"
	sqlstateNoMatch           = "SR406"
	sqlstateAlreadyFulfilled  = "SR409"
)

func (s *allocationProcService) Allocate(ctx context.Context, req AllocateRequest) (int64, error) {
	// Same defense-in-depth as the coordinator; the routine rechecks anyway.
	if req.Amount <= 0 || req.ProductID <= 0 || req.WarehouseID <= 0 {
		return 0, ErrInvalidInput
	}

	var allocationID int64
	err := s.db.WithContext(ctx).
		Raw("SELECT allocate_arrival(?, ?, ?, ?)",
			req.ProductID, req.WarehouseID, req.Amount, req.ArrivedAt).
		Scan(&allocationID).Error
	if err != nil {
		return 0, s.mapRoutineError(err, req)
	}
	return allocationID, nil
}

func (s *allocationProcService) mapRoutineError(err error, req AllocateRequest) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return &StoreError{Err: err}
	}
	switch pgErr.Code {
	case sqlstateInvalidAmount:
		return ErrInvalidInput
	case sqlstateProductNotFound:
		return &NotFoundError{Entity: "product", ID: req.ProductID}
	case sqlstateWarehouseNotFound:
		return &NotFoundError{Entity: "warehouse", ID: req.WarehouseID}
	case sqlstateNoMatch:
		return ErrNoMatch
	case sqlstateAlreadyFulfilled:
		return ErrAlreadyFulfilled
	default:
		return &StoreError{Err: err}
	}
}
