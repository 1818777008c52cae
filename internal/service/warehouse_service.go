package service

import (
	"context"
	"errors"
	"fmt"

	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"gorm.io/gorm"
)

// WarehouseService is the warehouse CRUD surface. A warehouse holding
// allocations cannot be deleted.
type WarehouseService interface {
	Create(ctx context.Context, req dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error)
	List(ctx context.Context) ([]dto.WarehouseResponse, error)
	Get(ctx context.Context, id int64) (*dto.WarehouseResponse, error)
	Update(ctx context.Context, id int64, req dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error)
	Delete(ctx context.Context, id int64) error
}

type warehouseService struct {
	repo           repository.WarehouseRepository
	allocationRepo repository.AllocationRepository
}

func NewWarehouseService(repo repository.WarehouseRepository, allocationRepo repository.AllocationRepository) WarehouseService {
	return &warehouseService{repo: repo, allocationRepo: allocationRepo}
}

func (s *warehouseService) Create(ctx context.Context, req dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	w := &model.Warehouse{
		Name:    req.Name,
		Address: req.Address,
	}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, &StoreError{Err: err}
	}
	return warehouseToResponse(w), nil
}

func (s *warehouseService) List(ctx context.Context) ([]dto.WarehouseResponse, error) {
	warehouses, err := s.repo.List(ctx)
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	resp := make([]dto.WarehouseResponse, len(warehouses))
	for i := range warehouses {
		resp[i] = *warehouseToResponse(&warehouses[i])
	}
	return resp, nil
}

func (s *warehouseService) Get(ctx context.Context, id int64) (*dto.WarehouseResponse, error) {
	w, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "warehouse", ID: id}
	}
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	return warehouseToResponse(w), nil
}

func (s *warehouseService) Update(ctx context.Context, id int64, req dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	w, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "warehouse", ID: id}
	}
	if err != nil {
		return nil, &StoreError{Err: err}
	}

	if req.Name != nil {
		w.Name = *req.Name
	}
	if req.Address != nil {
		w.Address = req.Address
	}

	if err := s.repo.Update(ctx, w); err != nil {
		return nil, &StoreError{Err: err}
	}
	return warehouseToResponse(w), nil
}

func (s *warehouseService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: "warehouse", ID: id}
	} else if err != nil {
		return &StoreError{Err: err}
	}

	count, err := s.allocationRepo.CountByWarehouseID(ctx, id)
	if err != nil {
		return &StoreError{Err: err}
	}
	if count > 0 {
		return fmt.Errorf("%w: warehouse holds allocations", ErrGuardViolation)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return &StoreError{Err: err}
	}
	return nil
}

func warehouseToResponse(w *model.Warehouse) *dto.WarehouseResponse {
	return &dto.WarehouseResponse{
		ID:      w.ID,
		Name:    w.Name,
		Address: w.Address,
	}
}
