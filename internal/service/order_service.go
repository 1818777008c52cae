package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"gorm.io/gorm"
)

// OrderService is the purchase-order CRUD surface. A fulfilled order is
// terminal: it can no longer be edited or deleted, and nothing here ever
// touches the fulfillment timestamp — only the allocation transaction may
// set it.
type OrderService interface {
	Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error)
	List(ctx context.Context) ([]dto.OrderResponse, error)
	ListPending(ctx context.Context) ([]dto.OrderResponse, error)
	Get(ctx context.Context, id int64) (*dto.OrderResponse, error)
	Update(ctx context.Context, id int64, req dto.UpdateOrderRequest) (*dto.OrderResponse, error)
	Delete(ctx context.Context, id int64) error
}

type orderService struct {
	repo        repository.OrderRepository
	productRepo repository.ProductRepository
}

func NewOrderService(repo repository.OrderRepository, productRepo repository.ProductRepository) OrderService {
	return &orderService{repo: repo, productRepo: productRepo}
}

func (s *orderService) Create(ctx context.Context, req dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "product", ID: req.ProductID}
	} else if err != nil {
		return nil, &StoreError{Err: err}
	}

	createdAt := time.Now()
	if req.CreatedAt != nil {
		createdAt = *req.CreatedAt
	}

	o := &model.Order{
		ProductID: req.ProductID,
		Amount:    req.Amount,
		CreatedAt: createdAt,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		return nil, &StoreError{Err: err}
	}
	return orderToResponse(o), nil
}

func (s *orderService) List(ctx context.Context) ([]dto.OrderResponse, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	return ordersToResponse(orders), nil
}

func (s *orderService) ListPending(ctx context.Context) ([]dto.OrderResponse, error) {
	orders, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	return ordersToResponse(orders), nil
}

func (s *orderService) Get(ctx context.Context, id int64) (*dto.OrderResponse, error) {
	o, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "order", ID: id}
	}
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	return orderToResponse(o), nil
}

func (s *orderService) Update(ctx context.Context, id int64, req dto.UpdateOrderRequest) (*dto.OrderResponse, error) {
	o, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "order", ID: id}
	}
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	if !o.Pending() {
		return nil, fmt.Errorf("%w: order is already fulfilled", ErrGuardViolation)
	}

	if req.ProductID != nil {
		if _, err := s.productRepo.FindByID(ctx, *req.ProductID); errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "product", ID: *req.ProductID}
		} else if err != nil {
			return nil, &StoreError{Err: err}
		}
		o.ProductID = *req.ProductID
	}
	if req.Amount != nil {
		o.Amount = *req.Amount
	}

	if err := s.repo.Update(ctx, o); err != nil {
		return nil, &StoreError{Err: err}
	}
	return orderToResponse(o), nil
}

func (s *orderService) Delete(ctx context.Context, id int64) error {
	o, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: "order", ID: id}
	}
	if err != nil {
		return &StoreError{Err: err}
	}
	if !o.Pending() {
		return fmt.Errorf("%w: order is already fulfilled", ErrGuardViolation)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return &StoreError{Err: err}
	}
	return nil
}

func orderToResponse(o *model.Order) *dto.OrderResponse {
	return &dto.OrderResponse{
		ID:          o.ID,
		ProductID:   o.ProductID,
		Amount:      o.Amount,
		CreatedAt:   o.CreatedAt,
		FulfilledAt: o.FulfilledAt,
	}
}

func ordersToResponse(orders []model.Order) []dto.OrderResponse {
	resp := make([]dto.OrderResponse, len(orders))
	for i := range orders {
		resp[i] = *orderToResponse(&orders[i])
	}
	return resp
}
