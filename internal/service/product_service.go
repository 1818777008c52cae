package service

import (
	"context"
	"errors"
	"fmt"

	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// PriceCacheKey is the Redis key holding the cached price-check response for
// a product. The public price handler populates it; updates here evict it.
func PriceCacheKey(productID int64) string {
	return fmt.Sprintf("price:%d", productID)
}

// ProductService is the catalog CRUD surface. Deleting a product that orders
// still reference is refused (referential guard).
type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	List(ctx context.Context) ([]dto.ProductResponse, error)
	Get(ctx context.Context, id int64) (*dto.ProductResponse, error)
	Update(ctx context.Context, id int64, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	repo      repository.ProductRepository
	orderRepo repository.OrderRepository
	rdb       *redis.Client
}

func NewProductService(repo repository.ProductRepository, orderRepo repository.OrderRepository, rdb *redis.Client) ProductService {
	return &productService{repo: repo, orderRepo: orderRepo, rdb: rdb}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	p := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, &StoreError{Err: err}
	}
	return productToResponse(p), nil
}

func (s *productService) List(ctx context.Context) ([]dto.ProductResponse, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	resp := make([]dto.ProductResponse, len(products))
	for i := range products {
		resp[i] = *productToResponse(&products[i])
	}
	return resp, nil
}

func (s *productService) Get(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "product", ID: id}
	}
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	return productToResponse(p), nil
}

func (s *productService) Update(ctx context.Context, id int64, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "product", ID: id}
	}
	if err != nil {
		return nil, &StoreError{Err: err}
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Price != nil {
		p.Price = *req.Price
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, &StoreError{Err: err}
	}
	// Price may have changed — evict the cached price check (best effort).
	if s.rdb != nil {
		_ = s.rdb.Del(ctx, PriceCacheKey(id)).Err()
	}
	return productToResponse(p), nil
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Entity: "product", ID: id}
	} else if err != nil {
		return &StoreError{Err: err}
	}

	count, err := s.orderRepo.CountByProductID(ctx, id)
	if err != nil {
		return &StoreError{Err: err}
	}
	if count > 0 {
		return fmt.Errorf("%w: product is referenced by existing orders", ErrGuardViolation)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return &StoreError{Err: err}
	}
	if s.rdb != nil {
		_ = s.rdb.Del(ctx, PriceCacheKey(id)).Err()
	}
	return nil
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
	}
}
