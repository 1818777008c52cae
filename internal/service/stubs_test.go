package service_test

import (
	"context"
	"sort"
	"time"

	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repository stubs. The services open transactions through
// ProductRepository.DB(); when that returns nil the transaction helper calls
// the body with a nil tx, so every Tx-suffixed method here simply ignores it.

// ── stubProductRepo ──────────────────────────────────────────────────────────

type stubProductRepo struct {
	products map[int64]*model.Product
	nextID   int64
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[int64]*model.Product)}
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.nextID++
	p.ID = r.nextID
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id int64) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubProductRepo) List(_ context.Context) ([]model.Product, error) {
	out := make([]model.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) Delete(_ context.Context, id int64) error {
	delete(r.products, id)
	return nil
}

func (r *stubProductRepo) FindByIDTx(_ *gorm.DB, id int64) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// ── stubWarehouseRepo ────────────────────────────────────────────────────────

type stubWarehouseRepo struct {
	warehouses map[int64]*model.Warehouse
	nextID     int64
}

func newStubWarehouseRepo() *stubWarehouseRepo {
	return &stubWarehouseRepo{warehouses: make(map[int64]*model.Warehouse)}
}

func (r *stubWarehouseRepo) Create(_ context.Context, w *model.Warehouse) error {
	r.nextID++
	w.ID = r.nextID
	r.warehouses[w.ID] = w
	return nil
}

func (r *stubWarehouseRepo) FindByID(_ context.Context, id int64) (*model.Warehouse, error) {
	w, ok := r.warehouses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return w, nil
}

func (r *stubWarehouseRepo) List(_ context.Context) ([]model.Warehouse, error) {
	out := make([]model.Warehouse, 0, len(r.warehouses))
	for _, w := range r.warehouses {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubWarehouseRepo) Update(_ context.Context, w *model.Warehouse) error {
	r.warehouses[w.ID] = w
	return nil
}

func (r *stubWarehouseRepo) Delete(_ context.Context, id int64) error {
	delete(r.warehouses, id)
	return nil
}

func (r *stubWarehouseRepo) ExistsTx(_ *gorm.DB, id int64) (bool, error) {
	_, ok := r.warehouses[id]
	return ok, nil
}

var _ repository.WarehouseRepository = (*stubWarehouseRepo)(nil)

// ── stubOrderRepo ────────────────────────────────────────────────────────────

type stubOrderRepo struct {
	orders map[int64]*model.Order
	nextID int64
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[int64]*model.Order)}
}

func (r *stubOrderRepo) Create(_ context.Context, o *model.Order) error {
	r.nextID++
	o.ID = r.nextID
	r.orders[o.ID] = o
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id int64) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return o, nil
}

func (r *stubOrderRepo) List(_ context.Context) ([]model.Order, error) {
	out := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubOrderRepo) ListPending(_ context.Context) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.orders {
		if o.Pending() {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *stubOrderRepo) Update(_ context.Context, o *model.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *stubOrderRepo) Delete(_ context.Context, id int64) error {
	delete(r.orders, id)
	return nil
}

func (r *stubOrderRepo) CountByProductID(_ context.Context, productID int64) (int64, error) {
	var count int64
	for _, o := range r.orders {
		if o.ProductID == productID {
			count++
		}
	}
	return count, nil
}

func (r *stubOrderRepo) FindOldestPendingMatchTx(_ *gorm.DB, productID int64, amount int, before time.Time) (*model.Order, error) {
	var best *model.Order
	for _, o := range r.orders {
		if o.ProductID != productID || o.Amount != amount || !o.Pending() {
			continue
		}
		if !o.CreatedAt.Before(before) {
			continue
		}
		if best == nil ||
			o.CreatedAt.Before(best.CreatedAt) ||
			(o.CreatedAt.Equal(best.CreatedAt) && o.ID < best.ID) {
			best = o
		}
	}
	return best, nil
}

func (r *stubOrderRepo) ExistsFulfilledMatchTx(_ *gorm.DB, productID int64, amount int, before time.Time) (bool, error) {
	for _, o := range r.orders {
		if o.ProductID == productID && o.Amount == amount &&
			o.CreatedAt.Before(before) && !o.Pending() {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubOrderRepo) MarkFulfilledTx(_ *gorm.DB, id int64, at time.Time) error {
	o, ok := r.orders[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t := at
	o.FulfilledAt = &t
	return nil
}

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

// ── stubAllocationRepo ───────────────────────────────────────────────────────

type stubAllocationRepo struct {
	allocations map[int64]*model.Allocation
	nextID      int64
}

func newStubAllocationRepo() *stubAllocationRepo {
	return &stubAllocationRepo{allocations: make(map[int64]*model.Allocation)}
}

func (r *stubAllocationRepo) FindByID(_ context.Context, id int64) (*model.Allocation, error) {
	a, ok := r.allocations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (r *stubAllocationRepo) FindByIDFull(ctx context.Context, id int64) (*model.Allocation, error) {
	return r.FindByID(ctx, id)
}

func (r *stubAllocationRepo) List(_ context.Context) ([]model.Allocation, error) {
	out := make([]model.Allocation, 0, len(r.allocations))
	for _, a := range r.allocations {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubAllocationRepo) CountByWarehouseID(_ context.Context, warehouseID int64) (int64, error) {
	var count int64
	for _, a := range r.allocations {
		if a.WarehouseID == warehouseID {
			count++
		}
	}
	return count, nil
}

func (r *stubAllocationRepo) ExistsForOrderTx(_ *gorm.DB, orderID int64) (bool, error) {
	for _, a := range r.allocations {
		if a.OrderID == orderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubAllocationRepo) CreateTx(_ *gorm.DB, a *model.Allocation) error {
	r.nextID++
	a.ID = r.nextID
	r.allocations[a.ID] = a
	return nil
}

var _ repository.AllocationRepository = (*stubAllocationRepo)(nil)

// ── stubUserRepo ─────────────────────────────────────────────────────────────

type stubUserRepo struct {
	users map[string]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*model.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.Username] = u
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	u, ok := r.users[username]
	if !ok || !u.Active {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

// ── Seed helpers ─────────────────────────────────────────────────────────────

func seedProduct(r *stubProductRepo, name string, price string) *model.Product {
	p := &model.Product{Name: name, Price: decimal.RequireFromString(price)}
	_ = r.Create(context.Background(), p)
	return p
}

func seedWarehouse(r *stubWarehouseRepo, name string) *model.Warehouse {
	w := &model.Warehouse{Name: name}
	_ = r.Create(context.Background(), w)
	return w
}

func seedOrder(r *stubOrderRepo, productID int64, amount int, createdAt time.Time) *model.Order {
	o := &model.Order{ProductID: productID, Amount: amount, CreatedAt: createdAt}
	_ = r.Create(context.Background(), o)
	return o
}
