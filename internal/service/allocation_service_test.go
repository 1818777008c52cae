package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockroom/internal/model"
	"stockroom/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAllocator() (service.AllocationService, *stubProductRepo, *stubWarehouseRepo, *stubOrderRepo, *stubAllocationRepo) {
	productRepo := newStubProductRepo()
	warehouseRepo := newStubWarehouseRepo()
	orderRepo := newStubOrderRepo()
	allocationRepo := newStubAllocationRepo()
	svc := service.NewAllocationService(productRepo, warehouseRepo, orderRepo, allocationRepo)
	return svc, productRepo, warehouseRepo, orderRepo, allocationRepo
}

func TestAllocate_Success(t *testing.T) {
	svc, productRepo, warehouseRepo, orderRepo, allocationRepo := buildAllocator()
	p := seedProduct(productRepo, "Pallet jack", "10.00")
	w := seedWarehouse(warehouseRepo, "Central")
	o := seedOrder(orderRepo, p.ID, 5, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	id, err := svc.Allocate(context.Background(), service.AllocateRequest{
		ProductID:   p.ID,
		WarehouseID: w.ID,
		Amount:      5,
		ArrivedAt:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	stored, err := allocationRepo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, o.ID, stored.OrderID)
	assert.Equal(t, w.ID, stored.WarehouseID)
	assert.Equal(t, p.ID, stored.ProductID)
	assert.Equal(t, 5, stored.Amount)
	// total = unit price at allocation time × amount
	assert.Equal(t, "50.00", stored.Total.StringFixed(2))

	// Order is now terminal
	assert.False(t, o.Pending())
}

func TestAllocate_MatchesOldestOrderFirst(t *testing.T) {
	svc, productRepo, warehouseRepo, orderRepo, allocationRepo := buildAllocator()
	p := seedProduct(productRepo, "Drum 200L", "25.50")
	w := seedWarehouse(warehouseRepo, "North")

	newer := seedOrder(orderRepo, p.ID, 3, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))
	oldest := seedOrder(orderRepo, p.ID, 3, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	middle := seedOrder(orderRepo, p.ID, 3, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))

	id, err := svc.Allocate(context.Background(), service.AllocateRequest{
		ProductID: p.ID, WarehouseID: w.ID, Amount: 3,
		ArrivedAt: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	stored, _ := allocationRepo.FindByID(context.Background(), id)
	assert.Equal(t, oldest.ID, stored.OrderID)
	assert.True(t, newer.Pending())
	assert.True(t, middle.Pending())
}

func TestAllocate_TieBreakByLowestID(t *testing.T) {
	svc, productRepo, warehouseRepo, orderRepo, allocationRepo := buildAllocator()
	p := seedProduct(productRepo, "Crate", "4.00")
	w := seedWarehouse(warehouseRepo, "South")

	sameInstant := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := seedOrder(orderRepo, p.ID, 2, sameInstant)
	seedOrder(orderRepo, p.ID, 2, sameInstant)

	id, err := svc.Allocate(context.Background(), service.AllocateRequest{
		ProductID: p.ID, WarehouseID: w.ID, Amount: 2,
		ArrivedAt: sameInstant.Add(time.Hour),
	})
	require.NoError(t, err)

	stored, _ := allocationRepo.FindByID(context.Background(), id)
	assert.Equal(t, first.ID, stored.OrderID)
}

func TestAllocate_OrderCreatedAtMustPrecedeArrival(t *testing.T) {
	svc, productRepo, warehouseRepo, orderRepo, _ := buildAllocator()
	p := seedProduct(productRepo, "Spool", "7.30")
	w := seedWarehouse(warehouseRepo, "East")

	arrival := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Created exactly at the arrival instant — strictly-before rule excludes it.
	o := seedOrder(orderRepo, p.ID, 4, arrival)

	_, err := svc.Allocate(context.Background(), service.AllocateRequest{
		ProductID: p.ID, WarehouseID: w.ID, Amount: 4, ArrivedAt: arrival,
	})
	assert.ErrorIs(t, err, service.ErrNoMatch)
	assert.True(t, o.Pending())
}

func TestAllocate_NoMatchLeavesStateUntouched(t *testing.T) {
	svc, productRepo, warehouseRepo, orderRepo, allocationRepo := buildAllocator()
	p := seedProduct(productRepo, "Filter", "12.00")
	w := seedWarehouse(warehouseRepo, "West")
	o := seedOrder(orderRepo, p.ID, 5, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	// Amount 99 matches nothing — amounts must be equal, not merely covered.
	_, err := svc.Allocate(context.Background(), service.AllocateRequest{
		ProductID: p.ID, WarehouseID: w.ID, Amount: 99,
		ArrivedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, service.ErrNoMatch)

	assert.True(t, o.Pending())
	allocations, _ := allocationRepo.List(context.Background())
	assert.Empty(t, allocations)
}

func TestAllocate_ProductNotFound(t *testing.T) {
	svc, _, warehouseRepo, _, _ := buildAllocator()
	w := seedWarehouse(warehouseRepo, "Central")

	_, err := svc.Allocate(context.Background(), service.AllocateRequest{
		ProductID: 999, WarehouseID: w.ID, Amount: 1, ArrivedAt: time.Now(),
	})
	var nf *service.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "product", nf.Entity)
	assert.EqualValues(t, 999, nf.ID)
}

func TestAllocate_WarehouseNotFound(t *testing.T) {
	svc, productRepo, _, orderRepo, _ := buildAllocator()
	p := seedProduct(productRepo, "Hose", "3.10")
	seedOrder(orderRepo, p.ID, 2, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	_, err := svc.Allocate(context.Background(), service.AllocateRequest{
		ProductID: p.ID, WarehouseID: 777, Amount: 2, ArrivedAt: time.Now(),
	})
	var nf *service.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "warehouse", nf.Entity)
}

func TestAllocate_SecondArrivalCannotRefulfill(t *testing.T) {
	svc, productRepo, warehouseRepo, orderRepo, allocationRepo := buildAllocator()
	p := seedProduct(productRepo, "Valve", "10.00")
	w := seedWarehouse(warehouseRepo, "Central")
	seedOrder(orderRepo, p.ID, 5, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	req := service.AllocateRequest{
		ProductID: p.ID, WarehouseID: w.ID, Amount: 5,
		ArrivedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}
	_, err := svc.Allocate(context.Background(), req)
	require.NoError(t, err)

	// The only matching order is now fulfilled; the second identical arrival
	// is reported as a repeat, and no extra allocation row appears.
	_, err = svc.Allocate(context.Background(), req)
	assert.ErrorIs(t, err, service.ErrAlreadyFulfilled)

	allocations, _ := allocationRepo.List(context.Background())
	assert.Len(t, allocations, 1)
}

func TestAllocate_GuardRejectsOrderWithExistingAllocation(t *testing.T) {
	svc, productRepo, warehouseRepo, orderRepo, allocationRepo := buildAllocator()
	p := seedProduct(productRepo, "Gasket", "2.00")
	w := seedWarehouse(warehouseRepo, "Central")
	o := seedOrder(orderRepo, p.ID, 6, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	// Simulate an inconsistent store: an allocation row exists but the order
	// was never flagged fulfilled. The guard must still refuse a second linkage.
	require.NoError(t, allocationRepo.CreateTx(nil, &model.Allocation{
		WarehouseID: w.ID,
		ProductID:   p.ID,
		OrderID:     o.ID,
		Amount:      6,
		Total:       decimal.RequireFromString("12.00"),
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}))

	_, err := svc.Allocate(context.Background(), service.AllocateRequest{
		ProductID: p.ID, WarehouseID: w.ID, Amount: 6,
		ArrivedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, service.ErrAlreadyFulfilled)
}

func TestAllocate_InvalidAmount(t *testing.T) {
	svc, productRepo, warehouseRepo, _, _ := buildAllocator()
	p := seedProduct(productRepo, "Strap", "1.50")
	w := seedWarehouse(warehouseRepo, "Central")

	for _, amount := range []int{0, -3} {
		_, err := svc.Allocate(context.Background(), service.AllocateRequest{
			ProductID: p.ID, WarehouseID: w.ID, Amount: amount, ArrivedAt: time.Now(),
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput, "amount=%d", amount)
	}
}

func TestAllocate_ErrorKindsAreDistinguishable(t *testing.T) {
	// The HTTP layer relies on errors.Is / errors.As, never string matching.
	assert.False(t, errors.Is(service.ErrNoMatch, service.ErrAlreadyFulfilled))
	assert.False(t, errors.Is(service.ErrNoMatch, service.ErrInvalidInput))
	assert.False(t, errors.Is(service.ErrAlreadyFulfilled, service.ErrInvalidInput))

	var nf *service.NotFoundError
	assert.False(t, errors.As(service.ErrNoMatch, &nf))

	wrapped := &service.StoreError{Err: errors.New("connection reset")}
	var se *service.StoreError
	assert.True(t, errors.As(wrapped, &se))
	assert.False(t, errors.Is(wrapped, service.ErrNoMatch))
}
