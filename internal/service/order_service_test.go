package service_test

import (
	"context"
	"testing"
	"time"

	"stockroom/internal/dto"
	"stockroom/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildOrderSvc() (service.OrderService, *stubOrderRepo, *stubProductRepo) {
	orderRepo := newStubOrderRepo()
	productRepo := newStubProductRepo()
	return service.NewOrderService(orderRepo, productRepo), orderRepo, productRepo
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	svc, _, _ := buildOrderSvc()

	_, err := svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: 42, Amount: 3})
	var nf *service.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "product", nf.Entity)
}

func TestCreateOrder_DefaultsCreatedAtToNow(t *testing.T) {
	svc, _, productRepo := buildOrderSvc()
	p := seedProduct(productRepo, "Pump", "80.00")

	before := time.Now()
	resp, err := svc.Create(context.Background(), dto.CreateOrderRequest{ProductID: p.ID, Amount: 2})
	require.NoError(t, err)
	assert.False(t, resp.CreatedAt.Before(before))
	assert.Nil(t, resp.FulfilledAt)
}

func TestCreateOrder_HonorsExplicitCreatedAt(t *testing.T) {
	svc, _, productRepo := buildOrderSvc()
	p := seedProduct(productRepo, "Pump", "80.00")

	backdated := time.Date(2026, 1, 15, 8, 0, 0, 0, time.UTC)
	resp, err := svc.Create(context.Background(), dto.CreateOrderRequest{
		ProductID: p.ID, Amount: 2, CreatedAt: &backdated,
	})
	require.NoError(t, err)
	assert.True(t, resp.CreatedAt.Equal(backdated))
}

func TestUpdateOrder_RefusedWhenFulfilled(t *testing.T) {
	svc, orderRepo, productRepo := buildOrderSvc()
	p := seedProduct(productRepo, "Pump", "80.00")
	o := seedOrder(orderRepo, p.ID, 2, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	fulfilled := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	o.FulfilledAt = &fulfilled

	newAmount := 7
	_, err := svc.Update(context.Background(), o.ID, dto.UpdateOrderRequest{Amount: &newAmount})
	assert.ErrorIs(t, err, service.ErrGuardViolation)
	assert.Equal(t, 2, o.Amount)
}

func TestDeleteOrder_RefusedWhenFulfilled(t *testing.T) {
	svc, orderRepo, productRepo := buildOrderSvc()
	p := seedProduct(productRepo, "Pump", "80.00")
	o := seedOrder(orderRepo, p.ID, 2, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	fulfilled := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	o.FulfilledAt = &fulfilled

	err := svc.Delete(context.Background(), o.ID)
	assert.ErrorIs(t, err, service.ErrGuardViolation)

	// Still present
	_, err = orderRepo.FindByID(context.Background(), o.ID)
	assert.NoError(t, err)
}

func TestDeleteOrder_PendingIsDeletable(t *testing.T) {
	svc, orderRepo, productRepo := buildOrderSvc()
	p := seedProduct(productRepo, "Pump", "80.00")
	o := seedOrder(orderRepo, p.ID, 2, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, svc.Delete(context.Background(), o.ID))
	_, err := orderRepo.FindByID(context.Background(), o.ID)
	assert.Error(t, err)
}

func TestListPending_ExcludesFulfilled(t *testing.T) {
	svc, orderRepo, productRepo := buildOrderSvc()
	p := seedProduct(productRepo, "Pump", "80.00")

	pending := seedOrder(orderRepo, p.ID, 2, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	done := seedOrder(orderRepo, p.ID, 3, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	at := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	done.FulfilledAt = &at

	list, err := svc.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)
}
