package handler

import (
	"net/http"
	"time"

	"stockroom/internal/apierror"
	"stockroom/internal/dto"
	"stockroom/internal/service"
	"stockroom/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AllocationsHandler exposes the allocation engine under two entry points
// with an identical external contract: the direct transaction path and the
// stored-routine path. Which one a deployment uses is an ops choice, not a
// business one.
type AllocationsHandler struct {
	svc        service.AllocationService
	procSvc    service.Allocator
	dispatcher *worker.Dispatcher
}

func NewAllocationsHandler(svc service.AllocationService, procSvc service.Allocator, dispatcher *worker.Dispatcher) *AllocationsHandler {
	return &AllocationsHandler{svc: svc, procSvc: procSvc, dispatcher: dispatcher}
}

// Allocate handles POST /v1/allocations (direct transaction path).
func (h *AllocationsHandler) Allocate(c *gin.Context) {
	h.allocate(c, h.svc)
}

// AllocateProc handles POST /v1/allocations/procedure (stored-routine path).
func (h *AllocationsHandler) AllocateProc(c *gin.Context) {
	h.allocate(c, h.procSvc)
}

func (h *AllocationsHandler) allocate(c *gin.Context, allocator service.Allocator) {
	var req dto.AllocateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	arrivedAt, ok := parseArrival(req.CreatedAt)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("created_at is not a valid timestamp"))
		return
	}

	allocationID, err := allocator.Allocate(c.Request.Context(), service.AllocateRequest{
		ProductID:   req.ProductID,
		WarehouseID: req.WarehouseID,
		Amount:      req.Amount,
		ArrivedAt:   arrivedAt,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	// Fire the goods-received-note job. Best effort: the allocation is
	// committed regardless of whether the note gets rendered or mailed.
	if h.dispatcher != nil {
		if err := h.dispatcher.EnqueueReceivedNote(c.Request.Context(), worker.ReceivedNotePayload{AllocationID: allocationID}); err != nil {
			log.Warn().Err(err).Int64("allocation_id", allocationID).Msg("failed to enqueue received note")
		}
	}

	c.JSON(http.StatusCreated, dto.AllocateResponse{AllocationID: allocationID})
}

// parseArrival accepts RFC 3339 and the common date-time form without zone.
func parseArrival(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// List handles GET /v1/allocations.
func (h *AllocationsHandler) List(c *gin.Context) {
	allocations, err := h.svc.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	resp := make([]dto.AllocationResponse, len(allocations))
	for i, a := range allocations {
		resp[i] = dto.AllocationResponse{
			ID:          a.ID,
			WarehouseID: a.WarehouseID,
			ProductID:   a.ProductID,
			OrderID:     a.OrderID,
			Amount:      a.Amount,
			Total:       a.Total,
			CreatedAt:   a.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /v1/allocations/:id.
func (h *AllocationsHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	a, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.AllocationResponse{
		ID:          a.ID,
		WarehouseID: a.WarehouseID,
		ProductID:   a.ProductID,
		OrderID:     a.OrderID,
		Amount:      a.Amount,
		Total:       a.Total,
		CreatedAt:   a.CreatedAt,
	})
}
