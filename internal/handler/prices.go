package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"stockroom/internal/apierror"
	"stockroom/internal/dto"
	"stockroom/internal/repository"
	"stockroom/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const priceCacheTTL = 4 * time.Hour

// PricesHandler serves the public price check endpoint.
// No authentication required — no side effects whatsoever.
type PricesHandler struct {
	repo repository.ProductRepository
	rdb  *redis.Client
}

func NewPricesHandler(repo repository.ProductRepository, rdb *redis.Client) *PricesHandler {
	return &PricesHandler{repo: repo, rdb: rdb}
}

// GetPrice returns the current unit price for a product.
// Note this is the live catalog price — allocations carry their own snapshot.
func (h *PricesHandler) GetPrice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cacheKey := service.PriceCacheKey(id)

	// 1. Try Redis cache
	if cached, err := h.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var resp dto.PriceCheckResponse
		if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	// 2. Cache miss — query DB
	product, err := h.repo.FindByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("product not found"))
		return
	}

	resp := dto.PriceCheckResponse{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
	}

	// 3. Populate cache — best effort, ignore errors
	if b, jsonErr := json.Marshal(resp); jsonErr == nil {
		_ = h.rdb.Set(context.Background(), cacheKey, b, priceCacheTTL).Err()
	}

	c.JSON(http.StatusOK, resp)
}
