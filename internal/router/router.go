package router

import (
	"time"

	"stockroom/internal/config"
	"stockroom/internal/handler"
	"stockroom/internal/infra"
	"stockroom/internal/middleware"
	"stockroom/internal/repository"
	"stockroom/internal/service"
	"stockroom/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher, smtpCB *infra.CircuitBreaker) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	allocationRepo := repository.NewAllocationRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	productSvc := service.NewProductService(productRepo, orderRepo, rdb)
	warehouseSvc := service.NewWarehouseService(warehouseRepo, allocationRepo)
	orderSvc := service.NewOrderService(orderRepo, productRepo)

	// The allocation engine, twice: the direct transaction coordinator and
	// the stored-routine adapter. Same invariants, two transports.
	allocationSvc := service.NewAllocationService(productRepo, warehouseRepo, orderRepo, allocationRepo)
	allocationProcSvc := service.NewAllocationProcService(db)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productsH := handler.NewProductsHandler(productSvc)
	warehousesH := handler.NewWarehousesHandler(warehouseSvc)
	ordersH := handler.NewOrdersHandler(orderSvc)
	allocationsH := handler.NewAllocationsHandler(allocationSvc, allocationProcSvc, dispatcher)
	pricesH := handler.NewPricesHandler(productRepo, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, smtpCB))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price check — no auth required
	r.GET("/v1/prices/:id", pricesH.GetPrice)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: operator, admin — declared per-endpoint
		anyRole := middleware.RequireRole("operator", "admin")
		adminOnly := middleware.RequireRole("admin")

		// Allocation engine — operators post arrivals as they land on the dock
		v1.POST("/allocations", anyRole, allocationsH.Allocate)
		v1.POST("/allocations/procedure", anyRole, allocationsH.AllocateProc)
		v1.GET("/allocations", anyRole, allocationsH.List)
		v1.GET("/allocations/:id", anyRole, allocationsH.Get)

		// Catalog
		v1.GET("/products", anyRole, productsH.List)
		v1.GET("/products/:id", anyRole, productsH.Get)
		products := v1.Group("/products", adminOnly)
		{
			products.POST("", productsH.Create)
			products.PUT("/:id", productsH.Update)
			products.DELETE("/:id", productsH.Delete)
		}

		// Warehouses
		v1.GET("/warehouses", anyRole, warehousesH.List)
		v1.GET("/warehouses/:id", anyRole, warehousesH.Get)
		warehouses := v1.Group("/warehouses", adminOnly)
		{
			warehouses.POST("", warehousesH.Create)
			warehouses.PUT("/:id", warehousesH.Update)
			warehouses.DELETE("/:id", warehousesH.Delete)
		}

		// Purchase orders
		v1.GET("/orders", anyRole, ordersH.List)
		v1.GET("/orders/pending", anyRole, ordersH.ListPending)
		v1.GET("/orders/:id", anyRole, ordersH.Get)
		orders := v1.Group("/orders", adminOnly)
		{
			orders.POST("", ordersH.Create)
			orders.PUT("/:id", ordersH.Update)
			orders.DELETE("/:id", ordersH.Delete)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
