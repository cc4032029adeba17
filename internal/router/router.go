package router

import (
	"time"

	"stockyard/internal/audit"
	"stockyard/internal/cache"
	"stockyard/internal/config"
	"stockyard/internal/handler"
	"stockyard/internal/infra"
	"stockyard/internal/middleware"
	"stockyard/internal/mirror"
	"stockyard/internal/repository"
	"stockyard/internal/service"
	"stockyard/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mirrorCB *infra.CircuitBreaker, dispatcher *worker.Dispatcher) *gin.Engine {
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

	// ── Infrastructure ───────────────────────────────────────────────────────
	docStore := mirror.NewRedisStore(rdb)
	listCache := cache.NewProductCache(rdb)
	auditSink := audit.NewDBSink(db)

	// ── Repositories ─────────────────────────────────────────────────────────
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	transferRepo := repository.NewTransferRepository(db)
	storeRepo := repository.NewStoreRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	alertSvc := service.NewAlertService(docStore, productRepo, cfg.ExpiryWindowDays)

	effects := &service.SideEffects{
		Dispatcher: dispatcher,
		Audit:      auditSink,
		Alerts:     alertSvc,
		Cache:      listCache,
	}

	productSvc := service.NewProductService(productRepo, docStore, mirrorCB, listCache, effects)
	inventorySvc := service.NewInventoryService(productRepo, movementRepo, storeRepo, effects)
	transferSvc := service.NewTransferService(transferRepo, productRepo, movementRepo, storeRepo, effects)

	// ── Handlers ─────────────────────────────────────────────────────────────
	productsH := handler.NewProductsHandler(productSvc)
	inventoryH := handler.NewInventoryHandler(inventorySvc)
	transfersH := handler.NewTransfersHandler(transferSvc)
	alertsH := handler.NewAlertsHandler(alertSvc)
	storesH := handler.NewStoresHandler(storeRepo)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, mirrorCB))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: staff, manager, admin — declared per-endpoint
		v1.GET("/products", middleware.RequireRole("staff", "manager", "admin"), productsH.List)
		v1.GET("/products/:id", middleware.RequireRole("staff", "manager", "admin"), productsH.Get)
		v1.GET("/barcode/:barcode", middleware.RequireRole("staff", "manager", "admin"), productsH.GetByBarcode)
		v1.GET("/products/:id/movements", middleware.RequireRole("staff", "manager", "admin"), inventoryH.ListProductMovements)
		// Stock mutations — manager or admin
		v1.PATCH("/products/:id/stock", middleware.RequireRole("manager", "admin"), inventoryH.AdjustStock)
		v1.POST("/products/:id/assign", middleware.RequireRole("manager", "admin"), inventoryH.AssignToStore)
		// Catalog writes — admin only
		prods := v1.Group("/products", middleware.RequireRole("admin"))
		{
			prods.POST("", productsH.Create)
			prods.DELETE("/:id", productsH.Delete)
			prods.POST("/batch-delete", productsH.BatchDelete)
		}

		transfers := v1.Group("/transfers", middleware.RequireRole("manager", "admin"))
		{
			transfers.POST("", transfersH.Initiate)
			transfers.GET("", transfersH.List)
			transfers.GET("/:id", transfersH.Get)
			transfers.POST("/:id/confirm", transfersH.Confirm)
			transfers.POST("/:id/cancel", transfersH.Cancel)
		}

		v1.GET("/alerts", middleware.RequireRole("staff", "manager", "admin"), alertsH.List)
		v1.POST("/alerts/:id/resolve", middleware.RequireRole("manager", "admin"), alertsH.Resolve)

		v1.GET("/movements", middleware.RequireRole("staff", "manager", "admin"), inventoryH.ListMovements)
		v1.GET("/stores", middleware.RequireRole("staff", "manager", "admin"), storesH.List)
	}

	return r
}
