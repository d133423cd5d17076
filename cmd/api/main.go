package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"freshmart-backend/config"
	"freshmart-backend/internal/delivery/http/middleware"
	v1 "freshmart-backend/internal/delivery/http/v1"
	"freshmart-backend/internal/infrastructure/cache"
	"freshmart-backend/internal/infrastructure/payos"
	"freshmart-backend/internal/repository/postgres"
	"freshmart-backend/internal/usecase"
	"freshmart-backend/internal/worker"
	"freshmart-backend/internal/ws"
	"freshmart-backend/pkg/logger"
	"freshmart-backend/pkg/storage"
	"freshmart-backend/pkg/utils"

	"github.com/NYTimes/gziphandler"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	pgxPool, err := postgres.NewPgxPool(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Msg("Connected to PostgreSQL")

	// Repositories
	orderRepo := postgres.NewOrderRepository(pgxPool)
	productRepo := postgres.NewProductRepository(pgxPool)
	promotionRepo := postgres.NewPromotionRepository(pgxPool)
	warehouseRepo := postgres.NewWarehouseRepository(pgxPool)
	inventoryRepo := postgres.NewInventoryRepository(pgxPool)
	bannerRepo := postgres.NewBannerRepository(pgxPool)
	txManager := postgres.NewTransactionManager(pgxPool)

	// In-memory cache: default expiration 30m, cleanup every 60m
	memCache := cache.NewMemoryCache(30*time.Minute, 60*time.Minute)

	// Admin order feed
	hub := ws.NewHub()
	go hub.Run()

	// Payment provider
	gateway := payos.NewClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey, cfg.PaymentChecksumKey, cfg.FrontendURL)

	shippingFee, err := decimal.NewFromString(cfg.ShippingFee)
	if err != nil {
		log.Fatal().Err(err).Str("value", cfg.ShippingFee).Msg("Invalid SHIPPING_FEE")
	}

	mux := http.NewServeMux()

	// --- Modules ---

	orderUC := usecase.NewOrderUsecase(orderRepo, productRepo, promotionRepo, inventoryRepo,
		txManager, hub, cfg.DefaultWarehouseID, shippingFee)
	paymentUC := usecase.NewPaymentUsecase(gateway, orderUC, memCache, cfg.PaymentLinkTTL)
	flows := worker.NewFlowManager(paymentUC, orderUC, gateway, cfg.PaymentPollEvery, cfg.PaymentCountdown)

	orderHandler := v1.NewOrderHandler(orderUC, paymentUC, cfg.MaxCartQuantity)
	adminOrderHandler := v1.NewAdminOrderHandler(orderUC)
	paymentHandler := v1.NewPaymentHandler(paymentUC, flows)

	catalogUC := usecase.NewCatalogUsecase(productRepo, memCache, cfg)
	catalogHandler := v1.NewCatalogHandler(catalogUC)
	adminCatalogHandler := v1.NewAdminCatalogHandler(catalogUC)

	promotionUC := usecase.NewPromotionUsecase(promotionRepo)
	promotionHandler := v1.NewPromotionHandler(promotionUC)
	adminPromotionHandler := v1.NewAdminPromotionHandler(promotionUC)

	inventoryUC := usecase.NewInventoryUsecase(warehouseRepo, inventoryRepo, txManager)
	inventoryHandler := v1.NewInventoryHandler(inventoryUC)

	bannerUC := usecase.NewBannerUsecase(bannerRepo, memCache, cfg.CacheCatalogTTL)
	bannerHandler := v1.NewBannerHandler(bannerUC)

	statsUC := usecase.NewStatsUsecase(pgxPool, memCache)
	adminStatsHandler := v1.NewAdminStatsHandler(statsUC)

	configHandler := v1.NewConfigHandler(memCache, cfg.CacheEnumTTL)

	objectStorage, err := storage.NewObjectStorage(
		context.Background(),
		cfg.S3AccountID,
		cfg.S3AccessKeyID,
		cfg.S3AccessKeySecret,
		cfg.S3BucketName,
		cfg.S3PublicURL,
		cfg.S3UploadTimeout,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}
	uploadHandler := v1.NewUploadHandler(objectStorage, cfg.MaxUploadSizeMB)

	// Background settlement of abandoned online payments
	reconciler := worker.NewReconciler(orderRepo, orderUC, paymentUC, gateway,
		cfg.ReconcileEvery, cfg.ReconcileAfter)
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go reconciler.Run(workerCtx)

	// --- Routes ---

	adminOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(middleware.AdminMiddleware(h))
	}
	authOnly := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(h)
	}

	// Config (Public)
	mux.HandleFunc("GET /api/v1/config/enums", configHandler.GetEnums)

	// Catalog (Public)
	mux.HandleFunc("GET /api/v1/products", catalogHandler.ListProducts)
	mux.HandleFunc("GET /api/v1/products/{id}", catalogHandler.GetProduct)
	mux.HandleFunc("GET /api/v1/categories", catalogHandler.GetCategories)

	// Banners (Public)
	mux.HandleFunc("GET /api/v1/banners", bannerHandler.GetActive)
	mux.HandleFunc("POST /api/v1/banners/{id}/track", bannerHandler.Track)

	// Promotions (Public)
	mux.HandleFunc("POST /api/v1/promotions/apply", promotionHandler.Apply)

	// Cart
	mux.Handle("GET /api/v1/cart", authOnly(orderHandler.GetCart))
	mux.Handle("POST /api/v1/cart", authOnly(orderHandler.AddToCart))
	mux.Handle("PUT /api/v1/cart", authOnly(orderHandler.UpdateCartItem))
	mux.Handle("DELETE /api/v1/cart/{productId}", authOnly(orderHandler.RemoveFromCart))

	// Orders
	mux.Handle("POST /api/v1/orders/create", authOnly(orderHandler.CreateOrder))
	mux.Handle("GET /api/v1/orders/my-orders", authOnly(orderHandler.GetMyOrders))
	mux.Handle("GET /api/v1/orders/{id}", authOnly(orderHandler.GetMyOrder))
	mux.Handle("PATCH /api/v1/orders/{id}/cancel", authOnly(orderHandler.CancelOrder))

	// Payments
	mux.Handle("POST /api/v1/payments", authOnly(paymentHandler.StartPayment))
	mux.Handle("GET /api/v1/payments/flow/{orderId}", authOnly(paymentHandler.GetFlow))
	mux.Handle("GET /api/v1/payments/status/{orderCode}", authOnly(paymentHandler.GetStatus))
	mux.Handle("PATCH /api/v1/payments/cancel/{orderId}", authOnly(paymentHandler.CancelPayment))

	// Uploads
	mux.Handle("POST /api/v1/upload", adminOnly(uploadHandler.UploadFile))
	mux.Handle("DELETE /api/v1/upload", adminOnly(uploadHandler.DeleteFile))

	// Admin Orders
	mux.Handle("GET /api/v1/admin/orders", adminOnly(adminOrderHandler.ListOrders))
	mux.Handle("GET /api/v1/admin/orders/export", adminOnly(adminOrderHandler.ExportCSV))
	mux.Handle("GET /api/v1/admin/orders/{id}", adminOnly(adminOrderHandler.GetOrder))
	mux.Handle("GET /api/v1/admin/orders/{id}/history", adminOnly(adminOrderHandler.GetHistory))
	mux.Handle("PATCH /api/v1/orders/{id}/status/{status}", adminOnly(adminOrderHandler.UpdateStatus))

	// Admin Catalog
	mux.Handle("GET /api/v1/admin/products", adminOnly(adminCatalogHandler.ListProducts))
	mux.Handle("POST /api/v1/admin/products", adminOnly(adminCatalogHandler.CreateProduct))
	mux.Handle("PUT /api/v1/admin/products/{id}", adminOnly(adminCatalogHandler.UpdateProduct))
	mux.Handle("DELETE /api/v1/admin/products/{id}", adminOnly(adminCatalogHandler.DeleteProduct))

	// Admin Promotions
	mux.Handle("GET /api/v1/admin/promotions", adminOnly(adminPromotionHandler.List))
	mux.Handle("GET /api/v1/admin/promotions/{id}", adminOnly(adminPromotionHandler.Get))
	mux.Handle("POST /api/v1/admin/promotions", adminOnly(adminPromotionHandler.Create))
	mux.Handle("PUT /api/v1/admin/promotions/{id}", adminOnly(adminPromotionHandler.Update))
	mux.Handle("DELETE /api/v1/admin/promotions/{id}", adminOnly(adminPromotionHandler.Delete))

	// Admin Warehouses & Inventory
	mux.Handle("GET /api/v1/warehouses", adminOnly(inventoryHandler.ListWarehouses))
	mux.Handle("POST /api/v1/warehouses", adminOnly(inventoryHandler.CreateWarehouse))
	mux.Handle("GET /api/v1/warehouses/{id}", adminOnly(inventoryHandler.GetWarehouse))
	mux.Handle("PATCH /api/v1/warehouses/{id}", adminOnly(inventoryHandler.UpdateWarehouse))
	mux.Handle("DELETE /api/v1/warehouses/{id}", adminOnly(inventoryHandler.DeleteWarehouse))
	mux.Handle("GET /api/v1/warehouses/{id}/stock", adminOnly(inventoryHandler.ListStock))
	mux.Handle("GET /api/v1/inventory/stock", adminOnly(inventoryHandler.ListStock))
	mux.Handle("POST /api/v1/inventory/receipts", adminOnly(inventoryHandler.PostReceipt))
	mux.Handle("GET /api/v1/inventory/receipts", adminOnly(inventoryHandler.ListReceipts))
	mux.Handle("POST /api/v1/inventory/issues", adminOnly(inventoryHandler.PostIssue))
	mux.Handle("GET /api/v1/inventory/issues", adminOnly(inventoryHandler.ListIssues))
	mux.Handle("GET /api/v1/inventory/ledger", adminOnly(inventoryHandler.ListLedger))

	// Admin Banners
	mux.Handle("GET /api/v1/admin/banners", adminOnly(bannerHandler.AdminList))
	mux.Handle("POST /api/v1/admin/banners", adminOnly(bannerHandler.AdminCreate))
	mux.Handle("PUT /api/v1/admin/banners/{id}", adminOnly(bannerHandler.AdminUpdate))
	mux.Handle("DELETE /api/v1/admin/banners/{id}", adminOnly(bannerHandler.AdminDelete))

	// Admin Stats
	mux.Handle("GET /api/v1/admin/stats/kpis", adminOnly(adminStatsHandler.GetKPIs))
	mux.Handle("GET /api/v1/admin/stats/revenue", adminOnly(adminStatsHandler.GetDailyRevenue))
	mux.Handle("GET /api/v1/admin/stats/low-stock", adminOnly(adminStatsHandler.GetLowStock))

	// Admin live order feed
	mux.HandleFunc("GET /ws/admin/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler)

	// 50 req/s, burst 100, cleanup every minute, TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(context.Background(), 50, 100, time.Minute, 3*time.Minute)

	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()
	log.Info().Msgf("Server starting on %s", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	stopWorkers()
	flows.Shutdown()
	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	pgxPool.Close()
	log.Info().Msg("Server exited properly")
}
