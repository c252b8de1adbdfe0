package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phantomcommerce/phantom-backend/config"
	"github.com/phantomcommerce/phantom-backend/internal/app/controller"
	"github.com/phantomcommerce/phantom-backend/internal/app/repository"
	"github.com/phantomcommerce/phantom-backend/internal/app/service"
	"github.com/phantomcommerce/phantom-backend/internal/auth"
	"github.com/phantomcommerce/phantom-backend/internal/cache"
	"github.com/phantomcommerce/phantom-backend/internal/catalog"
	"github.com/phantomcommerce/phantom-backend/internal/db"
	"github.com/phantomcommerce/phantom-backend/internal/middleware"
	"github.com/phantomcommerce/phantom-backend/internal/router"
	"github.com/phantomcommerce/phantom-backend/internal/scheduler"
	"github.com/phantomcommerce/phantom-backend/internal/storage"
	ws "github.com/phantomcommerce/phantom-backend/internal/websocket"
	"github.com/phantomcommerce/phantom-backend/pkg/logger"
	"github.com/phantomcommerce/phantom-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting Phantom Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}
	if err := db.Seed(); err != nil {
		logger.Warn("Failed to seed database", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Redis backs the catalog cache, guest carts and the token blacklist.
	// Without it everything falls back to process memory.
	productCache := cache.NewMemoryProductCache(cfg.Catalog.CacheTTL)
	guestCarts := service.NewMemoryGuestCartStore(cfg.Catalog.GuestCartTTL)
	if cfg.Redis.Enabled() {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, using in-memory stores", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			productCache = cache.NewRedisProductCache(redis.GetClient(), cfg.Catalog.CacheTTL)
			guestCarts = service.NewRedisGuestCartStore(redis.GetClient(), cfg.Catalog.GuestCartTTL)
		}
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	images := storage.NewInlineImageStore(cfg.S3.MaxImageBytes)
	var presigner controller.URLPresigner
	if cfg.S3.Enabled() {
		s3 := storage.NewS3Storage(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL)
		images = storage.NewS3ImageStore(s3, cfg.S3.MaxImageBytes)
		presigner = s3
		logger.Info("Images stored in S3", map[string]interface{}{
			"bucket": cfg.S3.Bucket,
			"region": cfg.S3.Region,
		})
	}

	var verifier auth.IdentityVerifier
	if cfg.Firebase.Enabled() {
		fv, err := auth.NewFirebaseVerifier(context.Background(), cfg.Firebase)
		if err != nil {
			logger.Warn("Federated sign-in disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			verifier = fv
		}
	}

	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	cartRepo := repository.NewCartRepository(db.GetDB())

	hub := ws.NewHub()
	go hub.Run()

	authService := service.NewAuthService(
		userRepo,
		images,
		verifier,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	productService := service.NewProductService(productRepo, images, productCache, catalog.NewSorter(cfg.Catalog.Locale))
	searchService := service.NewSearchService(productRepo, productCache)
	cartService := service.NewCartService(cartRepo, productRepo, guestCarts, hub)
	hub.SetSnapshotFunc(cartService.Snapshot)

	catalogScheduler := scheduler.NewCatalogScheduler(searchService, cfg.Catalog.RefreshSchedule)
	if err := catalogScheduler.Start(); err != nil {
		logger.Warn("Catalog refresh schedule not started", map[string]interface{}{
			"schedule": cfg.Catalog.RefreshSchedule,
			"error":    err.Error(),
		})
	}

	r := router.NewRouter(
		controller.NewAuthController(authService, cartService),
		controller.NewProductController(productService),
		controller.NewSearchController(searchService),
		controller.NewCartController(cartService, hub, cfg.CORS.AllowedOrigins),
		controller.NewUploadController(presigner),
		middleware.NewAuthMiddleware(cfg.JWT.Secret),
		cfg,
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": srv.Addr,
			"pid":     os.Getpid(),
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}
	catalogScheduler.Stop()
	hub.Stop()

	logger.Info("Server stopped successfully")
}
