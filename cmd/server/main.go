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

	"github.com/fuboru/panel-backend/config"
	"github.com/fuboru/panel-backend/internal/app/controller"
	"github.com/fuboru/panel-backend/internal/app/repository"
	"github.com/fuboru/panel-backend/internal/app/service"
	"github.com/fuboru/panel-backend/internal/db"
	"github.com/fuboru/panel-backend/internal/middleware"
	"github.com/fuboru/panel-backend/internal/router"
	"github.com/fuboru/panel-backend/internal/scheduler"
	"github.com/fuboru/panel-backend/internal/session"
	"github.com/fuboru/panel-backend/internal/storage"
	ws "github.com/fuboru/panel-backend/internal/websocket"
	"github.com/fuboru/panel-backend/pkg/logger"
	"github.com/fuboru/panel-backend/pkg/metrics"
	redisclient "github.com/fuboru/panel-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
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

	logger.Info("Starting panel backend", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
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
	if err := db.Seed(&cfg.Auth); err != nil {
		logger.Warn("Failed to bootstrap admin user", map[string]interface{}{
			"error": err.Error(),
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Object storage
	var store storage.ObjectStorage
	switch cfg.Storage.Driver {
	case "memory":
		logger.Warn("Using in-memory object storage; images are lost on restart")
		store = storage.NewMemoryStorage()
	default:
		store = storage.NewS3Storage(
			cfg.Storage.Region,
			cfg.Storage.AccessKeyID,
			cfg.Storage.SecretAccessKey,
			cfg.Storage.BaseURL,
		)
	}

	// Session revocation and auth events
	var (
		revoker session.Revoker
		bus     session.Bus
	)
	if cfg.Redis.Enabled {
		if err := redisclient.Init(&cfg.Redis); err != nil {
			logger.Fatal("Failed to initialize Redis", err)
		}
		defer func() {
			if err := redisclient.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
		revoker = session.NewRedisRevoker(redisclient.GetClient())
		bus = session.NewRedisBus(redisclient.GetClient(), cfg.Redis.AuthChannel)
	} else {
		logger.Warn("Redis disabled; session revocation is local to this process")
		revoker = session.NewMemoryRevoker()
		bus = session.NewLocalBus()
	}

	cache := session.NewCache(cfg.JWT.Secret, revoker, bus)
	if err := cache.Start(ctx); err != nil {
		logger.Fatal("Failed to start session cache", err)
	}
	defer cache.Stop()

	hub := ws.NewHub()
	hubEvents, err := bus.Subscribe(ctx)
	if err != nil {
		logger.Fatal("Failed to subscribe websocket hub", err)
	}
	go hub.Run(ctx, hubEvents)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(registry)
	jobMetrics := metrics.NewJobMetrics(registry)

	// Initialize repositories
	conn := db.GetDB()
	userRepo := repository.NewUserRepository(conn)
	categoryRepo := repository.NewCategoryRepository(conn)
	brandRepo := repository.NewBrandRepository(conn)
	certificateRepo := repository.NewCertificateRepository(conn)
	productRepo := repository.NewProductRepository(conn)
	cleanupRepo := repository.NewStorageCleanupRepository(conn)

	// Initialize services
	cleanupService := service.NewCleanupService(store, cleanupRepo)
	userService := service.NewUserService(userRepo, revoker, bus, cfg.JWT.RefreshTokenExpiry)
	authService := service.NewAuthService(userRepo, userService, cache, revoker, bus, service.AuthConfig{
		Secret:        cfg.JWT.Secret,
		AccessExpiry:  cfg.JWT.AccessTokenExpiry,
		RefreshExpiry: cfg.JWT.RefreshTokenExpiry,
		AllowSignup:   cfg.Auth.AllowSignup,
	})
	categoryService := service.NewCategoryService(categoryRepo)
	brandService := service.NewBrandService(brandRepo)
	certificateService := service.NewCertificateService(certificateRepo, store, cleanupService, cfg.Storage.CertificateBucket)
	productService := service.NewProductService(productRepo, store, cleanupService, cfg.Storage.ProductBucket)

	// Scheduler
	cleanupScheduler := scheduler.NewCleanupScheduler(cfg.Scheduler.CleanupSpec, cleanupService, jobMetrics)
	if err := cleanupScheduler.Start(); err != nil {
		logger.Fatal("Failed to start cleanup scheduler", err)
	}
	defer cleanupScheduler.Stop()

	// Initialize controllers
	if err := controller.RegisterValidators(); err != nil {
		logger.Fatal("Failed to register validators", err)
	}
	authController := controller.NewAuthController(authService, hub, cfg.CORS.AllowedOrigins)
	categoryController := controller.NewCategoryController(categoryService)
	brandController := controller.NewBrandController(brandService)
	certificateController := controller.NewCertificateController(certificateService, cfg.Storage.MaxUploadBytes)
	productController := controller.NewProductController(productService, cfg.Storage.MaxUploadBytes)
	userController := controller.NewUserController(userService)

	authMiddleware := middleware.NewAuthMiddleware(cache)

	// Setup router
	r := router.NewRouter(
		authController,
		categoryController,
		brandController,
		certificateController,
		productController,
		userController,
		authMiddleware,
		httpMetrics,
		registry,
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

	<-ctx.Done()
	logger.Info("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", err)
	}

	logger.Info("Server stopped successfully")
}
