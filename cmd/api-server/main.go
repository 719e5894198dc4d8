package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/baljuhq/balju-api/api/swagger"
	"github.com/baljuhq/balju-api/internal/handler"
	"github.com/baljuhq/balju-api/internal/repository"
	"github.com/baljuhq/balju-api/internal/service"
	"github.com/baljuhq/balju-api/pkg/cache"
	"github.com/baljuhq/balju-api/pkg/config"
	"github.com/baljuhq/balju-api/pkg/database"
	"github.com/baljuhq/balju-api/pkg/logger"
)

// @title Balju API
// @version 1.0.0
// @description Purchase order management for small businesses
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	supplierRepo := repository.NewSupplierRepository(db)
	itemRepo := repository.NewItemRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		Audience:           cfg.JWT.Audience,
		SingleSession:      cfg.JWT.SingleSession,
	})
	supplierSvc := service.NewSupplierService(supplierRepo, validate, logr)
	itemSvc := service.NewItemService(itemRepo, validate, logr)
	unitSvc := service.NewUnitService(unitRepo, validate, logr)
	orderSvc := service.NewOrderService(orderRepo, supplierRepo, itemRepo, unitRepo, userRepo, cacheSvc, validate, logr)
	sheetSvc := service.NewOrderSheetService(orderRepo, supplierRepo, itemRepo, unitRepo, userRepo, cacheSvc, service.OrderSheetConfig{MaxRows: cfg.Uploads.MaxRows}, logr)
	dashboardSvc := service.NewDashboardService(orderRepo, cacheSvc, logr, service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL})

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authSvc),
		Suppliers: handler.NewSupplierHandler(supplierSvc),
		Items:     handler.NewItemHandler(itemSvc),
		Units:     handler.NewUnitHandler(unitSvc),
		Orders:    handler.NewOrderHandler(orderSvc, sheetSvc, metricsSvc, cfg.Uploads.MaxFileSizeBytes),
		Dashboard: handler.NewDashboardHandler(dashboardSvc),
		Metrics:   handler.NewMetricsHandler(metricsSvc, db),
	}

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:       cfg.APIPrefix,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		EnableDocs:      cfg.Env != config.EnvProduction,
		EnableDashboard: cfg.Dashboard.Enabled,
	}, logr, authSvc, metricsSvc, handlers)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}

	if redisClient != nil {
		_ = redisClient.Close()
	}
}
