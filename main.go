package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/WilliamGeraldoBueno/ml-inventory-sales/controllers"
	"github.com/WilliamGeraldoBueno/ml-inventory-sales/database"
	"github.com/WilliamGeraldoBueno/ml-inventory-sales/middleware"
	"github.com/WilliamGeraldoBueno/ml-inventory-sales/models"
	"github.com/WilliamGeraldoBueno/ml-inventory-sales/repository"
	"github.com/WilliamGeraldoBueno/ml-inventory-sales/routes"
	servicepkg "github.com/WilliamGeraldoBueno/ml-inventory-sales/services"
)

func main() {
	cfg := LoadConfig()

	var logger *zap.Logger
	var err error
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// --- Import history persistence (optional) ---
	var history repository.ImportRepository = repository.NewNoopImportRepository()
	var db *gorm.DB
	if cfg.PostgresDB != "" {
		db, err = database.ConnectPostgres(logger, &models.ImportRecord{})
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer database.Close(db) //nolint:errcheck
		history = repository.NewGormImportRepository(db)
	} else {
		logger.Info("POSTGRES_DB not set, import history persistence disabled")
	}

	// --- Report cache (optional) ---
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis unavailable, report cache disabled", zap.Error(err))
			redisClient = nil
		}
		cancel()
	}

	// --- Service wiring ---
	store := repository.NewMemoryItemStore()
	importService := servicepkg.NewImportService(store, history, cfg.UploadDir, logger)
	reportService := servicepkg.NewReportService(store, logger)

	cache := controllers.NewCacheManager(redisClient)
	validator := controllers.NewRequestValidator()
	reportController := controllers.NewReportController(reportService, cache, logger)
	importController := controllers.NewImportController(importService, cache, validator, logger)
	dashboardController := controllers.NewDashboardController(reportService, history, logger)

	// One-time load of the newest CSV upload. Blocks startup briefly but
	// never aborts it. A successful load bumps the cache version so a
	// report cached before the restart is not served over the fresh data.
	importService.LoadOnStartup(context.Background(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cache.Invalidate(ctx); err != nil {
			logger.Warn("Failed to invalidate report cache after startup import", zap.Error(err))
		}
	})

	// --- HTTP router ---
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	routes.RegisterRoutes(r, reportController, importController, dashboardController)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "items_loaded": store.Len()})
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		logger.Info("Inventory/Sales Service starting",
			zap.String("port", cfg.Port),
			zap.String("upload_dir", cfg.UploadDir),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Inventory/Sales Service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Inventory/Sales Service stopped gracefully")
}
