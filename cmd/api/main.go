package main

// @title Route Impact Engine API
// @version 1.0.0
// @description Оценка влияния приоритета на светофорах для грузовых маршрутов в Нидерландах.
// @description
// @description Основные возможности:
// @description - Сопоставление маршрута со светофорами из каталога UDAP/OSM
// @description - Оценка экономии топлива, времени и CO2 (простая, диапазон, сценарная)
// @description - Разбор файлов поездок CSV/TSV, XML и XLSX
// @description - Пакетная обработка с квотой, оплатой и потоком событий SSE

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/route-impact/docs/swagger"
	"github.com/route-impact/internal/config"
	httpDelivery "github.com/route-impact/internal/delivery/http"
	"github.com/route-impact/internal/delivery/http/handler"
	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/domain/repository"
	"github.com/route-impact/internal/infrastructure/geocoder"
	"github.com/route-impact/internal/infrastructure/ors"
	"github.com/route-impact/internal/infrastructure/overpass"
	"github.com/route-impact/internal/infrastructure/payment"
	"github.com/route-impact/internal/infrastructure/rdw"
	"github.com/route-impact/internal/infrastructure/udap"
	"github.com/route-impact/internal/pkg/logger"
	"github.com/route-impact/internal/repository/cache"
	"github.com/route-impact/internal/repository/postgres"
	"github.com/route-impact/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Route Impact Engine")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("catalog_source", cfg.Catalog.Source),
	)

	// 3. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisClient.Health(ctx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}
	log.Info("Redis connected")

	// 4. Signal source
	source, closeSource := newSignalSource(cfg, log)
	defer closeSource()

	// 5. Initialize Repositories
	cacheRepo := cache.NewCacheRepository(redisClient)
	quotaRepo := cache.NewQuotaRepository(redisClient)

	var paymentGate repository.PaymentGate
	if cfg.Payment.SecretKey != "" {
		paymentGate = payment.NewStripeGate(&cfg.Payment, log)
	} else {
		log.Warn("Payment gate is not configured, paid batches will be rejected")
	}

	// 6. Initialize Use Cases
	catalogUC := usecase.NewSignalCatalogUseCase(source, cacheRepo, log)
	loadCtx, loadCancel := context.WithTimeout(context.Background(), cfg.Catalog.Timeout+10*time.Second)
	if err := catalogUC.Load(loadCtx); err != nil {
		loadCancel()
		log.Fatal("Failed to load signal catalog", zap.Error(err))
	}
	loadCancel()

	tables, err := loadSavingsTables(cfg)
	if err != nil {
		log.Fatal("Failed to load savings tables", zap.Error(err))
	}
	savingsModel := usecase.NewSavingsModel(tables)

	classifier := usecase.NewVehicleClassifier(
		rdw.NewClient(&cfg.Registry, log),
		cacheRepo,
		cfg.Registry.CacheTTL,
		log,
	)

	routeUC := usecase.NewRouteAnalysisUseCase(
		catalogUC,
		savingsModel,
		classifier,
		geocoder.New(&cfg.Geocoder, log),
		ors.NewClient(&cfg.Router, log),
		domain.VehicleClass(cfg.Bulk.DefaultVehicleClass),
		cfg.Bulk.DefaultThresholdKm,
		log,
	)

	bulkUC := usecase.NewBulkAnalysisUseCase(routeUC, quotaRepo, paymentGate, usecase.BulkLimits{
		FreeRows:          cfg.Bulk.FreeRows,
		MaxRows:           cfg.Bulk.MaxRows,
		RowDelay:          cfg.Bulk.RowDelay,
		FreeBatchesPerDay: cfg.Bulk.FreeBatchesPerDay,
		QuotaWindow:       cfg.Bulk.QuotaWindow,
		PricePerRowCents:  cfg.Payment.PricePerRow,
	}, log)

	log.Info("Use cases initialized")

	// 7. Initialize HTTP Server
	server := httpDelivery.NewServer(
		cfg,
		log,
		handler.NewSignalHandler(catalogUC, log),
		handler.NewRouteHandler(routeUC, log),
		handler.NewSavingsHandler(savingsModel, log),
		handler.NewBulkHandler(bulkUC, log),
	)

	// 8. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 9. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}

// newSignalSource выбирает источник каталога; postgres подключается только для source=postgres
func newSignalSource(cfg *config.Config, log *zap.Logger) (repository.SignalSource, func()) {
	switch cfg.Catalog.Source {
	case "overpass":
		return overpass.NewClient(&cfg.Catalog, log), func() {}
	case "postgres":
		db, err := postgres.New(&cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Health(ctx); err != nil {
			log.Fatal("PostgreSQL health check failed", zap.Error(err))
		}
		log.Info("PostgreSQL connected")
		return postgres.NewSignalRepository(db), func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close PostgreSQL connection", zap.Error(err))
			}
		}
	default:
		return udap.NewClient(&cfg.Catalog, log), func() {}
	}
}

func loadSavingsTables(cfg *config.Config) (*config.SavingsTables, error) {
	if cfg.Savings.TablesFile != "" {
		return config.LoadSavingsTables(cfg.Savings.TablesFile)
	}
	return config.DefaultSavingsTables()
}
