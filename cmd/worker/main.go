package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/route-impact/internal/config"
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
	redisRepo "github.com/route-impact/internal/repository/redis"
	"github.com/route-impact/internal/usecase"
	"github.com/route-impact/internal/worker"
	"github.com/route-impact/internal/worker/batch"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Воркер может быть выключен в конфиге
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Bulk Analysis Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Int("max_rows", cfg.Bulk.MaxRows),
		zap.Duration("row_delay", cfg.Bulk.RowDelay))

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

	// 4. Initialize repositories
	cacheRepo := cache.NewCacheRepository(redisClient)
	quotaRepo := cache.NewQuotaRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), log)

	var source repository.SignalSource
	switch cfg.Catalog.Source {
	case "overpass":
		source = overpass.NewClient(&cfg.Catalog, log)
	case "postgres":
		db, err := postgres.New(&cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close PostgreSQL connection", zap.Error(err))
			}
		}()
		source = postgres.NewSignalRepository(db)
	default:
		source = udap.NewClient(&cfg.Catalog, log)
	}

	var paymentGate repository.PaymentGate
	if cfg.Payment.SecretKey != "" {
		paymentGate = payment.NewStripeGate(&cfg.Payment, log)
	}

	// 5. Initialize use cases
	catalogUC := usecase.NewSignalCatalogUseCase(source, cacheRepo, log)
	loadCtx, loadCancel := context.WithTimeout(context.Background(), cfg.Catalog.Timeout+10*time.Second)
	if err := catalogUC.Load(loadCtx); err != nil {
		loadCancel()
		log.Fatal("Failed to load signal catalog", zap.Error(err))
	}
	loadCancel()

	tables := mustSavingsTables(cfg, log)

	routeUC := usecase.NewRouteAnalysisUseCase(
		catalogUC,
		usecase.NewSavingsModel(tables),
		usecase.NewVehicleClassifier(rdw.NewClient(&cfg.Registry, log), cacheRepo, cfg.Registry.CacheTTL, log),
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

	// 6. Initialize workers
	bulkWorker := batch.NewBulkWorker(
		streamRepo,
		bulkUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.MaxRetries,
		log,
	)

	// 7. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log, worker.DefaultShutdownTimeout)
	workerManager.Register(bulkWorker)

	// 8. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	// Сначала воркеры: текущий пакет отменяется между строками и публикует финал
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}
	cancel()

	log.Info("Worker shutdown complete")
}

func mustSavingsTables(cfg *config.Config, log *zap.Logger) *config.SavingsTables {
	var (
		tables *config.SavingsTables
		err    error
	)
	if cfg.Savings.TablesFile != "" {
		tables, err = config.LoadSavingsTables(cfg.Savings.TablesFile)
	} else {
		tables, err = config.DefaultSavingsTables()
	}
	if err != nil {
		log.Fatal("Failed to load savings tables", zap.Error(err))
	}
	return tables
}
