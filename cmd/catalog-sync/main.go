package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/route-impact/internal/config"
	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/domain/repository"
	"github.com/route-impact/internal/infrastructure/overpass"
	"github.com/route-impact/internal/infrastructure/udap"
	"github.com/route-impact/internal/pkg/logger"
	"github.com/route-impact/internal/repository/postgres"
	"github.com/route-impact/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	source := flag.String("source", "", "catalog source: udap or overpass (default from CATALOG_SOURCE)")
	geojsonPath := flag.String("geojson", "", "write the catalog as GeoJSON to this file")
	historyPath := flag.String("history", "", "append weekly statistics to this JSON file")
	authoritiesPath := flag.String("authorities", "", "write the road authority list (name, slug, count) to this JSON file")
	summaryPath := flag.String("summary", "", "write the catalog summary to this JSON file")
	store := flag.Bool("store", false, "replace the traffic_signals table in PostgreSQL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if *source != "" {
		cfg.Catalog.Source = *source
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	var src repository.SignalSource
	switch cfg.Catalog.Source {
	case "udap":
		src = udap.NewClient(&cfg.Catalog, log)
	case "overpass":
		src = overpass.NewClient(&cfg.Catalog, log)
	default:
		log.Fatal("Unsupported source for sync", zap.String("source", cfg.Catalog.Source))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Catalog.Timeout+time.Minute)
	defer cancel()

	start := time.Now()
	signals, err := src.LoadSignals(ctx)
	if err != nil {
		log.Fatal("Failed to load signals", zap.String("source", src.Name()), zap.Error(err))
	}
	catalog := usecase.NewStaticSignalCatalog(signals, src.Name())
	stats := catalog.Stats()

	log.Info("Signals loaded",
		zap.String("source", src.Name()),
		zap.Int("total", stats.Total),
		zap.Int("eligible", usecase.CountEligible(signals)),
		zap.Any("by_priority", stats.ByPriority),
		zap.Duration("duration", time.Since(start)),
	)

	if *geojsonPath != "" {
		data, err := catalog.FeatureCollection().MarshalJSON()
		if err == nil {
			err = writeFile(*geojsonPath, data)
		}
		if err != nil {
			log.Fatal("Failed to write GeoJSON", zap.Error(err))
		}
		log.Info("GeoJSON written", zap.String("path", *geojsonPath))
	}

	if *authoritiesPath != "" {
		if err := writeJSON(*authoritiesPath, usecase.AuthorityList(stats)); err != nil {
			log.Fatal("Failed to write authorities", zap.Error(err))
		}
		log.Info("Authorities written", zap.String("path", *authoritiesPath), zap.Int("count", len(stats.ByAuthority)))
	}

	if *summaryPath != "" {
		if err := writeJSON(*summaryPath, usecase.NewCatalogSummary(stats, time.Now())); err != nil {
			log.Fatal("Failed to write summary", zap.Error(err))
		}
		log.Info("Summary written", zap.String("path", *summaryPath))
	}

	if *historyPath != "" {
		entry, err := updateHistory(*historyPath, src.Name(), stats, time.Now())
		if err != nil {
			log.Fatal("Failed to update stats history", zap.Error(err))
		}
		log.Info("Stats history updated",
			zap.String("week", entry.Week),
			zap.Int("total_change", entry.Changes.TotalChange),
		)
	}

	if *store {
		if err := storeSignals(ctx, cfg, log, signals); err != nil {
			log.Fatal("Failed to store signals", zap.Error(err))
		}
		log.Info("Signals stored in PostgreSQL", zap.Int("count", len(signals)))
	}
}

func storeSignals(ctx context.Context, cfg *config.Config, log *zap.Logger, signals []domain.SignalFeature) error {
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()
	return postgres.NewSignalRepository(db).ReplaceSignals(ctx, signals)
}

func updateHistory(path, source string, stats *domain.CatalogStats, now time.Time) (usecase.WeekEntry, error) {
	history := usecase.NewStatsHistory(source, now)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, history); err != nil {
			return usecase.WeekEntry{}, fmt.Errorf("decode %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return usecase.WeekEntry{}, err
	}

	entry := history.Record(stats, now)
	return entry, writeJSON(path, history)
}

func writeJSON(path string, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, out)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
