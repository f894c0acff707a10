package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	catalogCacheKey = "catalog:signals"
	catalogCacheTTL = 24 * time.Hour
)

type catalogSnapshot struct {
	signals  []domain.SignalFeature
	stats    *domain.CatalogStats
	loadedAt time.Time
}

// SignalCatalogUseCase хранит каталог светофоров. Снимок неизменяем,
// Reload подменяет его целиком.
type SignalCatalogUseCase struct {
	source    repository.SignalSource
	cacheRepo repository.CacheRepository
	logger    *zap.Logger

	mu       sync.RWMutex
	snapshot *catalogSnapshot
}

// NewSignalCatalogUseCase создает новый экземпляр SignalCatalogUseCase.
// cacheRepo может быть nil.
func NewSignalCatalogUseCase(
	source repository.SignalSource,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
) *SignalCatalogUseCase {
	return &SignalCatalogUseCase{
		source:    source,
		cacheRepo: cacheRepo,
		logger:    logger,
	}
}

// NewStaticSignalCatalog оборачивает готовый список (тесты, CLI)
func NewStaticSignalCatalog(signals []domain.SignalFeature, sourceName string) *SignalCatalogUseCase {
	uc := &SignalCatalogUseCase{logger: zap.NewNop()}
	uc.snapshot = newCatalogSnapshot(signals, sourceName, time.Now())
	return uc
}

// Load загружает каталог: сначала кеш, затем источник
func (uc *SignalCatalogUseCase) Load(ctx context.Context) error {
	if uc.cacheRepo != nil {
		signals, err := uc.fromCache(ctx)
		if err != nil {
			uc.logger.Warn("Failed to read catalog from cache", zap.Error(err))
		}
		if len(signals) > 0 {
			uc.swap(newCatalogSnapshot(signals, uc.source.Name()+" (cache)", time.Now()))
			uc.logger.Info("Signal catalog loaded from cache", zap.Int("count", len(signals)))
			return nil
		}
	}
	return uc.Reload(ctx)
}

// Reload перечитывает каталог из источника, минуя кеш
func (uc *SignalCatalogUseCase) Reload(ctx context.Context) error {
	start := time.Now()
	signals, err := uc.source.LoadSignals(ctx)
	if err != nil {
		return fmt.Errorf("load signals from %s: %w", uc.source.Name(), err)
	}

	uc.swap(newCatalogSnapshot(signals, uc.source.Name(), time.Now()))
	uc.logger.Info("Signal catalog loaded",
		zap.String("source", uc.source.Name()),
		zap.Int("count", len(signals)),
		zap.Int("eligible", CountEligible(signals)),
		zap.Duration("duration", time.Since(start)),
	)

	if uc.cacheRepo != nil {
		data, err := json.Marshal(signals)
		if err == nil {
			err = uc.cacheRepo.Set(ctx, catalogCacheKey, data, catalogCacheTTL)
		}
		if err != nil {
			uc.logger.Warn("Failed to cache signal catalog", zap.Error(err))
		}
	}
	return nil
}

func (uc *SignalCatalogUseCase) fromCache(ctx context.Context) ([]domain.SignalFeature, error) {
	data, err := uc.cacheRepo.Get(ctx, catalogCacheKey)
	if err != nil || data == nil {
		return nil, err
	}
	var signals []domain.SignalFeature
	if err := json.Unmarshal(data, &signals); err != nil {
		return nil, fmt.Errorf("decode cached catalog: %w", err)
	}
	return signals, nil
}

func (uc *SignalCatalogUseCase) swap(s *catalogSnapshot) {
	uc.mu.Lock()
	uc.snapshot = s
	uc.mu.Unlock()
}

func (uc *SignalCatalogUseCase) current() *catalogSnapshot {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	if uc.snapshot == nil {
		return &catalogSnapshot{stats: &domain.CatalogStats{
			ByAuthority:       map[string]int{},
			ByTLCOrganization: map[string]int{},
			ByPriority:        map[string]int{},
		}}
	}
	return uc.snapshot
}

// All возвращает все светофоры. Срез нельзя изменять.
func (uc *SignalCatalogUseCase) All() []domain.SignalFeature {
	return uc.current().signals
}

// Stats возвращает статистику каталога
func (uc *SignalCatalogUseCase) Stats() *domain.CatalogStats {
	return uc.current().stats
}

// Match сопоставляет маршрут с текущим каталогом
func (uc *SignalCatalogUseCase) Match(route domain.Polyline, opts MatchOptions) []domain.SignalFeature {
	return MatchSignals(route, uc.All(), opts)
}

// FeatureCollection экспортирует весь каталог как GeoJSON
func (uc *SignalCatalogUseCase) FeatureCollection() *geojson.FeatureCollection {
	return SignalsFeatureCollection(uc.All())
}

func newCatalogSnapshot(signals []domain.SignalFeature, sourceName string, loadedAt time.Time) *catalogSnapshot {
	stats := &domain.CatalogStats{
		Total:             len(signals),
		ByAuthority:       make(map[string]int),
		ByTLCOrganization: make(map[string]int),
		ByPriority:        make(map[string]int, len(domain.PriorityClasses)),
		Source:            sourceName,
		LoadedAt:          loadedAt,
	}
	for _, name := range domain.PriorityClasses {
		stats.ByPriority[name] = 0
	}

	var bound orb.Bound
	for i, s := range signals {
		authority := s.RoadRegulatorName
		if authority == "" {
			authority = "unknown"
		}
		stats.ByAuthority[authority]++
		if s.TLCOrganization != "" {
			stats.ByTLCOrganization[s.TLCOrganization]++
		}
		for _, name := range s.Priorities.List() {
			stats.ByPriority[name]++
		}

		if i == 0 {
			bound = s.Location.OrbPoint().Bound()
		} else {
			bound = bound.Extend(s.Location.OrbPoint())
		}
	}
	if len(signals) > 0 {
		stats.Bounds = &domain.BoundingBox{
			MinLat: bound.Min.Lat(),
			MinLng: bound.Min.Lon(),
			MaxLat: bound.Max.Lat(),
			MaxLng: bound.Max.Lon(),
		}
	}

	return &catalogSnapshot{signals: signals, stats: stats, loadedAt: loadedAt}
}

// SignalsFeatureCollection - светофоры как точки GeoJSON
func SignalsFeatureCollection(signals []domain.SignalFeature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, s := range signals {
		fc.Append(signalFeature(s))
	}
	return fc
}

// AnalysisFeatureCollection - маршрут и сопоставленные светофоры одной поездки
func AnalysisFeatureCollection(result *domain.AnalysisResult, matched []domain.SignalFeature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if len(result.Route) >= 2 {
		route := geojson.NewFeature(result.Route.LineString())
		route.Properties["kind"] = "route"
		route.Properties["label"] = result.Label
		route.Properties["distance_km"] = result.DistanceKm
		route.Properties["degraded"] = result.RouteDegraded
		route.Properties["vehicle_class"] = string(result.VehicleClass)
		fc.Append(route)
	}
	for _, s := range matched {
		fc.Append(signalFeature(s))
	}
	return fc
}

func signalFeature(s domain.SignalFeature) *geojson.Feature {
	f := geojson.NewFeature(s.Location.OrbPoint())
	f.ID = s.ID
	f.Properties["kind"] = "signal"
	f.Properties["id"] = s.ID
	f.Properties["name"] = s.Name
	f.Properties["road_regulator"] = s.RoadRegulatorName
	f.Properties["tlc_organization"] = s.TLCOrganization
	f.Properties["priorities"] = s.Priorities.List()
	f.Properties["eligible"] = s.IsEligible()
	return f
}
