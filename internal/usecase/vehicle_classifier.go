package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/domain/repository"
	"go.uber.org/zap"
)

const (
	vehicleCachePrefix = "vehicle:"
	// HeavyMassThresholdKg - граница между лёгким и тяжёлым классом
	HeavyMassThresholdKg = 3500
	// HeavyEmptyMassThresholdKg - порог по снаряжённой массе
	HeavyEmptyMassThresholdKg = 3000
	defaultVehicleCacheTTL    = 30 * 24 * time.Hour
)

// vehicleCacheEntry кеширует и отрицательный ответ реестра
type vehicleCacheEntry struct {
	Found  bool                  `json:"found"`
	Record *domain.VehicleRecord `json:"record,omitempty"`
}

// VehicleClassifier определяет класс ТС по номеру через реестр с кешем
type VehicleClassifier struct {
	registry  repository.VehicleRegistry
	cacheRepo repository.CacheRepository
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewVehicleClassifier создает новый экземпляр VehicleClassifier.
// registry и cacheRepo могут быть nil.
func NewVehicleClassifier(
	registry repository.VehicleRegistry,
	cacheRepo repository.CacheRepository,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *VehicleClassifier {
	if cacheTTL <= 0 {
		cacheTTL = defaultVehicleCacheTTL
	}
	return &VehicleClassifier{
		registry:  registry,
		cacheRepo: cacheRepo,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// NormalizePlate приводит номер к виду реестра: верхний регистр без дефисов, пробелов и точек
func NormalizePlate(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', ' ', '.', '\t':
			return -1
		}
		return r
	}, strings.ToUpper(strings.TrimSpace(s)))
}

// Classify определяет класс по номеру. Никогда не возвращает ошибку:
// сбой или промах реестра даёт fallback с FromRegistry=false.
func (c *VehicleClassifier) Classify(ctx context.Context, identifier string, fallback domain.VehicleClass) domain.VehicleClassification {
	plate := NormalizePlate(identifier)
	result := domain.VehicleClassification{Plate: plate, Class: fallback}
	if plate == "" || c.registry == nil {
		return result
	}

	record, ok := c.lookup(ctx, plate)
	if !ok || record == nil {
		return result
	}

	result.Class = ClassifyRecord(record)
	result.FromRegistry = true
	result.Record = record
	return result
}

// lookup - read-through по кешу; ok=false, если реестр недоступен
func (c *VehicleClassifier) lookup(ctx context.Context, plate string) (*domain.VehicleRecord, bool) {
	key := vehicleCachePrefix + plate

	if c.cacheRepo != nil {
		data, err := c.cacheRepo.Get(ctx, key)
		if err != nil {
			c.logger.Warn("Vehicle cache read failed", zap.String("plate", plate), zap.Error(err))
		} else if data != nil {
			var entry vehicleCacheEntry
			if err := json.Unmarshal(data, &entry); err == nil {
				c.logger.Debug("Vehicle cache hit", zap.String("plate", plate), zap.Bool("found", entry.Found))
				return entry.Record, true
			}
		}
	}

	record, err := c.registry.Lookup(ctx, plate)
	if err != nil {
		c.logger.Warn("Vehicle registry lookup failed, using fallback class",
			zap.String("plate", plate), zap.Error(err))
		return nil, false
	}

	if c.cacheRepo != nil {
		data, _ := json.Marshal(vehicleCacheEntry{Found: record != nil, Record: record})
		if err := c.cacheRepo.Set(ctx, key, data, c.cacheTTL); err != nil {
			c.logger.Warn("Vehicle cache write failed", zap.String("plate", plate), zap.Error(err))
		}
	}
	return record, true
}

// ClassifyRecord применяет правила к записи реестра по порядку:
// EU категория, затем максимальная масса, затем снаряжённая масса
func ClassifyRecord(r *domain.VehicleRecord) domain.VehicleClass {
	switch strings.ToUpper(strings.TrimSpace(r.EUCategory)) {
	case "N2", "N3":
		return domain.VehicleClassHeavy
	case "N1":
		return domain.VehicleClassLight
	}
	if r.MaxCombinationMassKg > HeavyMassThresholdKg || r.MaxMassKg > HeavyMassThresholdKg {
		return domain.VehicleClassHeavy
	}
	if r.EmptyMassKg > HeavyEmptyMassThresholdKg {
		return domain.VehicleClassHeavy
	}
	return domain.VehicleClassLight
}

// ClassifyByWeight - класс по суммарной массе груза (XML импорт)
func ClassifyByWeight(totalKg float64, fallback domain.VehicleClass) domain.VehicleClass {
	if totalKg > HeavyMassThresholdKg {
		return domain.VehicleClassHeavy
	}
	if totalKg > 0 {
		return domain.VehicleClassLight
	}
	return fallback
}
