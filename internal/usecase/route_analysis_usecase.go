package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/domain/repository"
	"github.com/route-impact/internal/pkg/errors"
	"github.com/route-impact/internal/pkg/utils"
	"github.com/route-impact/internal/usecase/dto"
	"go.uber.org/zap"
)

const (
	// degradedRoutePoints - число промежуточных точек прямой при сбое маршрутизатора
	degradedRoutePoints = 10
	// degradedSpeedKmh - средняя скорость для оценки времени по прямой
	degradedSpeedKmh = 50.0

	sourceCoordinates = "coordinates"
	sourcePostalCode  = "postal_code"
	sourceAddress     = "address"
)

// RouteAnalysisUseCase прогоняет одну поездку через конвейер:
// класс ТС, геокодирование, маршрут, сопоставление светофоров, экономия.
type RouteAnalysisUseCase struct {
	catalog      *SignalCatalogUseCase
	savings      *SavingsModel
	classifier   *VehicleClassifier
	geocoder     repository.Geocoder
	router       repository.Router
	defaultClass domain.VehicleClass
	thresholdKm  float64
	logger       *zap.Logger
}

// NewRouteAnalysisUseCase создает новый экземпляр RouteAnalysisUseCase
func NewRouteAnalysisUseCase(
	catalog *SignalCatalogUseCase,
	savings *SavingsModel,
	classifier *VehicleClassifier,
	geocoder repository.Geocoder,
	router repository.Router,
	defaultClass domain.VehicleClass,
	thresholdKm float64,
	logger *zap.Logger,
) *RouteAnalysisUseCase {
	if !defaultClass.Valid() {
		defaultClass = domain.VehicleClassHeavy
	}
	if !utils.ValidateThreshold(thresholdKm) {
		thresholdKm = DefaultThresholdKm
	}
	return &RouteAnalysisUseCase{
		catalog:      catalog,
		savings:      savings,
		classifier:   classifier,
		geocoder:     geocoder,
		router:       router,
		defaultClass: defaultClass,
		thresholdKm:  thresholdKm,
		logger:       logger,
	}
}

// AnalyzeRoute анализирует один маршрут из API и строит GeoJSON для карты
func (uc *RouteAnalysisUseCase) AnalyzeRoute(ctx context.Context, req dto.RouteAnalysisRequest) (*dto.RouteAnalysisResponse, error) {
	opts := req.Options()
	if opts.DefaultVehicleClass != "" && !opts.DefaultVehicleClass.Valid() {
		return nil, errors.ErrConfiguration.Wrapf("unknown vehicle class %q", opts.DefaultVehicleClass)
	}

	row := req.TripRow()
	if !row.IsValid() {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"reason": "origin and destination need an address, postal code or location",
		})
	}

	result, matched, err := uc.AnalyzeTrip(ctx, row, opts)
	if err != nil {
		if errors.Is(err, errors.ErrConfiguration) {
			return nil, err
		}
		appErr := errors.ErrRowResolution.Wrap(err)
		return nil, appErr.WithDetails(map[string]interface{}{"reason": err.Error()})
	}

	return &dto.RouteAnalysisResponse{
		Result:  result,
		GeoJSON: AnalysisFeatureCollection(&result, matched),
	}, nil
}

// AnalyzeTrip - конвейер одной строки. Ошибка означает, что строку не удалось разрешить;
// вызывающий сам решает, превращать ли её в результат с ошибкой.
func (uc *RouteAnalysisUseCase) AnalyzeTrip(
	ctx context.Context,
	row domain.TripRow,
	opts domain.AnalysisOptions,
) (domain.AnalysisResult, []domain.SignalFeature, error) {
	result := domain.AnalysisResult{
		Index:       row.Index,
		Label:       row.Label(),
		TripsPerDay: row.Frequency(),
	}

	classification := uc.resolveClass(ctx, row, opts)
	result.VehicleClass = classification.Class
	result.VehicleFromRegistry = classification.FromRegistry

	origin, err := uc.resolveEndpoint(ctx, row.Origin)
	if err != nil {
		return result, nil, fmt.Errorf("origin: %w", err)
	}
	destination, err := uc.resolveEndpoint(ctx, row.Destination)
	if err != nil {
		return result, nil, fmt.Errorf("destination: %w", err)
	}
	result.Origin = origin
	result.Destination = destination

	route := uc.buildRoute(ctx, origin.Point, destination.Point, result.VehicleClass)
	result.Route = route.Polyline
	result.DistanceKm = route.DistanceKm
	result.DurationMin = route.DurationMin
	result.RouteDegraded = route.degraded

	threshold := opts.ThresholdKm
	if threshold <= 0 {
		threshold = uc.thresholdKm
	}
	matched := uc.catalog.Match(result.Route, NewMatchOptions(threshold, opts.ExcludedSignalIDs))
	result.MatchedSignals = len(matched)
	result.EligibleSignals = CountEligible(matched)
	result.MatchedSignalIDs = SignalIDs(matched)

	bandwidth, err := uc.savings.Bandwidth(result.EligibleSignals, result.VehicleClass, result.TripsPerDay)
	if err != nil {
		return result, nil, err
	}
	advanced, err := uc.savings.Advanced(matched, result.VehicleClass, result.TripsPerDay)
	if err != nil {
		return result, nil, err
	}
	result.Bandwidth = bandwidth
	result.Advanced = advanced

	return result, matched, nil
}

// resolveClass: класс по умолчанию, затем тип из файла, затем реестр по номеру, затем масса груза
func (uc *RouteAnalysisUseCase) resolveClass(ctx context.Context, row domain.TripRow, opts domain.AnalysisOptions) domain.VehicleClassification {
	class := uc.defaultClass
	if opts.DefaultVehicleClass.Valid() {
		class = opts.DefaultVehicleClass
	}
	if c, ok := domain.VehicleClassFromText(row.VehicleType); ok {
		class = c
	}

	if row.LicensePlate != "" && uc.classifier != nil {
		classification := uc.classifier.Classify(ctx, row.LicensePlate, class)
		if classification.FromRegistry {
			return classification
		}
	}

	return domain.VehicleClassification{
		Plate: NormalizePlate(row.LicensePlate),
		Class: ClassifyByWeight(row.TotalWeightKg, class),
	}
}

// resolveEndpoint: координаты как есть, иначе индекс, иначе адрес.
// По одной попытке геокодирования на каждое представление.
func (uc *RouteAnalysisUseCase) resolveEndpoint(ctx context.Context, ep domain.TripEndpoint) (*domain.ResolvedLocation, error) {
	if ep.Location != nil {
		if !utils.IsFinitePoint(*ep.Location) || !utils.ValidateCoordinates(ep.Location.Lat, ep.Location.Lng) {
			return nil, fmt.Errorf("invalid coordinates %v", *ep.Location)
		}
		return &domain.ResolvedLocation{Point: *ep.Location, Source: sourceCoordinates}, nil
	}

	var lastErr error
	attempts := []struct {
		query  string
		source string
	}{
		{strings.TrimSpace(ep.PostalCode), sourcePostalCode},
		{strings.TrimSpace(ep.Address), sourceAddress},
	}
	for _, a := range attempts {
		if a.query == "" {
			continue
		}
		res, err := uc.geocoder.Geocode(ctx, a.query)
		if err != nil {
			uc.logger.Debug("Geocoding failed", zap.String("query", a.query), zap.Error(err))
			lastErr = err
			continue
		}
		if res == nil {
			lastErr = fmt.Errorf("%s %q not found", a.source, a.query)
			continue
		}
		return &domain.ResolvedLocation{
			Point:       res.Point,
			DisplayName: res.DisplayName,
			Source:      a.source,
		}, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("endpoint has no address, postal code or location")
	}
	return nil, lastErr
}

type builtRoute struct {
	repository.RouteResult
	degraded bool
}

// buildRoute запрашивает маршрут; при любом сбое строит прямую с равномерными точками
func (uc *RouteAnalysisUseCase) buildRoute(ctx context.Context, origin, destination domain.GeoPoint, class domain.VehicleClass) builtRoute {
	res, err := uc.router.Route(ctx, origin, destination, class)
	if err == nil && res != nil && len(res.Polyline) >= 2 {
		if res.DistanceKm <= 0 {
			res.DistanceKm = utils.PolylineLengthKm(res.Polyline)
		}
		return builtRoute{RouteResult: *res}
	}

	if err != nil {
		uc.logger.Warn("Routing failed, using straight line", zap.Error(err))
	} else {
		uc.logger.Warn("Router returned no route, using straight line")
	}

	distance := utils.HaversineDistanceKm(origin, destination)
	return builtRoute{
		RouteResult: repository.RouteResult{
			Polyline:    utils.InterpolateLine(origin, destination, degradedRoutePoints),
			DistanceKm:  distance,
			DurationMin: distance / degradedSpeedKmh * 60,
		},
		degraded: true,
	}
}
