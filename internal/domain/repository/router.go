package repository

import (
	"context"

	"github.com/route-impact/internal/domain"
)

// RouteResult - построенный маршрут
type RouteResult struct {
	Polyline    domain.Polyline
	DistanceKm  float64
	DurationMin float64
}

// Router строит маршрут для класса ТС. "Не найдено" - (nil, nil).
type Router interface {
	Route(ctx context.Context, origin, destination domain.GeoPoint, class domain.VehicleClass) (*RouteResult, error)
}
