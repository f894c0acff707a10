package repository

import (
	"context"

	"github.com/route-impact/internal/domain"
)

// GeocodeResult - найденная точка
type GeocodeResult struct {
	Point       domain.GeoPoint
	DisplayName string
	Provider    string
}

// Geocoder переводит адрес или индекс в координаты.
// "Не найдено" - это (nil, nil), а не ошибка.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*GeocodeResult, error)
}
