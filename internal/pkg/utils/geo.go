package utils

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/route-impact/internal/domain"
)

const (
	earthRadiusKm = 6371.0
	// KmPerDegree - грубый перевод километров в градусы (плоская Земля)
	KmPerDegree = 111.0
)

// HaversineDistanceKm вычисляет расстояние по большому кругу между двумя точками в километрах
func HaversineDistanceKm(a, b domain.GeoPoint) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180.0
	dLng := (b.Lng - a.Lng) * math.Pi / 180.0

	lat1Rad := a.Lat * math.Pi / 180.0
	lat2Rad := b.Lat * math.Pi / 180.0

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// ClosestPointOnSegment проецирует p на отрезок ab в плоскости (lng, lat).
// Параметр проекции ограничен [0,1]; вырожденный отрезок возвращает a.
func ClosestPointOnSegment(p, a, b domain.GeoPoint) domain.GeoPoint {
	dx := b.Lng - a.Lng
	dy := b.Lat - a.Lat
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a
	}

	t := ((p.Lng-a.Lng)*dx + (p.Lat-a.Lat)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	return domain.GeoPoint{
		Lat: a.Lat + t*dy,
		Lng: a.Lng + t*dx,
	}
}

// SegmentBound возвращает прямоугольник отрезка, расширенный на marginDeg градусов
func SegmentBound(a, b domain.GeoPoint, marginDeg float64) orb.Bound {
	return orb.MultiPoint{a.OrbPoint(), b.OrbPoint()}.Bound().Pad(marginDeg)
}

// PolylineLengthKm - сумма haversine расстояний между соседними точками
func PolylineLengthKm(line domain.Polyline) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += HaversineDistanceKm(line[i-1], line[i])
	}
	return total
}

// InterpolateLine делит отрезок ab на n равных частей и возвращает n+1 точек
func InterpolateLine(a, b domain.GeoPoint, n int) domain.Polyline {
	if n < 1 {
		n = 1
	}
	line := make(domain.Polyline, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		line = append(line, domain.GeoPoint{
			Lat: a.Lat + t*(b.Lat-a.Lat),
			Lng: a.Lng + t*(b.Lng-a.Lng),
		})
	}
	return line
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// IsFinitePoint отсекает NaN и бесконечности до геометрических расчётов
func IsFinitePoint(p domain.GeoPoint) bool {
	for _, v := range []float64{p.Lat, p.Lng} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return ValidateCoordinates(p.Lat, p.Lng)
}

// ValidateThreshold проверяет порог сопоставления (0 < t <= 1 км)
func ValidateThreshold(thresholdKm float64) bool {
	return thresholdKm > 0 && thresholdKm <= 1
}
