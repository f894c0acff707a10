package domain

import (
	"time"

	"github.com/paulmach/orb"
)

// GeoPoint - координата WGS84 в градусах
type GeoPoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// OrbPoint возвращает точку в порядке orb (lng, lat)
func (p GeoPoint) OrbPoint() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// GeoPointFromOrb конвертирует orb.Point в GeoPoint
func GeoPointFromOrb(p orb.Point) GeoPoint {
	return GeoPoint{Lat: p.Lat(), Lng: p.Lon()}
}

// Polyline - упорядоченная последовательность точек маршрута.
// Порядок задаёт направление движения, но сопоставление с ним не связано.
type Polyline []GeoPoint

// LineString конвертирует полилинию в orb.LineString
func (p Polyline) LineString() orb.LineString {
	ls := make(orb.LineString, len(p))
	for i, pt := range p {
		ls[i] = pt.OrbPoint()
	}
	return ls
}

// PolylineFromLineString конвертирует orb.LineString в Polyline
func PolylineFromLineString(ls orb.LineString) Polyline {
	p := make(Polyline, len(ls))
	for i, pt := range ls {
		p[i] = GeoPointFromOrb(pt)
	}
	return p
}

// BoundingBox - прямоугольник в градусах
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// CatalogStats - статистика по каталогу светофоров
type CatalogStats struct {
	Total             int            `json:"total"`
	ByAuthority       map[string]int `json:"by_authority"`
	ByTLCOrganization map[string]int `json:"by_tlc_organization"`
	ByPriority        map[string]int `json:"by_priority"`
	Bounds            *BoundingBox   `json:"bounds,omitempty"`
	Source            string         `json:"source"`
	LoadedAt          time.Time      `json:"loaded_at"`
}
