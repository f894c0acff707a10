package dto

import "github.com/route-impact/internal/domain"

// Point - координаты точки
type Point struct {
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lng float64 `json:"lng" validate:"min=-180,max=180"`
}

// GeoPoint конвертирует точку запроса в доменную
func (p Point) GeoPoint() domain.GeoPoint {
	return domain.GeoPoint{Lat: p.Lat, Lng: p.Lng}
}

// EndpointRequest - начало или конец маршрута: адрес, индекс или координаты
type EndpointRequest struct {
	Address    string `json:"address,omitempty" validate:"omitempty,max=300"`
	PostalCode string `json:"postal_code,omitempty" validate:"omitempty,max=16"`
	Location   *Point `json:"location,omitempty" validate:"omitempty"`
}

// TripEndpoint конвертирует точку запроса в доменную
func (e EndpointRequest) TripEndpoint() domain.TripEndpoint {
	ep := domain.TripEndpoint{Address: e.Address, PostalCode: e.PostalCode}
	if e.Location != nil {
		p := e.Location.GeoPoint()
		ep.Location = &p
	}
	return ep
}

// AnalysisOptionsRequest - общие параметры анализа
type AnalysisOptionsRequest struct {
	VehicleClass      string   `json:"vehicle_class,omitempty" validate:"vehicle_class"`
	ThresholdKm       float64  `json:"threshold_km,omitempty" validate:"omitempty,gt=0,max=1"`
	ExcludedSignalIDs []string `json:"excluded_signal_ids,omitempty" validate:"omitempty,max=1000"`
}

// Options конвертирует параметры в доменные
func (o AnalysisOptionsRequest) Options() domain.AnalysisOptions {
	return domain.AnalysisOptions{
		DefaultVehicleClass: domain.VehicleClass(o.VehicleClass),
		ThresholdKm:         o.ThresholdKm,
		ExcludedSignalIDs:   o.ExcludedSignalIDs,
	}
}

// RouteAnalysisRequest - запрос на анализ одного маршрута
type RouteAnalysisRequest struct {
	Origin       EndpointRequest `json:"origin"`
	Destination  EndpointRequest `json:"destination"`
	LicensePlate string          `json:"license_plate,omitempty" validate:"omitempty,max=16"`
	TripsPerDay  float64         `json:"trips_per_day,omitempty" validate:"omitempty,gt=0,max=1000"`
	AnalysisOptionsRequest
}

// TripRow конвертирует запрос в строку поездки
func (r RouteAnalysisRequest) TripRow() domain.TripRow {
	return domain.TripRow{
		Origin:       r.Origin.TripEndpoint(),
		Destination:  r.Destination.TripEndpoint(),
		LicensePlate: r.LicensePlate,
		TripsPerDay:  r.TripsPerDay,
	}
}

// SavingsEstimateRequest - оценка экономии по числу светофоров
type SavingsEstimateRequest struct {
	EligibleSignals int     `json:"eligible_signals" validate:"min=0,max=100000"`
	VehicleClass    string  `json:"vehicle_class" validate:"required,vehicle_class"`
	DataSource      string  `json:"data_source,omitempty" validate:"data_source"`
	TripsPerDay     float64 `json:"trips_per_day,omitempty" validate:"omitempty,gt=0,max=1000"`
}

// BulkPreviewRequest - подтверждение пакета перед запуском
type BulkPreviewRequest struct {
	SessionID string                 `json:"session_id" validate:"required,max=128"`
	Rows      []domain.TripRow       `json:"rows" validate:"required,min=1"`
	Detected  *domain.DetectedFields `json:"detected,omitempty"`
}

// BulkCheckoutRequest - оплата платных строк пакета
type BulkCheckoutRequest struct {
	SessionID string `json:"session_id" validate:"required,max=128"`
	RowCount  int    `json:"row_count" validate:"required,min=1"`
}

// BulkRunRequest - запуск пакета
type BulkRunRequest struct {
	BatchID   string           `json:"batch_id,omitempty" validate:"omitempty,uuid"`
	SessionID string           `json:"session_id" validate:"required,max=128"`
	ChargeID  string           `json:"charge_id,omitempty" validate:"omitempty,max=256"`
	Rows      []domain.TripRow `json:"rows" validate:"required,min=1"`
	AnalysisOptionsRequest
}
