package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTripsPerDay применяется, когда частота не указана
const DefaultTripsPerDay = 1.0

// TripEndpoint - начало или конец поездки в одном из представлений
type TripEndpoint struct {
	Address    string    `json:"address,omitempty"`
	PostalCode string    `json:"postal_code,omitempty"`
	Location   *GeoPoint `json:"location,omitempty"`
}

// IsResolvable - есть хотя бы одно представление
func (e TripEndpoint) IsResolvable() bool {
	return strings.TrimSpace(e.Address) != "" ||
		strings.TrimSpace(e.PostalCode) != "" ||
		e.Location != nil
}

// Label возвращает читаемое представление точки
func (e TripEndpoint) Label() string {
	switch {
	case e.Address != "":
		return e.Address
	case e.PostalCode != "":
		return e.PostalCode
	case e.Location != nil:
		return fmt.Sprintf("%.5f,%.5f", e.Location.Lat, e.Location.Lng)
	}
	return "?"
}

// TripRow - нормализованная строка пакетного импорта
type TripRow struct {
	Index         int          `json:"index"`
	Origin        TripEndpoint `json:"origin"`
	Destination   TripEndpoint `json:"destination"`
	VehicleType   string       `json:"vehicle_type,omitempty"`
	LicensePlate  string       `json:"license_plate,omitempty"`
	TripsPerDay   float64      `json:"trips_per_day"`
	Timestamp     *time.Time   `json:"timestamp,omitempty"`
	TotalWeightKg float64      `json:"total_weight_kg,omitempty"`
}

// IsValid - обе точки имеют хотя бы одно представление
func (r TripRow) IsValid() bool {
	return r.Origin.IsResolvable() && r.Destination.IsResolvable()
}

// Frequency возвращает частоту поездок с учётом значения по умолчанию
func (r TripRow) Frequency() float64 {
	if r.TripsPerDay <= 0 {
		return DefaultTripsPerDay
	}
	return r.TripsPerDay
}

// Label - подпись строки для индикатора прогресса
func (r TripRow) Label() string {
	return r.Origin.Label() + " → " + r.Destination.Label()
}

// InputFormat - распознанный формат входного файла
type InputFormat string

const (
	InputFormatHeaderDelimited InputFormat = "delimited_header"
	InputFormatPositional      InputFormat = "delimited_positional"
	InputFormatCoordinates     InputFormat = "delimited_coordinates"
	InputFormatXML             InputFormat = "xml"
)

// DetectedFields - что удалось распознать во входных данных (для предпросмотра)
type DetectedFields struct {
	Format    InputFormat       `json:"format"`
	Delimiter string            `json:"delimiter,omitempty"`
	Columns   map[string]string `json:"columns,omitempty"`
}
