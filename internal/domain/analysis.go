package domain

import (
	"time"

	"github.com/google/uuid"
)

// ResolvedLocation - точка после геокодирования
type ResolvedLocation struct {
	Point       GeoPoint `json:"point"`
	DisplayName string   `json:"display_name,omitempty"`
	Source      string   `json:"source"`
}

// AnalysisResult - результат анализа одной поездки.
// При ошибке Error заполнен, а геометрия и показатели нулевые.
type AnalysisResult struct {
	Index               int               `json:"index"`
	Label               string            `json:"label"`
	Origin              *ResolvedLocation `json:"origin,omitempty"`
	Destination         *ResolvedLocation `json:"destination,omitempty"`
	Route               Polyline          `json:"route,omitempty"`
	RouteDegraded       bool              `json:"route_degraded,omitempty"`
	DistanceKm          float64           `json:"distance_km"`
	DurationMin         float64           `json:"duration_min"`
	VehicleClass        VehicleClass      `json:"vehicle_class,omitempty"`
	VehicleFromRegistry bool              `json:"vehicle_from_registry,omitempty"`
	TripsPerDay         float64           `json:"trips_per_day"`
	MatchedSignals      int               `json:"matched_signals"`
	EligibleSignals     int               `json:"eligible_signals"`
	MatchedSignalIDs    []string          `json:"matched_signal_ids,omitempty"`
	Bandwidth           *SavingsBandwidth `json:"bandwidth,omitempty"`
	Advanced            *AdvancedSavings  `json:"advanced,omitempty"`
	Error               string            `json:"error,omitempty"`
}

// Failed - строка не была разрешена
func (r AnalysisResult) Failed() bool {
	return r.Error != ""
}

// BatchState - состояние пакета
type BatchState string

const (
	BatchStateParsed    BatchState = "parsed"
	BatchStatePreviewed BatchState = "previewed"
	BatchStateGated     BatchState = "gated"
	BatchStateRunning   BatchState = "running"
	BatchStateCompleted BatchState = "completed"
	BatchStateCancelled BatchState = "cancelled"
	BatchStateFailed    BatchState = "failed"
)

// BatchProgress - наблюдаемый прогресс после каждой строки
type BatchProgress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Label   string `json:"label"`
	Failed  bool   `json:"failed,omitempty"`
}

// BatchTotals - суммы по успешно обработанным строкам
type BatchTotals struct {
	DistanceKm      float64        `json:"distance_km"`
	MatchedSignals  int            `json:"matched_signals"`
	EligibleSignals int            `json:"eligible_signals"`
	MinPerTrip      SavingsFigures `json:"min_per_trip"`
	MaxPerTrip      SavingsFigures `json:"max_per_trip"`
	MinAnnual       SavingsFigures `json:"min_annual"`
	MaxAnnual       SavingsFigures `json:"max_annual"`
	AdvancedAnnual  SavingsFigures `json:"advanced_annual"`
}

// BatchSummary - итог пакета: валидные строки отдельно от ошибок
type BatchSummary struct {
	BatchID       uuid.UUID   `json:"batch_id"`
	State         BatchState  `json:"state"`
	TotalRows     int         `json:"total_rows"`
	ProcessedRows int         `json:"processed_rows"`
	ValidRows     int         `json:"valid_rows"`
	ErrorRows     int         `json:"error_rows"`
	Gated         bool        `json:"gated"`
	Totals        BatchTotals `json:"totals"`
	StartedAt     time.Time   `json:"started_at"`
	FinishedAt    time.Time   `json:"finished_at"`
}

// BatchEventType - тип события потока
type BatchEventType string

const (
	BatchEventProgress  BatchEventType = "progress"
	BatchEventCompleted BatchEventType = "completed"
	BatchEventCancelled BatchEventType = "cancelled"
	BatchEventFailed    BatchEventType = "failed"
)

// BatchEvent - элемент потока выполнения пакета
type BatchEvent struct {
	Type     BatchEventType   `json:"type"`
	BatchID  uuid.UUID        `json:"batch_id"`
	Progress *BatchProgress   `json:"progress,omitempty"`
	Result   *AnalysisResult  `json:"result,omitempty"`
	Summary  *BatchSummary    `json:"summary,omitempty"`
	Results  []AnalysisResult `json:"results,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Final - последнее событие потока
func (e BatchEvent) Final() bool {
	return e.Type != BatchEventProgress
}
