package domain

import "github.com/google/uuid"

// Имена стримов
const (
	StreamBulkSubmit   = "stream:bulk:submit"
	StreamBulkProgress = "stream:bulk:progress"
)

// AnalysisOptions - параметры анализа, общие для всех строк пакета
type AnalysisOptions struct {
	DefaultVehicleClass VehicleClass `json:"default_vehicle_class,omitempty"`
	ThresholdKm         float64      `json:"threshold_km,omitempty"`
	ExcludedSignalIDs   []string     `json:"excluded_signal_ids,omitempty"`
}

// BatchJob - входящее событие на запуск пакета в фоне
type BatchJob struct {
	BatchID   uuid.UUID       `json:"batch_id"`
	SessionID string          `json:"session_id"`
	ChargeID  string          `json:"charge_id,omitempty"`
	QuotaKey  string          `json:"quota_key,omitempty"`
	Rows      []TripRow       `json:"rows"`
	Options   AnalysisOptions `json:"options"`
}

// HasRows - в задании есть строки
func (j *BatchJob) HasRows() bool {
	return len(j.Rows) > 0
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
