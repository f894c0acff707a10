package dto

import (
	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"github.com/route-impact/internal/domain"
)

// RouteAnalysisResponse - результат анализа одного маршрута
type RouteAnalysisResponse struct {
	Result  domain.AnalysisResult      `json:"result"`
	GeoJSON *geojson.FeatureCollection `json:"geojson"`
}

// SavingsEstimateResponse - оценка экономии: один источник и весь диапазон
type SavingsEstimateResponse struct {
	Savings   *domain.Savings          `json:"savings"`
	Bandwidth *domain.SavingsBandwidth `json:"bandwidth"`
}

// ParsedFile - результат разбора одного загруженного файла
type ParsedFile struct {
	FileName string                 `json:"file_name"`
	Rows     int                    `json:"rows"`
	Dropped  int                    `json:"dropped"`
	Detected *domain.DetectedFields `json:"detected,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// BulkParseResponse - строки из всех файлов и отчёт по каждому файлу
type BulkParseResponse struct {
	Rows  []domain.TripRow `json:"rows"`
	Files []ParsedFile     `json:"files"`
}

// BatchPreview - что будет запущено и нужна ли оплата
type BatchPreview struct {
	BatchID         uuid.UUID              `json:"batch_id"`
	RowCount        int                    `json:"row_count"`
	Detected        *domain.DetectedFields `json:"detected,omitempty"`
	PaymentRequired bool                   `json:"payment_required"`
	FreeRows        int                    `json:"free_rows"`
	PaidRows        int                    `json:"paid_rows"`
	MaxRows         int                    `json:"max_rows"`
	PriceCents      int64                  `json:"price_cents"`
	FreeBatchesLeft int                    `json:"free_batches_left"`
}

// CancelResponse - результат запроса на отмену
type CancelResponse struct {
	BatchID   uuid.UUID `json:"batch_id"`
	Cancelled bool      `json:"cancelled"`
}
