package repository

import (
	"context"

	"github.com/route-impact/internal/domain"
)

// SignalSource загружает каталог светофоров
type SignalSource interface {
	// LoadSignals возвращает все светофоры с координатами
	LoadSignals(ctx context.Context) ([]domain.SignalFeature, error)

	// Name - имя источника для статистики и логов
	Name() string
}
