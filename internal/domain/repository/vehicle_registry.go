package repository

import (
	"context"

	"github.com/route-impact/internal/domain"
)

// VehicleRegistry ищет ТС по нормализованному номеру. Промах - (nil, nil).
type VehicleRegistry interface {
	Lookup(ctx context.Context, plate string) (*domain.VehicleRecord, error)
}
