package usecase

import (
	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/pkg/errors"
	"github.com/route-impact/internal/usecase/dto"
)

// Estimate - упрощённый режим: экономия по заданному числу светофоров без маршрута
func (m *SavingsModel) Estimate(req dto.SavingsEstimateRequest) (*dto.SavingsEstimateResponse, error) {
	class, err := domain.ParseVehicleClass(req.VehicleClass)
	if err != nil {
		return nil, errors.ErrConfiguration.Wrap(err)
	}
	source := domain.DataSource(req.DataSource)
	if source == "" {
		source = domain.DataSourceTNO
	}
	if !source.Valid() {
		return nil, errors.ErrConfiguration.Wrapf("unknown data source %q", req.DataSource)
	}

	savings, err := m.Simple(req.EligibleSignals, class, source, req.TripsPerDay)
	if err != nil {
		return nil, err
	}
	bandwidth, err := m.Bandwidth(req.EligibleSignals, class, req.TripsPerDay)
	if err != nil {
		return nil, err
	}
	return &dto.SavingsEstimateResponse{Savings: savings, Bandwidth: bandwidth}, nil
}
