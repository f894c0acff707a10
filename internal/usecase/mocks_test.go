package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/domain/repository"
)

type MockSignalSource struct {
	mock.Mock
}

func (m *MockSignalSource) LoadSignals(ctx context.Context) ([]domain.SignalFeature, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SignalFeature), args.Error(1)
}

func (m *MockSignalSource) Name() string {
	return "mock"
}

type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, query string) (*repository.GeocodeResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.GeocodeResult), args.Error(1)
}

type MockRouter struct {
	mock.Mock
}

func (m *MockRouter) Route(ctx context.Context, origin, destination domain.GeoPoint, class domain.VehicleClass) (*repository.RouteResult, error) {
	args := m.Called(ctx, origin, destination, class)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.RouteResult), args.Error(1)
}

type MockVehicleRegistry struct {
	mock.Mock
}

func (m *MockVehicleRegistry) Lookup(ctx context.Context, plate string) (*domain.VehicleRecord, error) {
	args := m.Called(ctx, plate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VehicleRecord), args.Error(1)
}

type MockPaymentGate struct {
	mock.Mock
}

func (m *MockPaymentGate) CreateCharge(ctx context.Context, rowCount int, sessionID string) (*repository.CheckoutHandle, error) {
	args := m.Called(ctx, rowCount, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.CheckoutHandle), args.Error(1)
}

func (m *MockPaymentGate) CheckStatus(ctx context.Context, id string) (repository.ChargeStatus, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(repository.ChargeStatus), args.Error(1)
}
