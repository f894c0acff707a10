package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/domain/repository"
	apperrors "github.com/route-impact/internal/pkg/errors"
	"github.com/route-impact/internal/repository/memory"
	"github.com/route-impact/internal/usecase"
	"github.com/route-impact/internal/usecase/dto"
)

// stubAnalyzer считает вызовы и отдаёт результат через fn
type stubAnalyzer struct {
	mu    sync.Mutex
	calls []int
	fn    func(ctx context.Context, row domain.TripRow) (domain.AnalysisResult, error)
}

func (s *stubAnalyzer) AnalyzeTrip(ctx context.Context, row domain.TripRow, _ domain.AnalysisOptions) (domain.AnalysisResult, []domain.SignalFeature, error) {
	s.mu.Lock()
	s.calls = append(s.calls, row.Index)
	s.mu.Unlock()
	if s.fn == nil {
		return okResult(row), nil, nil
	}
	res, err := s.fn(ctx, row)
	return res, nil, err
}

func (s *stubAnalyzer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func okResult(row domain.TripRow) domain.AnalysisResult {
	return domain.AnalysisResult{
		Index:           row.Index,
		Label:           row.Label(),
		DistanceKm:      10,
		MatchedSignals:  2,
		EligibleSignals: 1,
		Bandwidth: &domain.SavingsBandwidth{
			Min: domain.Savings{PerTrip: domain.SavingsFigures{FuelLiters: 0.1}},
			Max: domain.Savings{PerTrip: domain.SavingsFigures{FuelLiters: 0.3}},
		},
	}
}

func tripRows(n int) []domain.TripRow {
	rows := make([]domain.TripRow, n)
	for i := range rows {
		rows[i] = domain.TripRow{
			Origin:      domain.TripEndpoint{Address: fmt.Sprintf("Origin %d", i)},
			Destination: domain.TripEndpoint{PostalCode: "3511 AB"},
		}
	}
	return rows
}

func testLimits() usecase.BulkLimits {
	return usecase.BulkLimits{
		FreeRows:          10,
		MaxRows:           500,
		FreeBatchesPerDay: 3,
		QuotaWindow:       24 * time.Hour,
		PricePerRowCents:  50,
	}
}

func drain(t *testing.T, events <-chan domain.BatchEvent) ([]domain.BatchEvent, domain.BatchEvent) {
	t.Helper()
	var progress []domain.BatchEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "channel closed without a final event")
			if ev.Final() {
				_, open := <-events
				assert.False(t, open)
				return progress, ev
			}
			progress = append(progress, ev)
		case <-timeout:
			t.Fatal("batch did not finish")
		}
	}
}

func TestBulkAnalysisUseCase_Preview(t *testing.T) {
	ctx := context.Background()

	t.Run("free tier", func(t *testing.T) {
		uc := usecase.NewBulkAnalysisUseCase(&stubAnalyzer{}, memory.NewQuotaRepository(), nil, testLimits(), zap.NewNop())
		preview, err := uc.Preview(ctx, dto.BulkPreviewRequest{SessionID: "s", Rows: tripRows(4)})
		require.NoError(t, err)
		assert.False(t, preview.PaymentRequired)
		assert.Equal(t, 4, preview.FreeRows)
		assert.Equal(t, 0, preview.PaidRows)
		assert.Equal(t, 3, preview.FreeBatchesLeft)
		assert.NotEqual(t, uuid.Nil, preview.BatchID)
	})

	t.Run("twelve rows over a ceiling of ten need payment", func(t *testing.T) {
		uc := usecase.NewBulkAnalysisUseCase(&stubAnalyzer{}, nil, nil, testLimits(), zap.NewNop())
		preview, err := uc.Preview(ctx, dto.BulkPreviewRequest{SessionID: "s", Rows: tripRows(12)})
		require.NoError(t, err)
		assert.True(t, preview.PaymentRequired)
		assert.Equal(t, 12, preview.RowCount)
		assert.Equal(t, 10, preview.FreeRows)
		assert.Equal(t, 2, preview.PaidRows)
		assert.Equal(t, int64(100), preview.PriceCents)
	})

	t.Run("above absolute max is rejected", func(t *testing.T) {
		uc := usecase.NewBulkAnalysisUseCase(&stubAnalyzer{}, nil, nil, testLimits(), zap.NewNop())
		_, err := uc.Preview(ctx, dto.BulkPreviewRequest{SessionID: "s", Rows: tripRows(501)})
		require.ErrorIs(t, err, apperrors.ErrBatchTooLarge)
		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, true, appErr.Details["needs_manual_contact"])
	})
}

func TestBulkAnalysisUseCase_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("rows run sequentially with progress after each", func(t *testing.T) {
		analyzer := &stubAnalyzer{}
		quota := memory.NewQuotaRepository()
		uc := usecase.NewBulkAnalysisUseCase(analyzer, quota, nil, testLimits(), zap.NewNop())

		events, err := uc.Run(ctx, usecase.RunRequest{SessionID: "s", Rows: tripRows(3)})
		require.NoError(t, err)

		progress, final := drain(t, events)
		require.Len(t, progress, 3)
		for i, ev := range progress {
			assert.Equal(t, domain.BatchEventProgress, ev.Type)
			assert.Equal(t, i+1, ev.Progress.Current)
			assert.Equal(t, 3, ev.Progress.Total)
			assert.Equal(t, fmt.Sprintf("Origin %d → 3511 AB", i), ev.Progress.Label)
		}
		assert.Equal(t, []int{0, 1, 2}, analyzer.calls)

		assert.Equal(t, domain.BatchEventCompleted, final.Type)
		assert.Equal(t, domain.BatchStateCompleted, final.Summary.State)
		assert.Equal(t, 3, final.Summary.ValidRows)
		assert.Equal(t, 30.0, final.Summary.Totals.DistanceKm)
		assert.InDelta(t, 0.9, final.Summary.Totals.MaxPerTrip.FuelLiters, 1e-9)
		assert.Len(t, final.Results, 3)

		used, err := quota.Usage(ctx, "s", 24*time.Hour)
		require.NoError(t, err)
		assert.Equal(t, 1, used)
	})

	t.Run("row failure does not abort the batch", func(t *testing.T) {
		analyzer := &stubAnalyzer{fn: func(_ context.Context, row domain.TripRow) (domain.AnalysisResult, error) {
			if row.Index == 1 {
				return domain.AnalysisResult{DistanceKm: 99}, errors.New("geocoder timeout")
			}
			if row.Index == 2 {
				panic("boom")
			}
			return okResult(row), nil
		}}
		uc := usecase.NewBulkAnalysisUseCase(analyzer, nil, nil, testLimits(), zap.NewNop())

		events, err := uc.Run(ctx, usecase.RunRequest{SessionID: "s", Rows: tripRows(4)})
		require.NoError(t, err)

		progress, final := drain(t, events)
		assert.Len(t, progress, 4)
		assert.True(t, progress[1].Progress.Failed)
		assert.Equal(t, domain.BatchStateCompleted, final.Summary.State)
		assert.Equal(t, 2, final.Summary.ValidRows)
		assert.Equal(t, 2, final.Summary.ErrorRows)

		failed := final.Results[1]
		assert.Equal(t, "geocoder timeout", failed.Error)
		assert.Zero(t, failed.DistanceKm)
		assert.Nil(t, failed.Bandwidth)
		assert.Contains(t, final.Results[2].Error, "boom")
		assert.Equal(t, 20.0, final.Summary.Totals.DistanceKm)
	})

	t.Run("configuration error fails the batch and releases quota", func(t *testing.T) {
		analyzer := &stubAnalyzer{fn: func(_ context.Context, row domain.TripRow) (domain.AnalysisResult, error) {
			return domain.AnalysisResult{}, apperrors.ErrConfiguration.Wrapf("unknown vehicle class")
		}}
		quota := memory.NewQuotaRepository()
		uc := usecase.NewBulkAnalysisUseCase(analyzer, quota, nil, testLimits(), zap.NewNop())

		events, err := uc.Run(ctx, usecase.RunRequest{SessionID: "s", Rows: tripRows(3)})
		require.NoError(t, err)

		_, final := drain(t, events)
		assert.Equal(t, domain.BatchEventFailed, final.Type)
		assert.Equal(t, 1, final.Summary.ProcessedRows)
		assert.Equal(t, 1, analyzer.callCount())

		used, _ := quota.Usage(ctx, "s", 24*time.Hour)
		assert.Zero(t, used)
	})

	t.Run("cancel between rows keeps partial results and releases quota", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		analyzer := &stubAnalyzer{fn: func(ctx context.Context, row domain.TripRow) (domain.AnalysisResult, error) {
			if row.Index == 1 {
				close(started)
				<-release
				// отмена не прерывает текущую строку
				assert.NoError(t, ctx.Err())
			}
			return okResult(row), nil
		}}
		quota := memory.NewQuotaRepository()
		uc := usecase.NewBulkAnalysisUseCase(analyzer, quota, nil, testLimits(), zap.NewNop())

		batchID := uuid.New()
		events, err := uc.Run(ctx, usecase.RunRequest{BatchID: batchID, SessionID: "s", Rows: tripRows(5)})
		require.NoError(t, err)

		<-started
		assert.True(t, uc.IsRunning(batchID))
		assert.True(t, uc.Cancel(batchID))
		close(release)

		progress, final := drain(t, events)
		assert.Len(t, progress, 2)
		assert.Equal(t, domain.BatchEventCancelled, final.Type)
		assert.Equal(t, 2, final.Summary.ProcessedRows)
		assert.Len(t, final.Results, 2)
		assert.Equal(t, 2, analyzer.callCount())
		assert.False(t, uc.IsRunning(batchID))
		assert.False(t, uc.Cancel(batchID))

		used, _ := quota.Usage(ctx, "s", 24*time.Hour)
		assert.Zero(t, used)
	})

	t.Run("delay applies after every row", func(t *testing.T) {
		tests := []struct {
			name string
			rows int
			min  time.Duration
		}{
			{name: "three rows", rows: 3, min: 90 * time.Millisecond},
			{name: "single row", rows: 1, min: 30 * time.Millisecond},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				limits := testLimits()
				limits.RowDelay = 30 * time.Millisecond
				uc := usecase.NewBulkAnalysisUseCase(&stubAnalyzer{}, nil, nil, limits, zap.NewNop())

				start := time.Now()
				events, err := uc.Run(ctx, usecase.RunRequest{SessionID: "s", Rows: tripRows(tt.rows)})
				require.NoError(t, err)
				_, final := drain(t, events)
				assert.GreaterOrEqual(t, time.Since(start), tt.min)
				assert.Equal(t, domain.BatchStateCompleted, final.Summary.State)
			})
		}
	})

	t.Run("quota exceeded blocks before any row", func(t *testing.T) {
		analyzer := &stubAnalyzer{}
		quota := memory.NewQuotaRepository()
		uc := usecase.NewBulkAnalysisUseCase(analyzer, quota, nil, testLimits(), zap.NewNop())

		for i := 0; i < 3; i++ {
			events, err := uc.Run(ctx, usecase.RunRequest{SessionID: "s", Rows: tripRows(1)})
			require.NoError(t, err)
			drain(t, events)
		}

		_, err := uc.Run(ctx, usecase.RunRequest{SessionID: "s", Rows: tripRows(1)})
		assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)
		assert.Equal(t, 3, analyzer.callCount())
	})

	t.Run("rerunning a cancelled batch does not double count", func(t *testing.T) {
		quota := memory.NewQuotaRepository()
		analyzer := &stubAnalyzer{fn: func(_ context.Context, row domain.TripRow) (domain.AnalysisResult, error) {
			return domain.AnalysisResult{}, apperrors.ErrConfiguration
		}}
		uc := usecase.NewBulkAnalysisUseCase(analyzer, quota, nil, testLimits(), zap.NewNop())

		batchID := uuid.New()
		for i := 0; i < 2; i++ {
			events, err := uc.Run(ctx, usecase.RunRequest{BatchID: batchID, SessionID: "s", Rows: tripRows(2)})
			require.NoError(t, err)
			drain(t, events)
		}
		used, _ := quota.Usage(ctx, "s", 24*time.Hour)
		assert.Zero(t, used)
	})

	t.Run("replaying a completed batch id is rejected", func(t *testing.T) {
		analyzer := &stubAnalyzer{}
		limits := testLimits()
		limits.FreeBatchesPerDay = 1
		uc := usecase.NewBulkAnalysisUseCase(analyzer, memory.NewQuotaRepository(), nil, limits, zap.NewNop())

		batchID := uuid.New()
		events, err := uc.Run(ctx, usecase.RunRequest{BatchID: batchID, SessionID: "s", Rows: tripRows(1)})
		require.NoError(t, err)
		_, final := drain(t, events)
		require.Equal(t, domain.BatchEventCompleted, final.Type)

		for _, n := range []int{1, 5, 10} {
			_, err := uc.Run(ctx, usecase.RunRequest{BatchID: batchID, SessionID: "s", Rows: tripRows(n)})
			assert.ErrorIs(t, err, apperrors.ErrBatchConflict, "rows=%d", n)
		}

		_, err = uc.Run(ctx, usecase.RunRequest{SessionID: "s", Rows: tripRows(1)})
		assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)
		assert.Equal(t, 1, analyzer.callCount())
	})

	t.Run("concurrent run with the same id is rejected", func(t *testing.T) {
		started := make(chan struct{})
		release := make(chan struct{})
		analyzer := &stubAnalyzer{fn: func(_ context.Context, row domain.TripRow) (domain.AnalysisResult, error) {
			if row.Index == 0 {
				close(started)
				<-release
			}
			return okResult(row), nil
		}}
		quota := memory.NewQuotaRepository()
		uc := usecase.NewBulkAnalysisUseCase(analyzer, quota, nil, testLimits(), zap.NewNop())

		batchID := uuid.New()
		events, err := uc.Run(ctx, usecase.RunRequest{BatchID: batchID, SessionID: "s", Rows: tripRows(3)})
		require.NoError(t, err)
		<-started

		_, err = uc.Run(ctx, usecase.RunRequest{BatchID: batchID, SessionID: "s", Rows: tripRows(2)})
		assert.ErrorIs(t, err, apperrors.ErrBatchConflict)

		// отмена попадает в первый запуск, и он остаётся зарегистрированным до конца
		assert.True(t, uc.IsRunning(batchID))
		assert.True(t, uc.Cancel(batchID))
		close(release)

		_, final := drain(t, events)
		assert.Equal(t, domain.BatchEventCancelled, final.Type)
		assert.Equal(t, 1, final.Summary.ProcessedRows)
		assert.Equal(t, 1, analyzer.callCount())
		assert.False(t, uc.IsRunning(batchID))

		used, _ := quota.Usage(ctx, "s", 24*time.Hour)
		assert.Zero(t, used)
	})

	t.Run("too large is rejected before processing", func(t *testing.T) {
		analyzer := &stubAnalyzer{}
		uc := usecase.NewBulkAnalysisUseCase(analyzer, nil, nil, testLimits(), zap.NewNop())
		_, err := uc.Run(ctx, usecase.RunRequest{SessionID: "s", Rows: tripRows(501)})
		assert.ErrorIs(t, err, apperrors.ErrBatchTooLarge)
		assert.Zero(t, analyzer.callCount())
	})

	t.Run("invalid default class is a configuration error", func(t *testing.T) {
		uc := usecase.NewBulkAnalysisUseCase(&stubAnalyzer{}, nil, nil, testLimits(), zap.NewNop())
		_, err := uc.Run(ctx, usecase.RunRequest{
			SessionID: "s",
			Rows:      tripRows(1),
			Options:   domain.AnalysisOptions{DefaultVehicleClass: "bicycle"},
		})
		assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	})
}

func TestBulkAnalysisUseCase_PaymentGate(t *testing.T) {
	ctx := context.Background()

	t.Run("gated run is blocked until paid", func(t *testing.T) {
		analyzer := &stubAnalyzer{}
		gate := &MockPaymentGate{}
		gate.On("CheckStatus", ctx, "cs_1").Return(repository.ChargeStatus{Status: repository.PaymentStatusPending, RowCount: 2}, nil).Once()
		gate.On("CheckStatus", ctx, "cs_1").Return(repository.ChargeStatus{Status: repository.PaymentStatusPaid, RowCount: 2}, nil)
		quota := memory.NewQuotaRepository()
		uc := usecase.NewBulkAnalysisUseCase(analyzer, quota, gate, testLimits(), zap.NewNop())

		_, err := uc.Run(ctx, usecase.RunRequest{SessionID: "s", Rows: tripRows(12)})
		assert.ErrorIs(t, err, apperrors.ErrPaymentRequired)

		_, err = uc.Run(ctx, usecase.RunRequest{SessionID: "s", ChargeID: "cs_1", Rows: tripRows(12)})
		assert.ErrorIs(t, err, apperrors.ErrPaymentRequired)
		assert.Zero(t, analyzer.callCount())

		events, err := uc.Run(ctx, usecase.RunRequest{SessionID: "s", ChargeID: "cs_1", Rows: tripRows(12)})
		require.NoError(t, err)
		progress, final := drain(t, events)
		assert.Len(t, progress, 12)
		assert.True(t, final.Summary.Gated)

		// платный пакет не расходует бесплатную квоту
		used, _ := quota.Usage(ctx, "s", 24*time.Hour)
		assert.Zero(t, used)
	})

	t.Run("charge unlocks a single batch", func(t *testing.T) {
		analyzer := &stubAnalyzer{}
		gate := &MockPaymentGate{}
		gate.On("CheckStatus", mock.Anything, "cs_6").Return(repository.ChargeStatus{Status: repository.PaymentStatusPaid, RowCount: 2}, nil)
		uc := usecase.NewBulkAnalysisUseCase(analyzer, memory.NewQuotaRepository(), gate, testLimits(), zap.NewNop())

		events, err := uc.Run(ctx, usecase.RunRequest{SessionID: "s", ChargeID: "cs_6", Rows: tripRows(12)})
		require.NoError(t, err)
		_, final := drain(t, events)
		require.Equal(t, domain.BatchEventCompleted, final.Type)

		_, err = uc.Run(ctx, usecase.RunRequest{SessionID: "s", ChargeID: "cs_6", Rows: tripRows(12)})
		require.ErrorIs(t, err, apperrors.ErrPaymentRequired)
		appErr, _ := apperrors.As(err)
		assert.Equal(t, "charge already used", appErr.Details["reason"])
		assert.Equal(t, 12, analyzer.callCount())
	})

	t.Run("charge must cover the paid rows", func(t *testing.T) {
		analyzer := &stubAnalyzer{}
		gate := &MockPaymentGate{}
		gate.On("CheckStatus", mock.Anything, "cs_7").Return(repository.ChargeStatus{Status: repository.PaymentStatusPaid, RowCount: 2}, nil)
		quota := memory.NewQuotaRepository()
		uc := usecase.NewBulkAnalysisUseCase(analyzer, quota, gate, testLimits(), zap.NewNop())

		_, err := uc.Run(ctx, usecase.RunRequest{SessionID: "s", ChargeID: "cs_7", Rows: tripRows(500)})
		require.ErrorIs(t, err, apperrors.ErrPaymentRequired)
		appErr, _ := apperrors.As(err)
		assert.Equal(t, 2, appErr.Details["paid_rows"])
		assert.Equal(t, 490, appErr.Details["required_rows"])
		assert.Zero(t, analyzer.callCount())

		// отказ не расходует платёж
		ok, err := quota.ClaimCharge(ctx, "cs_7", "other")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("failed paid batch releases the charge", func(t *testing.T) {
		var fail atomic.Bool
		fail.Store(true)
		analyzer := &stubAnalyzer{fn: func(_ context.Context, row domain.TripRow) (domain.AnalysisResult, error) {
			if fail.Load() {
				return domain.AnalysisResult{}, apperrors.ErrConfiguration
			}
			return okResult(row), nil
		}}
		gate := &MockPaymentGate{}
		gate.On("CheckStatus", mock.Anything, "cs_8").Return(repository.ChargeStatus{Status: repository.PaymentStatusPaid, RowCount: 2}, nil)
		uc := usecase.NewBulkAnalysisUseCase(analyzer, memory.NewQuotaRepository(), gate, testLimits(), zap.NewNop())

		events, err := uc.Run(ctx, usecase.RunRequest{SessionID: "s", ChargeID: "cs_8", Rows: tripRows(12)})
		require.NoError(t, err)
		_, final := drain(t, events)
		require.Equal(t, domain.BatchEventFailed, final.Type)

		fail.Store(false)
		events, err = uc.Run(ctx, usecase.RunRequest{SessionID: "s", ChargeID: "cs_8", Rows: tripRows(12)})
		require.NoError(t, err)
		_, final = drain(t, events)
		assert.Equal(t, domain.BatchEventCompleted, final.Type)
	})

	t.Run("checkout charges only paid rows", func(t *testing.T) {
		gate := &MockPaymentGate{}
		gate.On("CreateCharge", ctx, 2, "s").Return(&repository.CheckoutHandle{ChargeID: "cs_2", RowCount: 2, AmountCents: 100}, nil)
		uc := usecase.NewBulkAnalysisUseCase(&stubAnalyzer{}, nil, gate, testLimits(), zap.NewNop())

		handle, err := uc.Checkout(ctx, dto.BulkCheckoutRequest{SessionID: "s", RowCount: 12})
		require.NoError(t, err)
		assert.Equal(t, "cs_2", handle.ChargeID)
		gate.AssertExpectations(t)
	})

	t.Run("checkout within free tier is rejected", func(t *testing.T) {
		gate := &MockPaymentGate{}
		uc := usecase.NewBulkAnalysisUseCase(&stubAnalyzer{}, nil, gate, testLimits(), zap.NewNop())
		_, err := uc.Checkout(ctx, dto.BulkCheckoutRequest{SessionID: "s", RowCount: 5})
		assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
		gate.AssertNotCalled(t, "CreateCharge", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("await payment polls until paid", func(t *testing.T) {
		gate := &MockPaymentGate{}
		gate.On("CheckStatus", mock.Anything, "cs_3").Return(repository.ChargeStatus{Status: repository.PaymentStatusPending}, nil).Twice()
		gate.On("CheckStatus", mock.Anything, "cs_3").Return(repository.ChargeStatus{Status: repository.PaymentStatusPaid}, nil)
		uc := usecase.NewBulkAnalysisUseCase(&stubAnalyzer{}, nil, gate, testLimits(), zap.NewNop())

		require.NoError(t, uc.AwaitPayment(ctx, "cs_3", time.Millisecond))
		gate.AssertNumberOfCalls(t, "CheckStatus", 3)
	})

	t.Run("await payment stops on unknown session", func(t *testing.T) {
		gate := &MockPaymentGate{}
		gate.On("CheckStatus", mock.Anything, "cs_4").Return(repository.ChargeStatus{Status: repository.PaymentStatusUnknown}, nil)
		uc := usecase.NewBulkAnalysisUseCase(&stubAnalyzer{}, nil, gate, testLimits(), zap.NewNop())

		assert.ErrorIs(t, uc.AwaitPayment(ctx, "cs_4", time.Millisecond), apperrors.ErrPaymentRequired)
	})

	t.Run("await payment honours context", func(t *testing.T) {
		gate := &MockPaymentGate{}
		gate.On("CheckStatus", mock.Anything, "cs_5").Return(repository.ChargeStatus{Status: repository.PaymentStatusPending}, nil)
		uc := usecase.NewBulkAnalysisUseCase(&stubAnalyzer{}, nil, gate, testLimits(), zap.NewNop())

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, uc.AwaitPayment(cctx, "cs_5", 5*time.Millisecond), context.DeadlineExceeded)
	})
}
