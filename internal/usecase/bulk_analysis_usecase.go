package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/domain/repository"
	"github.com/route-impact/internal/pkg/errors"
	"github.com/route-impact/internal/usecase/dto"
	"go.uber.org/zap"
)

// TripAnalyzer - конвейер одной строки
type TripAnalyzer interface {
	AnalyzeTrip(ctx context.Context, row domain.TripRow, opts domain.AnalysisOptions) (domain.AnalysisResult, []domain.SignalFeature, error)
}

// BulkLimits - ограничения бесплатного тарифа и пакета
type BulkLimits struct {
	FreeRows          int
	MaxRows           int
	RowDelay          time.Duration
	FreeBatchesPerDay int
	QuotaWindow       time.Duration
	PricePerRowCents  int64
}

// RunRequest - запуск пакета
type RunRequest struct {
	BatchID   uuid.UUID
	SessionID string
	ChargeID  string
	// QuotaKey - ключ счётчика бесплатных пакетов; по умолчанию SessionID
	QuotaKey string
	Rows     []domain.TripRow
	Options  domain.AnalysisOptions
}

func (r RunRequest) quotaKey() string {
	if r.QuotaKey != "" {
		return r.QuotaKey
	}
	return r.SessionID
}

// BulkAnalysisUseCase ведёт пакет строк: предпросмотр, оплата или квота,
// последовательная обработка с паузой и отменой между строками.
type BulkAnalysisUseCase struct {
	analyzer TripAnalyzer
	quota    repository.QuotaRepository
	payment  repository.PaymentGate
	limits   BulkLimits
	logger   *zap.Logger

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
}

// NewBulkAnalysisUseCase создает новый экземпляр BulkAnalysisUseCase.
// quota и payment могут быть nil: тогда квота и использованные платежи не учитываются,
// а платные пакеты отклоняются.
func NewBulkAnalysisUseCase(
	analyzer TripAnalyzer,
	quota repository.QuotaRepository,
	payment repository.PaymentGate,
	limits BulkLimits,
	logger *zap.Logger,
) *BulkAnalysisUseCase {
	return &BulkAnalysisUseCase{
		analyzer: analyzer,
		quota:    quota,
		payment:  payment,
		limits:   limits,
		logger:   logger,
		running:  make(map[uuid.UUID]context.CancelFunc),
	}
}

// Limits возвращает действующие ограничения
func (uc *BulkAnalysisUseCase) Limits() BulkLimits {
	return uc.limits
}

// Preview считает, сколько строк бесплатны и сколько нужно оплатить.
// Пакеты больше MaxRows отклоняются целиком, без обрезки.
func (uc *BulkAnalysisUseCase) Preview(ctx context.Context, req dto.BulkPreviewRequest) (*dto.BatchPreview, error) {
	rowCount := len(req.Rows)
	if err := uc.checkSize(rowCount); err != nil {
		return nil, err
	}

	preview := &dto.BatchPreview{
		BatchID:  uuid.New(),
		RowCount: rowCount,
		Detected: req.Detected,
		FreeRows: min(rowCount, uc.limits.FreeRows),
		MaxRows:  uc.limits.MaxRows,
	}
	if rowCount > uc.limits.FreeRows {
		preview.PaymentRequired = true
		preview.PaidRows = rowCount - uc.limits.FreeRows
		preview.PriceCents = int64(preview.PaidRows) * uc.limits.PricePerRowCents
	}

	preview.FreeBatchesLeft = uc.limits.FreeBatchesPerDay
	if uc.quota != nil {
		used, err := uc.quota.Usage(ctx, req.SessionID, uc.limits.QuotaWindow)
		if err != nil {
			uc.logger.Warn("Failed to read quota usage", zap.String("session_id", req.SessionID), zap.Error(err))
		} else {
			preview.FreeBatchesLeft = max(0, uc.limits.FreeBatchesPerDay-used)
		}
	}

	return preview, nil
}

// Checkout создаёт платёж за строки сверх бесплатного лимита
func (uc *BulkAnalysisUseCase) Checkout(ctx context.Context, req dto.BulkCheckoutRequest) (*repository.CheckoutHandle, error) {
	if err := uc.checkSize(req.RowCount); err != nil {
		return nil, err
	}
	paidRows := req.RowCount - uc.limits.FreeRows
	if paidRows <= 0 {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"reason":    "batch fits the free tier",
			"free_rows": uc.limits.FreeRows,
		})
	}
	if uc.payment == nil {
		return nil, errors.ErrExternalService.Wrapf("payment gate is not configured")
	}

	handle, err := uc.payment.CreateCharge(ctx, paidRows, req.SessionID)
	if err != nil {
		uc.logger.Error("Failed to create charge", zap.String("session_id", req.SessionID), zap.Error(err))
		return nil, errors.ErrExternalService.Wrap(err)
	}
	return handle, nil
}

// AwaitPayment опрашивает шлюз, пока платёж не станет paid
func (uc *BulkAnalysisUseCase) AwaitPayment(ctx context.Context, chargeID string, interval time.Duration) error {
	if uc.payment == nil {
		return errors.ErrPaymentRequired
	}
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		charge, err := uc.payment.CheckStatus(ctx, chargeID)
		if err != nil {
			uc.logger.Warn("Payment status check failed", zap.String("charge_id", chargeID), zap.Error(err))
		}
		switch charge.Status {
		case repository.PaymentStatusPaid:
			return nil
		case repository.PaymentStatusUnknown:
			if err == nil {
				return errors.ErrPaymentRequired.WithDetails(map[string]interface{}{"charge_id": chargeID})
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Run проверяет оплату или квоту и запускает обработку в отдельной горутине.
// Канал получает событие progress после каждой строки и одно финальное событие, затем закрывается.
func (uc *BulkAnalysisUseCase) Run(ctx context.Context, req RunRequest) (<-chan domain.BatchEvent, error) {
	rowCount := len(req.Rows)
	if rowCount == 0 {
		return nil, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"reason": "batch has no rows"})
	}
	if err := uc.checkSize(rowCount); err != nil {
		return nil, err
	}
	if c := req.Options.DefaultVehicleClass; c != "" && !c.Valid() {
		return nil, errors.ErrConfiguration.Wrapf("unknown vehicle class %q", c)
	}
	if req.BatchID == uuid.Nil {
		req.BatchID = uuid.New()
	}

	// id занимается до проверки квоты и оплаты
	runCtx, cancel := context.WithCancel(ctx)
	if !uc.register(req.BatchID, cancel) {
		cancel()
		return nil, errors.ErrBatchConflict.WithDetails(map[string]interface{}{
			"batch_id": req.BatchID.String(),
			"reason":   "batch is already running",
		})
	}

	gated := rowCount > uc.limits.FreeRows
	var admitErr error
	if gated {
		admitErr = uc.claimCharge(ctx, req, rowCount)
	} else {
		admitErr = uc.reserveQuota(ctx, req)
	}
	if admitErr != nil {
		uc.unregister(req.BatchID)
		cancel()
		return nil, admitErr
	}

	events := make(chan domain.BatchEvent, rowCount+1)

	uc.logger.Info("Batch started",
		zap.String("batch_id", req.BatchID.String()),
		zap.Int("rows", rowCount),
		zap.Bool("gated", gated),
	)

	go func() {
		defer close(events)
		defer func() {
			uc.unregister(req.BatchID)
			cancel()
		}()

		summary, results := uc.process(runCtx, req, gated, events)

		if summary.State != domain.BatchStateCompleted {
			if gated {
				uc.releaseCharge(context.WithoutCancel(ctx), req)
			} else {
				uc.releaseQuota(context.WithoutCancel(ctx), req)
			}
		}

		final := domain.BatchEvent{
			BatchID: req.BatchID,
			Summary: summary,
			Results: results,
		}
		switch summary.State {
		case domain.BatchStateCompleted:
			final.Type = domain.BatchEventCompleted
		case domain.BatchStateCancelled:
			final.Type = domain.BatchEventCancelled
		default:
			final.Type = domain.BatchEventFailed
		}
		events <- final

		uc.logger.Info("Batch finished",
			zap.String("batch_id", req.BatchID.String()),
			zap.String("state", string(summary.State)),
			zap.Int("processed", summary.ProcessedRows),
			zap.Int("errors", summary.ErrorRows),
		)
	}()

	return events, nil
}

// register занимает batchID; false, если пакет уже запущен
func (uc *BulkAnalysisUseCase) register(batchID uuid.UUID, cancel context.CancelFunc) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, ok := uc.running[batchID]; ok {
		return false
	}
	uc.running[batchID] = cancel
	return true
}

func (uc *BulkAnalysisUseCase) unregister(batchID uuid.UUID) {
	uc.mu.Lock()
	delete(uc.running, batchID)
	uc.mu.Unlock()
}

// Cancel запрашивает кооперативную отмену; текущая строка дорабатывает до конца
func (uc *BulkAnalysisUseCase) Cancel(batchID uuid.UUID) bool {
	uc.mu.Lock()
	cancel, ok := uc.running[batchID]
	uc.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// IsRunning - пакет сейчас обрабатывается
func (uc *BulkAnalysisUseCase) IsRunning(batchID uuid.UUID) bool {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	_, ok := uc.running[batchID]
	return ok
}

func (uc *BulkAnalysisUseCase) process(
	ctx context.Context,
	req RunRequest,
	gated bool,
	events chan<- domain.BatchEvent,
) (*domain.BatchSummary, []domain.AnalysisResult) {
	total := len(req.Rows)
	summary := &domain.BatchSummary{
		BatchID:   req.BatchID,
		State:     domain.BatchStateRunning,
		TotalRows: total,
		Gated:     gated,
		StartedAt: time.Now(),
	}
	results := make([]domain.AnalysisResult, 0, total)

	for i, row := range req.Rows {
		if ctx.Err() != nil {
			summary.State = domain.BatchStateCancelled
			break
		}

		row.Index = i
		// строка не прерывается отменой, её ограничивают только таймауты клиентов
		result, fatal := uc.runRow(context.WithoutCancel(ctx), req.BatchID, row, req.Options)
		results = append(results, result)
		summary.ProcessedRows++
		if result.Failed() {
			summary.ErrorRows++
		} else {
			summary.ValidRows++
			addTotals(&summary.Totals, &result)
		}

		rowResult := result
		events <- domain.BatchEvent{
			Type:    domain.BatchEventProgress,
			BatchID: req.BatchID,
			Progress: &domain.BatchProgress{
				Current: i + 1,
				Total:   total,
				Label:   result.Label,
				Failed:  result.Failed(),
			},
			Result: &rowResult,
		}

		if fatal != nil {
			summary.State = domain.BatchStateFailed
			uc.logger.Error("Batch aborted by configuration error",
				zap.String("batch_id", req.BatchID.String()),
				zap.Error(fatal),
			)
			break
		}

		// пауза выдерживается и после последней строки
		if !uc.pause(ctx) && i < total-1 {
			summary.State = domain.BatchStateCancelled
			break
		}
	}

	if summary.State == domain.BatchStateRunning {
		summary.State = domain.BatchStateCompleted
	}
	summary.FinishedAt = time.Now()
	return summary, results
}

// runRow изолирует ошибку и панику строки. fatal != nil только для ошибки конфигурации.
func (uc *BulkAnalysisUseCase) runRow(
	ctx context.Context,
	batchID uuid.UUID,
	row domain.TripRow,
	opts domain.AnalysisOptions,
) (result domain.AnalysisResult, fatal error) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("Row panicked",
				zap.String("batch_id", batchID.String()),
				zap.Int("row", row.Index),
				zap.Any("panic", r),
			)
			result = failedResult(row, fmt.Errorf("internal error: %v", r))
			fatal = nil
		}
	}()

	res, _, err := uc.analyzer.AnalyzeTrip(ctx, row, opts)
	if err != nil {
		uc.logger.Warn("Row failed",
			zap.String("batch_id", batchID.String()),
			zap.Int("row", row.Index),
			zap.Error(err),
		)
		if errors.Is(err, errors.ErrConfiguration) {
			return failedResult(row, err), err
		}
		return failedResult(row, err), nil
	}
	res.Index = row.Index
	return res, nil
}

// pause выдерживает паузу после строки; false, если пакет отменили во время паузы
func (uc *BulkAnalysisUseCase) pause(ctx context.Context) bool {
	if uc.limits.RowDelay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(uc.limits.RowDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (uc *BulkAnalysisUseCase) checkSize(rowCount int) error {
	if rowCount > uc.limits.MaxRows {
		return errors.ErrBatchTooLarge.WithDetails(map[string]interface{}{
			"row_count":            rowCount,
			"max_rows":             uc.limits.MaxRows,
			"needs_manual_contact": true,
		})
	}
	return nil
}

// claimCharge проверяет, что платёж оплачен, покрывает строки сверх бесплатного лимита
// и ещё не использован другим пакетом. Использованный платёж закрепляется за пакетом.
func (uc *BulkAnalysisUseCase) claimCharge(ctx context.Context, req RunRequest, rowCount int) error {
	chargeID := req.ChargeID
	if chargeID == "" || uc.payment == nil {
		return errors.ErrPaymentRequired
	}
	charge, err := uc.payment.CheckStatus(ctx, chargeID)
	if err != nil {
		uc.logger.Error("Failed to check payment", zap.String("charge_id", chargeID), zap.Error(err))
		return errors.ErrExternalService.Wrap(err)
	}
	if charge.Status != repository.PaymentStatusPaid {
		return errors.ErrPaymentRequired.WithDetails(map[string]interface{}{
			"charge_id": chargeID,
			"status":    string(charge.Status),
		})
	}
	if required := rowCount - uc.limits.FreeRows; charge.RowCount < required {
		return errors.ErrPaymentRequired.WithDetails(map[string]interface{}{
			"charge_id":     chargeID,
			"paid_rows":     charge.RowCount,
			"required_rows": required,
		})
	}

	if uc.quota == nil {
		return nil
	}
	ok, err := uc.quota.ClaimCharge(ctx, chargeID, req.BatchID.String())
	if err != nil {
		return errors.ErrCacheError.Wrap(err)
	}
	if !ok {
		return errors.ErrPaymentRequired.WithDetails(map[string]interface{}{
			"charge_id": chargeID,
			"reason":    "charge already used",
		})
	}
	return nil
}

func (uc *BulkAnalysisUseCase) releaseCharge(ctx context.Context, req RunRequest) {
	if uc.quota == nil {
		return
	}
	if err := uc.quota.ReleaseCharge(ctx, req.ChargeID, req.BatchID.String()); err != nil {
		uc.logger.Error("Failed to release charge",
			zap.String("batch_id", req.BatchID.String()),
			zap.String("charge_id", req.ChargeID),
			zap.Error(err),
		)
	}
}

func (uc *BulkAnalysisUseCase) reserveQuota(ctx context.Context, req RunRequest) error {
	if uc.quota == nil {
		return nil
	}
	ok, err := uc.quota.Reserve(ctx, req.quotaKey(), req.BatchID.String(), uc.limits.FreeBatchesPerDay, uc.limits.QuotaWindow)
	if errors.Is(err, repository.ErrAlreadyReserved) {
		return errors.ErrBatchConflict.WithDetails(map[string]interface{}{
			"batch_id": req.BatchID.String(),
			"reason":   "batch id already used in the quota window",
		})
	}
	if err != nil {
		return errors.ErrCacheError.Wrap(err)
	}
	if !ok {
		return errors.ErrQuotaExceeded.WithDetails(map[string]interface{}{
			"limit":  uc.limits.FreeBatchesPerDay,
			"window": uc.limits.QuotaWindow.String(),
		})
	}
	return nil
}

func (uc *BulkAnalysisUseCase) releaseQuota(ctx context.Context, req RunRequest) {
	if uc.quota == nil {
		return
	}
	if err := uc.quota.Release(ctx, req.quotaKey(), req.BatchID.String()); err != nil {
		uc.logger.Error("Failed to release quota",
			zap.String("batch_id", req.BatchID.String()),
			zap.Error(err),
		)
	}
}

// failedResult - строка с ошибкой и нулевой геометрией и экономией
func failedResult(row domain.TripRow, err error) domain.AnalysisResult {
	return domain.AnalysisResult{
		Index:       row.Index,
		Label:       row.Label(),
		TripsPerDay: row.Frequency(),
		Error:       err.Error(),
	}
}

func addTotals(t *domain.BatchTotals, r *domain.AnalysisResult) {
	t.DistanceKm += r.DistanceKm
	t.MatchedSignals += r.MatchedSignals
	t.EligibleSignals += r.EligibleSignals
	if r.Bandwidth != nil {
		t.MinPerTrip = t.MinPerTrip.Add(r.Bandwidth.Min.PerTrip)
		t.MaxPerTrip = t.MaxPerTrip.Add(r.Bandwidth.Max.PerTrip)
		t.MinAnnual = t.MinAnnual.Add(r.Bandwidth.Min.Annual)
		t.MaxAnnual = t.MaxAnnual.Add(r.Bandwidth.Max.Annual)
	}
	if r.Advanced != nil {
		t.AdvancedAnnual = t.AdvancedAnnual.Add(r.Advanced.Annual)
	}
}
