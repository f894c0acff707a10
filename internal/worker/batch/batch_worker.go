package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/route-impact/internal/domain"
	"github.com/route-impact/internal/domain/repository"
	"github.com/route-impact/internal/pkg/errors"
	"github.com/route-impact/internal/usecase"
	"github.com/route-impact/internal/worker"
	"go.uber.org/zap"
)

const (
	// пакеты длинные и последовательные, берём по одному
	maxBatchSize    = 1
	emptyQueueSleep = 500 * time.Millisecond
	publishBackoff  = 200 * time.Millisecond
)

// Runner - оркестратор пакета
type Runner interface {
	Run(ctx context.Context, req usecase.RunRequest) (<-chan domain.BatchEvent, error)
}

// BulkWorker читает задания из stream:bulk:submit и публикует ход выполнения в stream:bulk:progress
type BulkWorker struct {
	*worker.BaseWorker
	streamRepo repository.StreamRepository
	runner     Runner
	maxRetries int
}

// NewBulkWorker создает новый BulkWorker
func NewBulkWorker(
	streamRepo repository.StreamRepository,
	runner Runner,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *BulkWorker {
	if maxRetries < 1 {
		maxRetries = 1
	}

	return &BulkWorker{
		BaseWorker: worker.NewBaseWorker("bulk-analysis", consumerGroup, logger),
		streamRepo: streamRepo,
		runner:     runner,
		maxRetries: maxRetries,
	}
}

// Start запускает воркер
func (w *BulkWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting BulkWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.ConsumerName()))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamBulkSubmit, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	// остановка воркера отменяет текущий пакет между строками
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-w.StopChan():
			cancel()
		case <-runCtx.Done():
		}
	}()

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			processed, err := w.ProcessBatch(runCtx)
			if err != nil {
				logger.Error("Failed to process batch", zap.Error(err))
				w.Idle(time.Second)
				continue
			}

			if processed == 0 {
				w.Idle(emptyQueueSleep)
			}
		}
	}
}

// ProcessBatch читает задания и прогоняет их до конца.
// Возвращает количество прочитанных сообщений.
func (w *BulkWorker) ProcessBatch(ctx context.Context) (int, error) {
	messages, err := w.streamRepo.ConsumeBatch(
		ctx,
		domain.StreamBulkSubmit,
		w.ConsumerGroup(),
		w.ConsumerName(),
		maxBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}

	for _, msg := range messages {
		w.handleMessage(ctx, msg)
	}
	return len(messages), nil
}

func (w *BulkWorker) handleMessage(ctx context.Context, msg domain.StreamMessage) {
	logger := w.Logger().With(zap.String("message_id", msg.ID))
	// ack и публикация финала не должны срываться из-за остановки воркера
	bgCtx := context.WithoutCancel(ctx)
	defer func() {
		_ = w.streamRepo.AckMessage(bgCtx, domain.StreamBulkSubmit, w.ConsumerGroup(), msg.ID)
	}()

	job, err := parseMessage(msg)
	if err != nil {
		// ACK битое сообщение чтобы не застревало
		logger.Warn("Failed to parse message, skipping", zap.Error(err))
		return
	}
	logger = logger.With(zap.String("batch_id", job.BatchID.String()))

	events, err := w.runner.Run(ctx, usecase.RunRequest{
		BatchID:   job.BatchID,
		SessionID: job.SessionID,
		ChargeID:  job.ChargeID,
		QuotaKey:  job.QuotaKey,
		Rows:      job.Rows,
		Options:   job.Options,
	})
	if err != nil {
		logger.Warn("Batch rejected", zap.Error(err))
		w.publish(bgCtx, rejectedEvent(job.BatchID, err))
		return
	}

	for ev := range events {
		w.publish(bgCtx, ev)
	}
}

// publish отправляет событие с повторами; потерянное progress-событие не останавливает пакет
func (w *BulkWorker) publish(ctx context.Context, ev domain.BatchEvent) {
	var err error
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		if err = w.streamRepo.PublishToStream(ctx, domain.StreamBulkProgress, ev); err == nil {
			return
		}
		if attempt < w.maxRetries {
			time.Sleep(publishBackoff * time.Duration(attempt))
		}
	}
	w.Logger().Error("Failed to publish batch event",
		zap.String("batch_id", ev.BatchID.String()),
		zap.String("type", string(ev.Type)),
		zap.Error(err))
}

func parseMessage(msg domain.StreamMessage) (*domain.BatchJob, error) {
	if msg.Data == "" {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var job domain.BatchJob
	if err := json.Unmarshal([]byte(msg.Data), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	if job.BatchID == uuid.Nil {
		return nil, fmt.Errorf("job has no batch_id")
	}
	if !job.HasRows() {
		return nil, fmt.Errorf("job has no rows")
	}
	return &job, nil
}

// rejectedEvent - финальное событие для пакета, не прошедшего проверку квоты, оплаты или размера
func rejectedEvent(batchID uuid.UUID, err error) domain.BatchEvent {
	ev := domain.BatchEvent{
		Type:    domain.BatchEventFailed,
		BatchID: batchID,
		Error:   err.Error(),
	}
	if appErr, ok := errors.As(err); ok {
		ev.Error = appErr.Code
	}
	return ev
}
