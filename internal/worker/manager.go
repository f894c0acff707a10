package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultShutdownTimeout - сколько ждать, пока текущий пакет дойдёт до границы строки
const DefaultShutdownTimeout = 30 * time.Second

// WorkerManager запускает воркеры и останавливает их с таймаутом
type WorkerManager struct {
	logger          *zap.Logger
	shutdownTimeout time.Duration

	mu      sync.Mutex
	workers []Worker
	wg      sync.WaitGroup
}

// NewWorkerManager создает новый WorkerManager. timeout <= 0 - DefaultShutdownTimeout.
func NewWorkerManager(logger *zap.Logger, timeout time.Duration) *WorkerManager {
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	return &WorkerManager{
		logger:          logger,
		shutdownTimeout: timeout,
	}
}

// Register добавляет воркер; вызывать до Start
func (m *WorkerManager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.workers = append(m.workers, w)
	m.logger.Info("Worker registered", zap.String("name", w.Name()))
}

func (m *WorkerManager) snapshot() []Worker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Worker(nil), m.workers...)
}

// Start запускает каждый воркер в своей горутине и сразу возвращается
func (m *WorkerManager) Start(ctx context.Context) error {
	workers := m.snapshot()
	if len(workers) == 0 {
		return fmt.Errorf("no workers registered")
	}

	m.logger.Info("Starting workers", zap.Int("count", len(workers)))
	for _, w := range workers {
		m.wg.Add(1)
		go func(w Worker) {
			defer m.wg.Done()
			if err := w.Start(ctx); err != nil && ctx.Err() == nil {
				m.logger.Error("Worker failed", zap.String("name", w.Name()), zap.Error(err))
			}
		}(w)
	}
	return nil
}

// Stop останавливает воркеры и ждёт их завершения не дольше shutdownTimeout
func (m *WorkerManager) Stop() error {
	workers := m.snapshot()
	m.logger.Info("Stopping workers", zap.Int("count", len(workers)))

	for _, w := range workers {
		if err := w.Stop(); err != nil {
			m.logger.Error("Failed to stop worker", zap.String("name", w.Name()), zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("All workers stopped gracefully")
		return nil
	case <-time.After(m.shutdownTimeout):
		m.logger.Warn("Workers shutdown timed out, a batch may be left unfinished",
			zap.Duration("timeout", m.shutdownTimeout))
		return fmt.Errorf("workers shutdown timed out after %v", m.shutdownTimeout)
	}
}
