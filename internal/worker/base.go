package worker

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BaseWorker - общая часть воркеров на Redis Streams: имя, группа, consumer и сигнал остановки
type BaseWorker struct {
	name          string
	consumerGroup string
	consumerName  string
	logger        *zap.Logger

	mu       sync.Mutex
	stopped  bool
	stopChan chan struct{}
}

// NewBaseWorker создает новый BaseWorker. Имя consumer - hostname-pid,
// чтобы несколько процессов одной группы не делили pending-список.
func NewBaseWorker(name, consumerGroup string, logger *zap.Logger) *BaseWorker {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "worker"
	}
	return &BaseWorker{
		name:          name,
		consumerGroup: consumerGroup,
		consumerName:  fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		logger:        logger.With(zap.String("worker", name)),
		stopChan:      make(chan struct{}),
	}
}

func (w *BaseWorker) Name() string { return w.name }

func (w *BaseWorker) ConsumerGroup() string { return w.consumerGroup }

func (w *BaseWorker) ConsumerName() string { return w.consumerName }

func (w *BaseWorker) Logger() *zap.Logger { return w.logger }

// Stop сигнализирует остановку; повторный вызов ничего не делает
func (w *BaseWorker) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.logger.Info("Stopping worker")
	close(w.stopChan)
	w.stopped = true
	return nil
}

func (w *BaseWorker) IsStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

// StopChan закрывается при остановке
func (w *BaseWorker) StopChan() <-chan struct{} {
	return w.stopChan
}

// Idle ждёт d или остановки. false - воркер остановлен.
func (w *BaseWorker) Idle(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-w.stopChan:
		return false
	case <-t.C:
		return true
	}
}
