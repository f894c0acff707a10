package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-impact/internal/worker"
)

type loopWorker struct {
	*worker.BaseWorker
	started atomic.Bool
	// ignoreStop имитирует пакет, который не доходит до границы строки
	ignoreStop bool
}

func newLoopWorker(name string, ignoreStop bool) *loopWorker {
	return &loopWorker{
		BaseWorker: worker.NewBaseWorker(name, "g", zap.NewNop()),
		ignoreStop: ignoreStop,
	}
}

func (w *loopWorker) Start(ctx context.Context) error {
	w.started.Store(true)
	if w.ignoreStop {
		<-ctx.Done()
		return ctx.Err()
	}
	for w.Idle(10 * time.Millisecond) {
	}
	return nil
}

func TestWorkerManager_StartWithoutWorkers(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop(), 0)
	assert.Error(t, m.Start(context.Background()))
}

func TestWorkerManager_StartStop(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop(), time.Second)
	a, b := newLoopWorker("a", false), newLoopWorker("b", false)
	m.Register(a)
	m.Register(b)

	require.NoError(t, m.Start(context.Background()))
	require.Eventually(t, func() bool { return a.started.Load() && b.started.Load() }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.True(t, a.IsStopped())
	assert.True(t, b.IsStopped())
}

func TestWorkerManager_StopTimeout(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop(), 50*time.Millisecond)
	stuck := newLoopWorker("stuck", true)
	m.Register(stuck)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))
	require.Eventually(t, stuck.started.Load, time.Second, 5*time.Millisecond)

	assert.Error(t, m.Stop())
}

func TestBaseWorker(t *testing.T) {
	w := worker.NewBaseWorker("bulk", "group", zap.NewNop())
	assert.Equal(t, "bulk", w.Name())
	assert.Equal(t, "group", w.ConsumerGroup())
	assert.NotEmpty(t, w.ConsumerName())

	assert.True(t, w.Idle(time.Millisecond))
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.True(t, w.IsStopped())
	assert.False(t, w.Idle(time.Hour))
}
