// Package worker содержит общую инфраструктуру фоновых воркеров на Redis Streams.
package worker

import "context"

// Worker - долгоживущий потребитель стрима.
// Start блокируется до Stop или отмены ctx.
type Worker interface {
	Start(ctx context.Context) error
	Stop() error
	Name() string
}
