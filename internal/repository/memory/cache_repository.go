package memory

import (
	"context"
	"sync"
	"time"

	"github.com/route-impact/internal/domain/repository"
)

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// CacheRepository - потокобезопасный кеш в памяти процесса с TTL
type CacheRepository struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	now   func() time.Time
}

var _ repository.CacheRepository = (*CacheRepository)(nil)

func NewCacheRepository() *CacheRepository {
	return &CacheRepository{
		items: make(map[string]cacheItem),
		now:   time.Now,
	}
}

func (r *CacheRepository) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	item, ok := r.items[key]
	r.mu.RUnlock()
	if !ok || r.expired(item) {
		return nil, nil
	}
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

func (r *CacheRepository) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	item := cacheItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiresAt = r.now().Add(ttl)
	}
	r.mu.Lock()
	r.items[key] = item
	r.mu.Unlock()
	return nil
}

func (r *CacheRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.items, key)
	r.mu.Unlock()
	return nil
}

func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	v, err := r.Get(ctx, key)
	return v != nil, err
}

func (r *CacheRepository) expired(item cacheItem) bool {
	return !item.expiresAt.IsZero() && !r.now().Before(item.expiresAt)
}
