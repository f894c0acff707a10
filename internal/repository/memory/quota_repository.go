package memory

import (
	"context"
	"sync"
	"time"

	"github.com/route-impact/internal/domain/repository"
)

// QuotaRepository - скользящее окно в памяти; Reserve атомарен под мьютексом
type QuotaRepository struct {
	mu      sync.Mutex
	entries map[string]map[string]time.Time
	charges map[string]string
	now     func() time.Time
}

var _ repository.QuotaRepository = (*QuotaRepository)(nil)

func NewQuotaRepository() *QuotaRepository {
	return &QuotaRepository{
		entries: make(map[string]map[string]time.Time),
		charges: make(map[string]string),
		now:     time.Now,
	}
}

// WithClock подменяет часы (тесты)
func (r *QuotaRepository) WithClock(now func() time.Time) *QuotaRepository {
	r.now = now
	return r
}

func (r *QuotaRepository) Reserve(_ context.Context, key, batchID string, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	slots := r.prune(key, now, window)
	if _, ok := slots[batchID]; ok {
		return false, repository.ErrAlreadyReserved
	}
	if len(slots) >= limit {
		return false, nil
	}
	slots[batchID] = now
	return true, nil
}

func (r *QuotaRepository) Release(_ context.Context, key, batchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries[key], batchID)
	return nil
}

func (r *QuotaRepository) Usage(_ context.Context, key string, window time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prune(key, r.now(), window)), nil
}

func (r *QuotaRepository) ClaimCharge(_ context.Context, chargeID, batchID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.charges[chargeID]; ok {
		return false, nil
	}
	r.charges[chargeID] = batchID
	return true, nil
}

func (r *QuotaRepository) ReleaseCharge(_ context.Context, chargeID, batchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.charges[chargeID] == batchID {
		delete(r.charges, chargeID)
	}
	return nil
}

func (r *QuotaRepository) prune(key string, now time.Time, window time.Duration) map[string]time.Time {
	slots, ok := r.entries[key]
	if !ok {
		slots = make(map[string]time.Time)
		r.entries[key] = slots
	}
	for id, at := range slots {
		if !at.After(now.Add(-window)) {
			delete(slots, id)
		}
	}
	return slots
}
