package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/route-impact/internal/domain/repository"
	"go.uber.org/zap"
)

// reserveScript - атомарная проверка и инкремент в скользящем окне.
// KEYS[1] - sorted set; ARGV: now(ms), window(ms), limit, member.
// 1 - слот занят, 0 - лимит исчерпан, -1 - member уже в окне.
var reserveScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZSCORE', key, ARGV[4]) then
	return -1
end
if redis.call('ZCARD', key) >= limit then
	return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// releaseChargeScript удаляет закрепление платежа, только если оно принадлежит пакету
var releaseChargeScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type quotaRepository struct {
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewQuotaRepository - квота бесплатных пакетов в Redis
func NewQuotaRepository(redis *Redis) repository.QuotaRepository {
	return &quotaRepository{
		client: redis.Client(),
		logger: redis.logger,
		now:    time.Now,
	}
}

func quotaKey(key string) string {
	return "quota:" + key
}

func chargeKey(chargeID string) string {
	return "charge:" + chargeID
}

func (r *quotaRepository) Reserve(ctx context.Context, key, batchID string, limit int, window time.Duration) (bool, error) {
	now := r.now().UnixMilli()
	res, err := reserveScript.Run(ctx, r.client,
		[]string{quotaKey(key)},
		now, window.Milliseconds(), limit, batchID,
	).Int()
	if err != nil {
		r.logger.Error("Failed to reserve quota", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("quota reserve error: %w", err)
	}

	r.logger.Debug("Quota reserve",
		zap.String("key", key),
		zap.String("batch_id", batchID),
		zap.Int("result", res))
	if res < 0 {
		return false, repository.ErrAlreadyReserved
	}
	return res == 1, nil
}

func (r *quotaRepository) Release(ctx context.Context, key, batchID string) error {
	if err := r.client.ZRem(ctx, quotaKey(key), batchID).Err(); err != nil {
		r.logger.Error("Failed to release quota", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("quota release error: %w", err)
	}
	return nil
}

func (r *quotaRepository) Usage(ctx context.Context, key string, window time.Duration) (int, error) {
	from := r.now().Add(-window).UnixMilli()
	n, err := r.client.ZCount(ctx, quotaKey(key), "("+strconv.FormatInt(from, 10), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("quota usage error: %w", err)
	}
	return int(n), nil
}

// ClaimCharge - SETNX без TTL: оплаченная сессия Stripe остаётся paid навсегда
func (r *quotaRepository) ClaimCharge(ctx context.Context, chargeID, batchID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, chargeKey(chargeID), batchID, 0).Result()
	if err != nil {
		r.logger.Error("Failed to claim charge", zap.String("charge_id", chargeID), zap.Error(err))
		return false, fmt.Errorf("charge claim error: %w", err)
	}
	return ok, nil
}

func (r *quotaRepository) ReleaseCharge(ctx context.Context, chargeID, batchID string) error {
	if err := releaseChargeScript.Run(ctx, r.client, []string{chargeKey(chargeID)}, batchID).Err(); err != nil {
		r.logger.Error("Failed to release charge", zap.String("charge_id", chargeID), zap.Error(err))
		return fmt.Errorf("charge release error: %w", err)
	}
	return nil
}
