package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/route-impact/internal/domain/repository"
	"github.com/route-impact/internal/repository/cache"
)

// getTestRedis подключается к Redis из TEST_REDIS_ADDR или пропускает тест
func getTestRedis(t *testing.T) *cache.Redis {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping Redis integration tests")
	}

	client := redis.NewClient(&redis.Options{Addr: addr, DB: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for integration tests: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return cache.NewRedisFromClient(client, zap.NewNop())
}

func TestCacheRepository(t *testing.T) {
	r := getTestRedis(t)
	repo := cache.NewCacheRepository(r)
	ctx := context.Background()
	key := "test:vehicle:" + uuid.NewString()
	defer func() { _ = repo.Delete(ctx, key) }()

	miss, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, repo.Set(ctx, key, []byte(`{"found":false}`), time.Minute))

	got, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":false}`, string(got))

	exists, err := repo.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestQuotaRepository(t *testing.T) {
	r := getTestRedis(t)
	repo := cache.NewQuotaRepository(r)
	ctx := context.Background()
	key := "test-session-" + uuid.NewString()
	defer r.Client().Del(ctx, "quota:"+key)

	for i, batch := range []string{"b1", "b2", "b3"} {
		ok, err := repo.Reserve(ctx, key, batch, 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "reserve %d", i)
	}

	ok, err := repo.Reserve(ctx, key, "b4", 3, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	// пакет, уже занявший слот, повторно не проходит
	ok, err = repo.Reserve(ctx, key, "b1", 3, time.Hour)
	assert.ErrorIs(t, err, repository.ErrAlreadyReserved)
	assert.False(t, ok)

	require.NoError(t, repo.Release(ctx, key, "b2"))
	used, err := repo.Usage(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, used)

	ok, err = repo.Reserve(ctx, key, "b4", 3, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQuotaRepository_ClaimCharge(t *testing.T) {
	r := getTestRedis(t)
	repo := cache.NewQuotaRepository(r)
	ctx := context.Background()
	chargeID := "cs_test_" + uuid.NewString()
	defer r.Client().Del(ctx, "charge:"+chargeID)

	ok, err := repo.ClaimCharge(ctx, chargeID, "b1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ClaimCharge(ctx, chargeID, "b2")
	require.NoError(t, err)
	assert.False(t, ok)

	// чужой пакет не снимает закрепление
	require.NoError(t, repo.ReleaseCharge(ctx, chargeID, "b2"))
	ok, _ = repo.ClaimCharge(ctx, chargeID, "b2")
	assert.False(t, ok)

	require.NoError(t, repo.ReleaseCharge(ctx, chargeID, "b1"))
	ok, err = repo.ClaimCharge(ctx, chargeID, "b2")
	require.NoError(t, err)
	assert.True(t, ok)
}
