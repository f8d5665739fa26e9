package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisKV(t *testing.T) (*miniredis.Miniredis, *RedisKV) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return mr, NewRedisKV(client)
}

func TestRedisKV_SetGet(t *testing.T) {
	_, kv := setupRedisKV(t)
	ctx := context.Background()

	err := kv.Set(ctx, "telemetry:device:dev-1", `{"temp":4.5}`, time.Minute)
	require.NoError(t, err)

	val, err := kv.Get(ctx, "telemetry:device:dev-1")
	require.NoError(t, err)
	assert.Equal(t, `{"temp":4.5}`, val)
}

func TestRedisKV_Get_Miss(t *testing.T) {
	_, kv := setupRedisKV(t)

	_, err := kv.Get(context.Background(), "telemetry:device:missing")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_TTLExpiry(t *testing.T) {
	mr, kv := setupRedisKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "telemetry:weather", "{}", 30*time.Second))

	mr.FastForward(31 * time.Second)

	_, err := kv.Get(ctx, "telemetry:weather")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedisKV_Delete(t *testing.T) {
	_, kv := setupRedisKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "telemetry:device:dev-2", "x", 0))
	require.NoError(t, kv.Delete(ctx, "telemetry:device:dev-2"))

	_, err := kv.Get(ctx, "telemetry:device:dev-2")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryKV_SetGet(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", 0))

	val, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}

func TestMemoryKV_Expiry(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryKV_Delete(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, "k", "v", 0))
	require.NoError(t, kv.Delete(ctx, "k"))

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}
