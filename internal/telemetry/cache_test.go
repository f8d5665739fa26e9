package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Fellahty/frigosaas-sub002/internal/store"
)

func setupCache(t *testing.T) (*miniredis.Miniredis, *SnapshotCache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	cache := NewSnapshotCache(store.NewRedisKV(client), time.Minute, 5*time.Minute, zap.NewNop())
	return mr, cache
}

func TestSnapshotCache_Device(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	payload := DevicePayload{
		"ble.sensor.temperature.2": {Value: 4.5, TS: 1700000000},
	}
	require.NoError(t, cache.SetDevice(ctx, "dev-1", payload))

	got, err := cache.GetDevice(ctx, "dev-1")
	require.NoError(t, err)

	field, ok := got["ble.sensor.temperature.2"]
	require.True(t, ok)
	assert.Equal(t, 4.5, field.Value)
	assert.Equal(t, int64(1700000000), field.TS)
}

func TestSnapshotCache_Device_Miss(t *testing.T) {
	_, cache := setupCache(t)

	_, err := cache.GetDevice(context.Background(), "dev-unknown")
	assert.ErrorIs(t, err, store.ErrMiss)
}

func TestSnapshotCache_Device_TTL(t *testing.T) {
	mr, cache := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetDevice(ctx, "dev-1", DevicePayload{}))

	mr.FastForward(61 * time.Second)

	_, err := cache.GetDevice(ctx, "dev-1")
	assert.ErrorIs(t, err, store.ErrMiss)
}

func TestSnapshotCache_Device_CorruptEntryIsMiss(t *testing.T) {
	mr, cache := setupCache(t)

	mr.Set("telemetry:device:dev-1", "{not json")

	_, err := cache.GetDevice(context.Background(), "dev-1")
	assert.ErrorIs(t, err, store.ErrMiss)
}

func TestSnapshotCache_InvalidateDevice(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	require.NoError(t, cache.SetDevice(ctx, "dev-1", DevicePayload{}))
	require.NoError(t, cache.InvalidateDevice(ctx, "dev-1"))

	_, err := cache.GetDevice(ctx, "dev-1")
	assert.ErrorIs(t, err, store.ErrMiss)
}

func TestSnapshotCache_Weather(t *testing.T) {
	_, cache := setupCache(t)
	ctx := context.Background()

	in := &Weather{Temperature: 24.3, Humidity: 61, FetchedAt: time.Unix(1700000000, 0)}
	require.NoError(t, cache.SetWeather(ctx, in))

	out, err := cache.GetWeather(ctx)
	require.NoError(t, err)
	assert.Equal(t, 24.3, out.Temperature)
	assert.Equal(t, 61.0, out.Humidity)
}
