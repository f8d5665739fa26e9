package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Fellahty/frigosaas-sub002/internal/store"
)

func TestGenerationGuard_OrdersCycles(t *testing.T) {
	var g generationGuard

	gen1 := g.begin()
	gen2 := g.begin()
	require.Less(t, gen1, gen2)

	// The newer cycle publishes first; the older one must be discarded.
	assert.True(t, g.publish(gen2))
	assert.False(t, g.publish(gen1))

	// A cycle begun after the publish still goes through.
	gen3 := g.begin()
	assert.True(t, g.publish(gen3))
}

func TestGenerationGuard_DoublePublish(t *testing.T) {
	var g generationGuard

	gen := g.begin()
	assert.True(t, g.publish(gen))
	assert.False(t, g.publish(gen))
}

func newPollerFixture(t *testing.T, handler http.Handler) (*Poller, *SnapshotCache) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	kv := store.NewMemoryKV()
	cache := NewSnapshotCache(kv, time.Minute, 5*time.Minute, zap.NewNop())
	flespi := NewFlespiClient(server.URL, "token", 5*time.Second, zap.NewNop())
	weather := NewWeatherClient(server.URL, 33.5731, -7.5898, 5*time.Second, zap.NewNop())

	lister := func(ctx context.Context) ([]DeviceTarget, error) {
		return []DeviceTarget{
			{DeviceID: "dev-1", Keys: []string{"ble.sensor.temperature.2", "ble.sensor.humidity.2"}},
		}, nil
	}

	return NewPoller(flespi, weather, cache, lister, time.Minute, 5*time.Minute, zap.NewNop()), cache
}

func TestPoller_RefreshRooms(t *testing.T) {
	poller, cache := newPollerFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":[{"telemetry":{"ble.sensor.temperature.2":{"value":4.5,"ts":1700000000}}}]}`))
	}))

	ctx := context.Background()
	require.NoError(t, poller.RefreshRooms(ctx))

	payload, err := cache.GetDevice(ctx, "dev-1")
	require.NoError(t, err)

	r, err := ResolveChannel(payload, 2)
	require.NoError(t, err)
	assert.Equal(t, 4.5, r.Temperature)
}

func TestPoller_RefreshRooms_DeviceFailureIsNotFatal(t *testing.T) {
	poller, cache := newPollerFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	ctx := context.Background()
	require.NoError(t, poller.RefreshRooms(ctx))

	_, err := cache.GetDevice(ctx, "dev-1")
	assert.ErrorIs(t, err, store.ErrMiss)
}

func TestPoller_RefreshDevice(t *testing.T) {
	poller, cache := newPollerFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":[{"telemetry":{"ble.sensor.temperature.2":{"value":3.9,"ts":1700000100}}}]}`))
	}))

	ctx := context.Background()
	require.NoError(t, poller.RefreshDevice(ctx, "dev-1"))

	payload, err := cache.GetDevice(ctx, "dev-1")
	require.NoError(t, err)

	r, err := ResolveChannel(payload, 2)
	require.NoError(t, err)
	assert.Equal(t, 3.9, r.Temperature)
}

func TestPoller_RefreshDevice_UnknownDevice(t *testing.T) {
	poller, _ := newPollerFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[]}`))
	}))

	err := poller.RefreshDevice(context.Background(), "dev-unknown")
	assert.Error(t, err)
}

func TestPoller_RefreshWeather(t *testing.T) {
	poller, cache := newPollerFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"current":{"temperature_2m":19.5,"relative_humidity_2m":70}}`))
	}))

	ctx := context.Background()
	require.NoError(t, poller.RefreshWeather(ctx))

	weather, err := cache.GetWeather(ctx)
	require.NoError(t, err)
	assert.Equal(t, 19.5, weather.Temperature)
	assert.Equal(t, 70.0, weather.Humidity)
}
