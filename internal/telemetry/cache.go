package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Fellahty/frigosaas-sub002/internal/store"
)

const weatherKey = "telemetry:weather"

func deviceKey(deviceID string) string {
	return fmt.Sprintf("telemetry:device:%s", deviceID)
}

// SnapshotCache keeps the latest device payloads and the outdoor weather
// in the KV store so one dashboard refresh cycle hits each provider at
// most once. Staleness is handled by TTL alone.
type SnapshotCache struct {
	kv         store.KV
	deviceTTL  time.Duration
	weatherTTL time.Duration
	logger     *zap.Logger
}

func NewSnapshotCache(kv store.KV, deviceTTL, weatherTTL time.Duration, logger *zap.Logger) *SnapshotCache {
	return &SnapshotCache{
		kv:         kv,
		deviceTTL:  deviceTTL,
		weatherTTL: weatherTTL,
		logger:     logger,
	}
}

// GetDevice returns the cached payload for a device. A corrupt entry
// counts as a miss.
func (c *SnapshotCache) GetDevice(ctx context.Context, deviceID string) (DevicePayload, error) {
	raw, err := c.kv.Get(ctx, deviceKey(deviceID))
	if err != nil {
		return nil, err
	}

	var payload DevicePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		c.logger.Warn("Dropping corrupt device snapshot",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return nil, store.ErrMiss
	}
	return payload, nil
}

func (c *SnapshotCache) SetDevice(ctx context.Context, deviceID string, payload DevicePayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal device snapshot: %w", err)
	}
	if err := c.kv.Set(ctx, deviceKey(deviceID), string(jsonData), c.deviceTTL); err != nil {
		return fmt.Errorf("failed to cache device snapshot: %w", err)
	}

	c.logger.Debug("Updated device snapshot",
		zap.String("device_id", deviceID),
		zap.Duration("ttl", c.deviceTTL),
	)
	return nil
}

// InvalidateDevice drops a device snapshot so the next read refetches.
// Used when the gateway pushes an event between polls.
func (c *SnapshotCache) InvalidateDevice(ctx context.Context, deviceID string) error {
	return c.kv.Delete(ctx, deviceKey(deviceID))
}

func (c *SnapshotCache) GetWeather(ctx context.Context) (*Weather, error) {
	raw, err := c.kv.Get(ctx, weatherKey)
	if err != nil {
		return nil, err
	}

	var weather Weather
	if err := json.Unmarshal([]byte(raw), &weather); err != nil {
		c.logger.Warn("Dropping corrupt weather snapshot", zap.Error(err))
		return nil, store.ErrMiss
	}
	return &weather, nil
}

func (c *SnapshotCache) SetWeather(ctx context.Context, weather *Weather) error {
	jsonData, err := json.Marshal(weather)
	if err != nil {
		return fmt.Errorf("failed to marshal weather snapshot: %w", err)
	}
	if err := c.kv.Set(ctx, weatherKey, string(jsonData), c.weatherTTL); err != nil {
		return fmt.Errorf("failed to cache weather snapshot: %w", err)
	}
	return nil
}
