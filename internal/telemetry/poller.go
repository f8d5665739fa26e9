package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DeviceTarget is one gateway device to poll, with the telemetry fields
// its rooms need.
type DeviceTarget struct {
	DeviceID string
	Keys     []string
}

// DeviceLister enumerates the devices to poll each cycle.
type DeviceLister func(ctx context.Context) ([]DeviceTarget, error)

// generationGuard orders refresh cycles so a slow cycle cannot overwrite
// results a newer cycle already published.
type generationGuard struct {
	mu        sync.Mutex
	nextGen   uint64
	published uint64
}

func (g *generationGuard) begin() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextGen++
	return g.nextGen
}

// publish reports whether cycle gen may write its results.
func (g *generationGuard) publish(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen <= g.published {
		return false
	}
	g.published = gen
	return true
}

// Poller keeps the snapshot cache warm: device telemetry on the room
// interval, outdoor weather on its own slower interval. Each refresh
// cycle carries a generation; a cycle that finishes after a newer one
// has published is discarded instead of overwriting fresher data.
type Poller struct {
	flespi          *FlespiClient
	weatherClient   *WeatherClient
	cache           *SnapshotCache
	listDevices     DeviceLister
	roomInterval    time.Duration
	weatherInterval time.Duration
	logger          *zap.Logger

	roomGuard    generationGuard
	weatherGuard generationGuard
}

func NewPoller(
	flespi *FlespiClient,
	weatherClient *WeatherClient,
	cache *SnapshotCache,
	listDevices DeviceLister,
	roomInterval, weatherInterval time.Duration,
	logger *zap.Logger,
) *Poller {
	return &Poller{
		flespi:          flespi,
		weatherClient:   weatherClient,
		cache:           cache,
		listDevices:     listDevices,
		roomInterval:    roomInterval,
		weatherInterval: weatherInterval,
		logger:          logger,
	}
}

// Start runs both refresh loops until the context is cancelled. The
// weather loop runs in its own goroutine; the room loop blocks.
func (p *Poller) Start(ctx context.Context) error {
	p.logger.Info("Starting telemetry poller",
		zap.Duration("room_interval", p.roomInterval),
		zap.Duration("weather_interval", p.weatherInterval),
	)

	go p.startWeatherLoop(ctx)

	ticker := time.NewTicker(p.roomInterval)
	defer ticker.Stop()

	if err := p.RefreshRooms(ctx); err != nil {
		p.logger.Error("Failed to refresh rooms on startup", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.RefreshRooms(ctx); err != nil {
				p.logger.Error("Failed to refresh rooms", zap.Error(err))
			}
		}
	}
}

// RefreshRooms runs one full device refresh cycle.
func (p *Poller) RefreshRooms(ctx context.Context) error {
	gen := p.roomGuard.begin()

	targets, err := p.listDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list poll targets: %w", err)
	}

	payloads := make(map[string]DevicePayload, len(targets))
	errorCount := 0
	for _, target := range targets {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		payload, err := p.flespi.Telemetry(ctx, target.DeviceID, target.Keys)
		if err != nil {
			p.logger.Warn("Device refresh failed",
				zap.String("device_id", target.DeviceID),
				zap.Error(err),
			)
			errorCount++
			continue
		}
		payloads[target.DeviceID] = payload
	}

	if !p.roomGuard.publish(gen) {
		p.logger.Debug("Discarding superseded refresh cycle",
			zap.Uint64("generation", gen),
		)
		return nil
	}

	for deviceID, payload := range payloads {
		if err := p.cache.SetDevice(ctx, deviceID, payload); err != nil {
			p.logger.Error("Failed to cache device snapshot",
				zap.String("device_id", deviceID),
				zap.Error(err),
			)
			errorCount++
		}
	}

	p.logger.Info("Completed room refresh cycle",
		zap.Uint64("generation", gen),
		zap.Int("device_count", len(targets)),
		zap.Int("error_count", errorCount),
	)
	return nil
}

// RefreshDevice refetches a single device out of band, typically on a
// gateway push. The refresh takes part in the same cycle ordering as
// the polling loop.
func (p *Poller) RefreshDevice(ctx context.Context, deviceID string) error {
	targets, err := p.listDevices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list poll targets: %w", err)
	}

	var target *DeviceTarget
	for i := range targets {
		if targets[i].DeviceID == deviceID {
			target = &targets[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("device %s is not a poll target", deviceID)
	}

	gen := p.roomGuard.begin()

	payload, err := p.flespi.Telemetry(ctx, target.DeviceID, target.Keys)
	if err != nil {
		return fmt.Errorf("failed to refresh device %s: %w", deviceID, err)
	}

	if !p.roomGuard.publish(gen) {
		return nil
	}
	if err := p.cache.SetDevice(ctx, deviceID, payload); err != nil {
		return fmt.Errorf("failed to cache device snapshot: %w", err)
	}

	p.logger.Info("Refreshed device out of band",
		zap.String("device_id", deviceID),
	)
	return nil
}

func (p *Poller) startWeatherLoop(ctx context.Context) {
	ticker := time.NewTicker(p.weatherInterval)
	defer ticker.Stop()

	if err := p.RefreshWeather(ctx); err != nil {
		p.logger.Error("Failed to refresh weather on startup", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.RefreshWeather(ctx); err != nil {
				p.logger.Error("Failed to refresh weather", zap.Error(err))
			}
		}
	}
}

// RefreshWeather fetches the current outdoor conditions once.
func (p *Poller) RefreshWeather(ctx context.Context) error {
	gen := p.weatherGuard.begin()

	weather, err := p.weatherClient.Current(ctx)
	if err != nil {
		return err
	}

	if !p.weatherGuard.publish(gen) {
		return nil
	}
	if err := p.cache.SetWeather(ctx, weather); err != nil {
		return err
	}

	p.logger.Debug("Refreshed weather",
		zap.Float64("temperature", weather.Temperature),
		zap.Float64("humidity", weather.Humidity),
	)
	return nil
}
