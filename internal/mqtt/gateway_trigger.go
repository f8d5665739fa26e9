package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// deviceRefresher is the poller-side surface the trigger needs: drop the
// cached snapshot, then refetch the device out of band.
type deviceRefresher interface {
	RefreshDevice(ctx context.Context, deviceID string) error
}

type snapshotInvalidator interface {
	InvalidateDevice(ctx context.Context, deviceID string) error
}

// GatewayTrigger handles gateway push notifications (door magnet events
// mostly) so a room card updates between polls instead of waiting for
// the next cycle. Subscribed to a topic like frigosaas/gateway/+/event.
type GatewayTrigger struct {
	refresher   deviceRefresher
	invalidator snapshotInvalidator
	timeout     time.Duration
	logger      *zap.Logger
}

func NewGatewayTrigger(refresher deviceRefresher, invalidator snapshotInvalidator, logger *zap.Logger) *GatewayTrigger {
	return &GatewayTrigger{
		refresher:   refresher,
		invalidator: invalidator,
		timeout:     15 * time.Second,
		logger:      logger,
	}
}

// pushEvent is the minimal payload shape the gateway publishes. Only the
// device id matters; the refresh refetches authoritative state over HTTP.
type pushEvent struct {
	DeviceID string `json:"device_id"`
}

// HandleMessage satisfies the broker client's MessageHandler. Errors are
// returned for logging but never take the subscription down.
func (t *GatewayTrigger) HandleMessage(topic string, payload []byte) error {
	deviceID := ExtractDeviceID(topic, payload)
	if deviceID == "" {
		return fmt.Errorf("no device id in push on topic %s", topic)
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if err := t.invalidator.InvalidateDevice(ctx, deviceID); err != nil {
		t.logger.Warn("Failed to invalidate device snapshot",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
	}

	if err := t.refresher.RefreshDevice(ctx, deviceID); err != nil {
		return fmt.Errorf("failed to refresh device %s on push: %w", deviceID, err)
	}

	t.logger.Info("Refreshed device on gateway push",
		zap.String("device_id", deviceID),
		zap.String("topic", topic),
	)
	return nil
}

// ExtractDeviceID resolves the device a push concerns. The topic segment
// wins (frigosaas/gateway/{deviceID}/event); a device_id field in the
// JSON body is the fallback for brokers that publish on a flat topic.
func ExtractDeviceID(topic string, payload []byte) string {
	parts := strings.Split(topic, "/")
	for i, part := range parts {
		if part == "gateway" && i+1 < len(parts) && parts[i+1] != "" && parts[i+1] != "event" {
			return parts[i+1]
		}
	}

	var evt pushEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return ""
	}
	return evt.DeviceID
}
