package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// FlespiClient talks to the flespi-style gateway that hosts the boitie
// devices. Telemetry is the latest snapshot per field; Messages replays
// the raw history window.
type FlespiClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewFlespiClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *FlespiClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetAuthToken(token).
		SetHeader("Accept", "application/json")

	return &FlespiClient{
		httpClient: client,
		logger:     logger,
	}
}

type flespiTelemetryResponse struct {
	Result []struct {
		Telemetry DevicePayload `json:"telemetry"`
	} `json:"result"`
}

// Telemetry fetches the latest values of the given fields for one device.
func (c *FlespiClient) Telemetry(ctx context.Context, deviceID string, keys []string) (DevicePayload, error) {
	var response flespiTelemetryResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&response).
		Get(fmt.Sprintf("/gw/devices/%s/telemetry/%s", deviceID, strings.Join(keys, ",")))

	if err != nil {
		c.logger.Error("Flespi telemetry call failed",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to call Flespi telemetry API: %w", err)
	}
	if resp.StatusCode() != 200 {
		c.logger.Error("Flespi telemetry returned non-200",
			zap.String("device_id", deviceID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("Flespi telemetry API status %d", resp.StatusCode())
	}
	if len(response.Result) == 0 {
		return nil, fmt.Errorf("Flespi telemetry API returned empty result for device %s", deviceID)
	}

	c.logger.Debug("Fetched device telemetry",
		zap.String("device_id", deviceID),
		zap.Int("field_count", len(response.Result[0].Telemetry)),
	)
	return response.Result[0].Telemetry, nil
}

// Message is one raw history record: flat field map plus a "timestamp"
// key in unix seconds.
type Message map[string]any

type flespiMessagesResponse struct {
	Result []Message `json:"result"`
}

// Messages replays the device's raw messages between from and to
// (unix seconds, inclusive).
func (c *FlespiClient) Messages(ctx context.Context, deviceID string, from, to int64) ([]Message, error) {
	window, err := json.Marshal(map[string]int64{"from": from, "to": to})
	if err != nil {
		return nil, fmt.Errorf("failed to encode message window: %w", err)
	}

	var response flespiMessagesResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("data", string(window)).
		SetResult(&response).
		Get(fmt.Sprintf("/gw/devices/%s/messages", deviceID))

	if err != nil {
		c.logger.Error("Flespi messages call failed",
			zap.String("device_id", deviceID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to call Flespi messages API: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("Flespi messages API status %d", resp.StatusCode())
	}

	c.logger.Debug("Fetched device history",
		zap.String("device_id", deviceID),
		zap.Int64("from", from),
		zap.Int64("to", to),
		zap.Int("message_count", len(response.Result)),
	)
	return response.Result, nil
}
