package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// RoomsAPIClient talks to the alternative rooms-latest gateway, which
// reports one flat record per room matched to local rooms by exact name.
type RoomsAPIClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewRoomsAPIClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *RoomsAPIClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}

	return &RoomsAPIClient{
		httpClient: client,
		logger:     logger,
	}
}

// RoomRecord is one room entry from /rooms/latest. Magnet keeps the
// provider's raw shape; normalization happens when the record becomes a
// Reading.
type RoomRecord struct {
	Room        string `json:"room"`
	Temperature any    `json:"temperature"`
	Humidity    any    `json:"humidity"`
	Magnet      any    `json:"magnet"`
	Epoch       int64  `json:"epoch"`
	LocalTime   string `json:"local_time"`
}

type roomsLatestResponse struct {
	Data []RoomRecord `json:"data"`
}

// Latest fetches the newest record of every room the gateway knows.
func (c *RoomsAPIClient) Latest(ctx context.Context) ([]RoomRecord, error) {
	var response roomsLatestResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&response).
		Get("/rooms/latest")

	if err != nil {
		c.logger.Error("rooms-latest call failed", zap.Error(err))
		return nil, fmt.Errorf("failed to call rooms-latest API: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("rooms-latest API status %d", resp.StatusCode())
	}

	c.logger.Debug("Fetched rooms-latest records",
		zap.Int("record_count", len(response.Data)),
	)
	return response.Data, nil
}

// ToReading normalizes one provider record. Records carry no battery
// level; epoch 0 falls back to the wall clock.
func (rec *RoomRecord) ToReading() *Reading {
	r := &Reading{
		Temperature: toFloat(rec.Temperature),
		Humidity:    toFloat(rec.Humidity),
		Magnet:      toMagnet(rec.Magnet),
	}
	if rec.Epoch > 0 {
		r.Timestamp = time.Unix(rec.Epoch, 0)
	} else {
		r.Timestamp = time.Now()
	}
	return r
}
