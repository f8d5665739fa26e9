package telemetry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Weather is the outdoor reference shown next to the room cards.
type Weather struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// WeatherClient fetches the current outdoor conditions for the facility's
// fixed coordinates from an open-meteo style forecast endpoint.
type WeatherClient struct {
	httpClient *resty.Client
	latitude   float64
	longitude  float64
	logger     *zap.Logger
}

func NewWeatherClient(baseURL string, latitude, longitude float64, timeout time.Duration, logger *zap.Logger) *WeatherClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")

	return &WeatherClient{
		httpClient: client,
		latitude:   latitude,
		longitude:  longitude,
		logger:     logger,
	}
}

type forecastResponse struct {
	Current struct {
		Temperature2m      float64 `json:"temperature_2m"`
		RelativeHumidity2m float64 `json:"relative_humidity_2m"`
	} `json:"current"`
}

// Current fetches the present outdoor temperature and humidity.
func (c *WeatherClient) Current(ctx context.Context) (*Weather, error) {
	var response forecastResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("latitude", strconv.FormatFloat(c.latitude, 'f', 4, 64)).
		SetQueryParam("longitude", strconv.FormatFloat(c.longitude, 'f', 4, 64)).
		SetQueryParam("current", "temperature_2m,relative_humidity_2m").
		SetResult(&response).
		Get("/v1/forecast")

	if err != nil {
		c.logger.Error("Weather call failed", zap.Error(err))
		return nil, fmt.Errorf("failed to call weather API: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("weather API status %d", resp.StatusCode())
	}

	return &Weather{
		Temperature: response.Current.Temperature2m,
		Humidity:    response.Current.RelativeHumidity2m,
		FetchedAt:   time.Now(),
	}, nil
}
