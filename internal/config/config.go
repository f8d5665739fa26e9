package config

import (
	"os"
	"strconv"
	"time"

	commoncfg "github.com/Fellahty/frigosaas-sub002/pkg/config"
)

// Config holds everything the frigosaas API server needs.
type Config struct {
	HTTP struct {
		Addr string
	}
	Database commoncfg.DatabaseConfig
	Redis    struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	Flespi   FlespiConfig
	RoomsAPI RoomsAPIConfig
	Weather  WeatherConfig
	Poll     PollConfig
	MQTT     MQTTTriggerConfig
}

// FlespiConfig points at the channel-style telemetry gateway.
type FlespiConfig struct {
	BaseURL string // gateway base, e.g. "https://flespi.io"
	Token   string // bearer token
	Timeout time.Duration
}

// RoomsAPIConfig points at the rooms-latest style telemetry endpoint.
type RoomsAPIConfig struct {
	BaseURL string
	Token   string // optional
	Timeout time.Duration
}

// WeatherConfig points at the public forecast API for the outdoor card.
type WeatherConfig struct {
	BaseURL   string
	Latitude  float64
	Longitude float64
	Timeout   time.Duration
}

// PollConfig sets the background refresh cadence.
type PollConfig struct {
	RoomInterval    time.Duration // room telemetry refresh (default 60s)
	WeatherInterval time.Duration // outdoor weather refresh (default 5m)
	SnapshotTTL     time.Duration // device snapshot cache TTL (default 60s)
}

// MQTTTriggerConfig enables immediate device refresh on gateway push.
// Disabled by default; without it, door events wait for the next poll.
type MQTTTriggerConfig struct {
	Enabled  bool
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
}

// Load reads configuration from environment variables with defaults that
// work for a local dev stack (Postgres + Redis on localhost).
func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "frigosaas")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	// Redis is optional: with REDIS_ENABLED=false the server keeps telemetry
	// snapshots in process memory instead.
	cfg.Redis.Enabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Flespi.BaseURL = getEnv("FLESPI_BASE_URL", "https://flespi.io")
	cfg.Flespi.Token = getEnv("FLESPI_TOKEN", "")
	cfg.Flespi.Timeout = parseSeconds(getEnv("FLESPI_TIMEOUT", "10"), 10*time.Second)

	cfg.RoomsAPI.BaseURL = getEnv("ROOMS_API_BASE_URL", "")
	cfg.RoomsAPI.Token = getEnv("ROOMS_API_TOKEN", "")
	cfg.RoomsAPI.Timeout = parseSeconds(getEnv("ROOMS_API_TIMEOUT", "10"), 10*time.Second)

	cfg.Weather.BaseURL = getEnv("WEATHER_BASE_URL", "https://api.open-meteo.com")
	cfg.Weather.Latitude = parseFloat(getEnv("WEATHER_LATITUDE", "33.5731"), 33.5731)
	cfg.Weather.Longitude = parseFloat(getEnv("WEATHER_LONGITUDE", "-7.5898"), -7.5898)
	cfg.Weather.Timeout = parseSeconds(getEnv("WEATHER_TIMEOUT", "10"), 10*time.Second)

	cfg.Poll.RoomInterval = parseSeconds(getEnv("POLL_ROOM_INTERVAL", "60"), 60*time.Second)
	cfg.Poll.WeatherInterval = parseSeconds(getEnv("POLL_WEATHER_INTERVAL", "300"), 5*time.Minute)
	cfg.Poll.SnapshotTTL = parseSeconds(getEnv("POLL_SNAPSHOT_TTL", "60"), 60*time.Second)

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "frigosaas-trigger")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "frigosaas/gateway/+/event")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}

func parseSeconds(s string, def time.Duration) time.Duration {
	i, err := strconv.Atoi(s)
	if err != nil || i <= 0 {
		return def
	}
	return time.Duration(i) * time.Second
}
