package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Fellahty/frigosaas-sub002/internal/config"
	httpapi "github.com/Fellahty/frigosaas-sub002/internal/http"
	internalmqtt "github.com/Fellahty/frigosaas-sub002/internal/mqtt"
	"github.com/Fellahty/frigosaas-sub002/internal/repository"
	"github.com/Fellahty/frigosaas-sub002/internal/service"
	"github.com/Fellahty/frigosaas-sub002/internal/store"
	"github.com/Fellahty/frigosaas-sub002/internal/telemetry"
	commoncfg "github.com/Fellahty/frigosaas-sub002/pkg/config"
	"github.com/Fellahty/frigosaas-sub002/pkg/database"
	"github.com/Fellahty/frigosaas-sub002/pkg/logger"
	pkgmqtt "github.com/Fellahty/frigosaas-sub002/pkg/mqtt"
	pkgredis "github.com/Fellahty/frigosaas-sub002/pkg/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zapLogger, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "frigosaas")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	// Postgres holds every tenant entity; the server cannot run without it.
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Redis is the snapshot cache; without it telemetry lives in process
	// memory, which is fine for a single instance.
	var kv store.KV
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = pkgredis.NewRedisClient(&commoncfg.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		kv = store.NewRedisKV(redisClient)
		zapLogger.Info("Using Redis snapshot cache", zap.String("addr", cfg.Redis.Addr))
	} else {
		kv = store.NewMemoryKV()
		zapLogger.Info("Redis disabled, using in-process snapshot cache")
	}

	roomsRepo := repository.NewPostgresRoomsRepository(db)
	clientsRepo := repository.NewPostgresClientsRepository(db)
	cashRepo := repository.NewPostgresCashRepository(db)
	crateTypesRepo := repository.NewPostgresCrateTypesRepository(db)
	settingsRepo := repository.NewPostgresSettingsRepository(db)
	tenantsRepo := repository.NewPostgresTenantsRepository(db)

	cache := telemetry.NewSnapshotCache(kv, cfg.Poll.SnapshotTTL, cfg.Poll.WeatherInterval, zapLogger)
	flespi := telemetry.NewFlespiClient(cfg.Flespi.BaseURL, cfg.Flespi.Token, cfg.Flespi.Timeout, zapLogger)
	roomsAPI := telemetry.NewRoomsAPIClient(cfg.RoomsAPI.BaseURL, cfg.RoomsAPI.Token, cfg.RoomsAPI.Timeout, zapLogger)
	weather := telemetry.NewWeatherClient(cfg.Weather.BaseURL, cfg.Weather.Latitude, cfg.Weather.Longitude, cfg.Weather.Timeout, zapLogger)

	listDevices := func(ctx context.Context) ([]telemetry.DeviceTarget, error) {
		rooms, err := roomsRepo.ListPollTargets(ctx)
		if err != nil {
			return nil, err
		}
		return service.TargetsForRooms(rooms), nil
	}
	poller := telemetry.NewPoller(flespi, weather, cache, listDevices,
		cfg.Poll.RoomInterval, cfg.Poll.WeatherInterval, zapLogger)

	roomStatusSvc := service.NewRoomStatusService(roomsRepo, settingsRepo, cache, flespi, roomsAPI, weather, zapLogger)
	cashSvc := service.NewCashService(cashRepo, settingsRepo, zapLogger)

	router := httpapi.NewRouter(zapLogger)
	router.RegisterRoomRoutes(httpapi.NewRoomsHandler(roomsRepo, zapLogger))
	router.RegisterClientRoutes(httpapi.NewClientsHandler(clientsRepo, zapLogger))
	router.RegisterCrateTypeRoutes(httpapi.NewCrateTypesHandler(crateTypesRepo, zapLogger))
	router.RegisterSettingsRoutes(httpapi.NewSettingsHandler(settingsRepo, zapLogger))
	router.RegisterCashRoutes(httpapi.NewCashHandler(cashSvc, zapLogger))
	router.RegisterDashboardRoutes(httpapi.NewDashboardHandler(roomStatusSvc, poller, zapLogger))
	router.RegisterAdminTenantRoutes(httpapi.NewTenantsHandler(tenantsRepo, zapLogger))
	router.RegisterDoctorRoutes(httpapi.NewDoctorHandler(db, redisClient, zapLogger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := poller.Start(ctx); err != nil {
			zapLogger.Error("Telemetry poller stopped", zap.Error(err))
		}
	}()

	// Gateway push trigger: refresh a device's snapshot the moment the
	// broker announces an event instead of waiting for the next poll.
	if cfg.MQTT.Enabled {
		mqttClient, err := pkgmqtt.NewClient(&commoncfg.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		}, zapLogger)
		if err != nil {
			zapLogger.Warn("MQTT trigger disabled, broker unreachable", zap.Error(err))
		} else {
			defer mqttClient.Disconnect()
			trigger := internalmqtt.NewGatewayTrigger(poller, cache, zapLogger)
			if err := mqttClient.Subscribe(cfg.MQTT.Topic, 1, trigger.HandleMessage); err != nil {
				zapLogger.Warn("Failed to subscribe gateway trigger", zap.Error(err))
			} else {
				zapLogger.Info("Gateway push trigger active", zap.String("topic", cfg.MQTT.Topic))
			}
		}
	}

	srv := service.NewServer(cfg.HTTP.Addr, router, zapLogger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		zapLogger.Error("HTTP server exited", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}
