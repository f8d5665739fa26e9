package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"time"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
	"github.com/Fellahty/frigosaas-sub002/internal/layout"
	"github.com/Fellahty/frigosaas-sub002/internal/repository"
	"github.com/Fellahty/frigosaas-sub002/internal/store"
	"github.com/Fellahty/frigosaas-sub002/internal/telemetry"

	"go.uber.org/zap"
)

// Telemetry source selection, per tenant app settings.
const (
	SourceGateway  = "gateway"
	SourceRoomsAPI = "rooms-api"
)

// Room status values.
const (
	StatusOK       = "ok"
	StatusOffline  = "offline"
	StatusNoSensor = "no-sensor"
)

// flespiClient is the gateway telemetry surface the service needs,
// kept as an interface for tests.
type flespiClient interface {
	Telemetry(ctx context.Context, deviceID string, keys []string) (telemetry.DevicePayload, error)
	Messages(ctx context.Context, deviceID string, from, to int64) ([]telemetry.Message, error)
}

type roomsAPIClient interface {
	Latest(ctx context.Context) ([]telemetry.RoomRecord, error)
}

type weatherProvider interface {
	Current(ctx context.Context) (*telemetry.Weather, error)
}

// RoomStatusService serves the dashboard's live-state views.
type RoomStatusService interface {
	// Snapshot returns the current state of every room of a tenant.
	Snapshot(ctx context.Context, req SnapshotRequest) (*SnapshotResponse, error)

	// RoomHistory returns a reading series for one room.
	RoomHistory(ctx context.Context, req RoomHistoryRequest) (*RoomHistoryResponse, error)

	// Layout returns 3D positions for the tenant's active rooms.
	Layout(ctx context.Context, req LayoutRequest) (*LayoutResponse, error)

	// Weather returns outdoor conditions, shared across tenants.
	Weather(ctx context.Context) (*telemetry.Weather, error)
}

type roomStatusService struct {
	roomsRepo    repository.RoomsRepo
	settingsRepo repository.SettingsRepo
	cache        *telemetry.SnapshotCache
	flespi       flespiClient
	roomsAPI     roomsAPIClient
	weather      weatherProvider
	logger       *zap.Logger
}

// NewRoomStatusService creates a RoomStatusService instance.
func NewRoomStatusService(
	roomsRepo repository.RoomsRepo,
	settingsRepo repository.SettingsRepo,
	cache *telemetry.SnapshotCache,
	flespi flespiClient,
	roomsAPI roomsAPIClient,
	weather weatherProvider,
	logger *zap.Logger,
) RoomStatusService {
	return &roomStatusService{
		roomsRepo:    roomsRepo,
		settingsRepo: settingsRepo,
		cache:        cache,
		flespi:       flespi,
		roomsAPI:     roomsAPI,
		weather:      weather,
		logger:       logger,
	}
}

// ============================================
// Request/Response DTOs
// ============================================

type SnapshotRequest struct {
	TenantID string // required
}

// RoomStatus is the live state of one room.
type RoomStatus struct {
	RoomID         string             `json:"room_id"`
	RoomName       string             `json:"room_name"`
	ATHGroupNumber int                `json:"ath_group_number"`
	Status         string             `json:"status"`
	Online         bool               `json:"online"`
	DoorOpen       bool               `json:"door_open"`
	Reading        *telemetry.Reading `json:"reading,omitempty"`
	UpdatedAt      *time.Time         `json:"updated_at,omitempty"`
}

type SnapshotResponse struct {
	Source string       `json:"source"`
	Rooms  []RoomStatus `json:"rooms"`
}

type RoomHistoryRequest struct {
	TenantID string    // required
	RoomID   string    // required
	From     time.Time // optional, defaults to To-24h
	To       time.Time // optional, defaults to now
}

type RoomHistoryResponse struct {
	RoomID    string              `json:"room_id"`
	RoomName  string              `json:"room_name"`
	Synthetic bool                `json:"synthetic"`
	Points    []telemetry.Reading `json:"points"`
}

type LayoutRequest struct {
	TenantID string // required
}

// LayoutRoom is a computed position tagged with room identity.
type LayoutRoom struct {
	layout.Position
	RoomName       string `json:"room_name"`
	CapacityCrates int    `json:"capacity_crates"`
}

type LayoutResponse struct {
	Rooms []LayoutRoom `json:"rooms"`
}

// ============================================
// Snapshot
// ============================================

func (s *roomStatusService) Snapshot(ctx context.Context, req SnapshotRequest) (*SnapshotResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	rooms, err := s.roomsRepo.ListRooms(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	source := s.telemetrySource(ctx, req.TenantID)

	var readings map[string]*telemetry.Reading
	switch source {
	case SourceRoomsAPI:
		readings = s.readingsFromRoomsAPI(ctx, rooms)
	default:
		readings = s.readingsFromGateway(ctx, rooms)
	}

	statuses := make([]RoomStatus, 0, len(rooms))
	for _, room := range rooms {
		st := RoomStatus{
			RoomID:         room.RoomID,
			RoomName:       room.RoomName,
			ATHGroupNumber: room.ATHGroupNumber,
		}
		if !room.Active || !room.SensorInstalled {
			st.Status = StatusNoSensor
			statuses = append(statuses, st)
			continue
		}
		if reading, ok := readings[room.RoomID]; ok {
			st.Status = StatusOK
			st.Online = true
			st.DoorOpen = reading.Magnet == 0
			st.Reading = reading
			ts := reading.Timestamp
			st.UpdatedAt = &ts
		} else {
			st.Status = StatusOffline
		}
		statuses = append(statuses, st)
	}

	return &SnapshotResponse{Source: source, Rooms: statuses}, nil
}

// telemetrySource reads the tenant's app settings; anything but an
// explicit "rooms-api" falls back to the gateway path.
func (s *roomStatusService) telemetrySource(ctx context.Context, tenantID string) string {
	settings, err := s.settingsRepo.GetSettings(ctx, tenantID, domain.SettingsApp)
	if err != nil {
		s.logger.Warn("Failed to load app settings, using gateway source",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return SourceGateway
	}
	if settings == nil {
		return SourceGateway
	}
	data, err := settings.DataMap()
	if err != nil {
		s.logger.Warn("Corrupt app settings document, using gateway source",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return SourceGateway
	}
	if src, ok := data["telemetry_source"].(string); ok && src == SourceRoomsAPI {
		return SourceRoomsAPI
	}
	return SourceGateway
}

// readingsFromGateway resolves readings for every room wired to a
// gateway device, grouping rooms per device so each device is fetched
// once. Fetch failures leave the affected rooms offline.
func (s *roomStatusService) readingsFromGateway(ctx context.Context, rooms []*domain.Room) map[string]*telemetry.Reading {
	readings := make(map[string]*telemetry.Reading)

	payloads := make(map[string]telemetry.DevicePayload)
	for _, target := range TargetsForRooms(rooms) {
		payload, err := s.devicePayload(ctx, target)
		if err != nil {
			s.logger.Warn("Failed to fetch device telemetry",
				zap.String("device_id", target.DeviceID),
				zap.Error(err))
			continue
		}
		payloads[target.DeviceID] = payload
	}

	for _, room := range rooms {
		if !room.Active || !room.SensorInstalled || !room.BoitieSensorID.Valid {
			continue
		}
		payload, ok := payloads[room.BoitieSensorID.String]
		if !ok {
			continue
		}
		reading, err := telemetry.Resolve(room.SensorID.String, room.BeaconMode, payload)
		if err != nil {
			continue
		}
		readings[room.RoomID] = reading
	}
	return readings
}

// devicePayload serves a device snapshot from cache, falling back to a
// live gateway call on a miss. Live results are written back so the
// next room on the same device hits the cache.
func (s *roomStatusService) devicePayload(ctx context.Context, target telemetry.DeviceTarget) (telemetry.DevicePayload, error) {
	payload, err := s.cache.GetDevice(ctx, target.DeviceID)
	if err == nil {
		return payload, nil
	}
	if err != store.ErrMiss {
		s.logger.Warn("Device cache read failed",
			zap.String("device_id", target.DeviceID),
			zap.Error(err))
	}

	payload, err = s.flespi.Telemetry(ctx, target.DeviceID, target.Keys)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetDevice(ctx, target.DeviceID, payload); err != nil {
		s.logger.Warn("Device cache write failed",
			zap.String("device_id", target.DeviceID),
			zap.Error(err))
	}
	return payload, nil
}

// readingsFromRoomsAPI matches records to rooms by exact room name.
func (s *roomStatusService) readingsFromRoomsAPI(ctx context.Context, rooms []*domain.Room) map[string]*telemetry.Reading {
	readings := make(map[string]*telemetry.Reading)

	records, err := s.roomsAPI.Latest(ctx)
	if err != nil {
		s.logger.Warn("Failed to fetch rooms API data", zap.Error(err))
		return readings
	}

	byName := make(map[string]*telemetry.RoomRecord, len(records))
	for i := range records {
		if _, exists := byName[records[i].Room]; !exists {
			byName[records[i].Room] = &records[i]
		}
	}

	for _, room := range rooms {
		if !room.Active || !room.SensorInstalled {
			continue
		}
		record, ok := byName[room.RoomName]
		if !ok {
			continue
		}
		readings[room.RoomID] = record.ToReading()
	}
	return readings
}

// ============================================
// RoomHistory
// ============================================

func (s *roomStatusService) RoomHistory(ctx context.Context, req RoomHistoryRequest) (*RoomHistoryResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}
	if req.RoomID == "" {
		return nil, fmt.Errorf("room_id is required")
	}

	to := req.To
	if to.IsZero() {
		to = time.Now()
	}
	from := req.From
	if from.IsZero() {
		from = to.Add(-24 * time.Hour)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("invalid time range: from must be before to")
	}

	room, err := s.roomsRepo.GetRoom(ctx, req.TenantID, req.RoomID)
	if err != nil {
		return nil, err
	}

	resp := &RoomHistoryResponse{
		RoomID:   room.RoomID,
		RoomName: room.RoomName,
	}

	if room.Active && room.SensorInstalled && room.BoitieSensorID.Valid && room.BoitieSensorID.String != "" {
		points, err := s.replayHistory(ctx, room, from, to)
		if err == nil {
			resp.Points = points
			return resp, nil
		}
		s.logger.Warn("History replay failed, serving synthetic series",
			zap.String("room_id", room.RoomID),
			zap.String("device_id", room.BoitieSensorID.String),
			zap.Error(err))
	}

	resp.Synthetic = true
	resp.Points = syntheticSeries(room.RoomID, from, to)
	return resp, nil
}

// replayHistory projects stored gateway messages into a reading series
// for one room. Messages carry flat telemetry fields plus a unix-second
// "timestamp".
func (s *roomStatusService) replayHistory(ctx context.Context, room *domain.Room, from, to time.Time) ([]telemetry.Reading, error) {
	channel, ok := telemetry.ExtractChannel(room.SensorID.String)
	if !ok && !room.BeaconMode {
		return nil, fmt.Errorf("room %s has no parsable sensor channel", room.RoomID)
	}

	messages, err := s.flespi.Messages(ctx, room.BoitieSensorID.String, from.Unix(), to.Unix())
	if err != nil {
		return nil, err
	}

	points := make([]telemetry.Reading, 0, len(messages))
	for _, msg := range messages {
		reading, ok := historyPoint(room, channel, msg)
		if !ok {
			continue
		}
		points = append(points, *reading)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no history messages for device %s", room.BoitieSensorID.String)
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points, nil
}

// historyPoint extracts one reading from a raw message, honoring the
// room's channel or beacon addressing.
func historyPoint(room *domain.Room, channel int, msg telemetry.Message) (*telemetry.Reading, bool) {
	ts, _ := msg["timestamp"].(float64)

	var payload telemetry.DevicePayload
	if room.BeaconMode {
		payload = telemetry.DevicePayload{
			"ble.beacons": {Value: msg["ble.beacons"], TS: int64(ts)},
		}
	} else {
		payload = make(telemetry.DevicePayload)
		for _, metric := range []string{"temperature", "humidity", "battery", "magnet"} {
			key := fmt.Sprintf("ble.sensor.%s.%d", metric, channel)
			if v, ok := msg[key]; ok {
				payload[key] = telemetry.FieldValue{Value: v, TS: int64(ts)}
			}
		}
	}

	reading, err := telemetry.Resolve(room.SensorID.String, room.BeaconMode, payload)
	if err != nil {
		return nil, false
	}
	if ts > 0 {
		reading.Timestamp = time.Unix(int64(ts), 0)
	}
	return reading, true
}

// syntheticSeries generates a deterministic hourly series for rooms
// without replayable gateway data. The per-room phase keeps different
// rooms from plotting identical curves.
func syntheticSeries(roomID string, from, to time.Time) []telemetry.Reading {
	h := fnv.New32a()
	h.Write([]byte(roomID))
	phase := float64(h.Sum32()%360) * math.Pi / 180

	var points []telemetry.Reading
	for t := from.Truncate(time.Hour); !t.After(to); t = t.Add(time.Hour) {
		angle := 2*math.Pi*float64(t.Unix())/float64(24*3600) + phase
		points = append(points, telemetry.Reading{
			Temperature: round1(4 + 1.5*math.Sin(angle)),
			Humidity:    round1(85 + 5*math.Cos(angle)),
			Battery:     3.0,
			Magnet:      1,
			Timestamp:   t,
		})
	}
	return points
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ============================================
// Layout
// ============================================

func (s *roomStatusService) Layout(ctx context.Context, req LayoutRequest) (*LayoutResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	rooms, err := s.roomsRepo.ListRooms(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	active := make([]*domain.Room, 0, len(rooms))
	ids := make([]string, 0, len(rooms))
	for _, room := range rooms {
		if !room.Active {
			continue
		}
		active = append(active, room)
		ids = append(ids, room.RoomID)
	}

	positions := layout.Compute(ids)
	out := make([]LayoutRoom, 0, len(positions))
	for i, pos := range positions {
		out = append(out, LayoutRoom{
			Position:       pos,
			RoomName:       active[i].RoomName,
			CapacityCrates: active[i].CapacityCrates,
		})
	}
	return &LayoutResponse{Rooms: out}, nil
}

// ============================================
// Weather
// ============================================

func (s *roomStatusService) Weather(ctx context.Context) (*telemetry.Weather, error) {
	if w, err := s.cache.GetWeather(ctx); err == nil {
		return w, nil
	}

	w, err := s.weather.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather: %w", err)
	}
	if err := s.cache.SetWeather(ctx, w); err != nil {
		s.logger.Warn("Weather cache write failed", zap.Error(err))
	}
	return w, nil
}
