package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Fellahty/frigosaas-sub002/internal/cashflow"
	"github.com/Fellahty/frigosaas-sub002/internal/domain"
	"github.com/Fellahty/frigosaas-sub002/internal/repository"
	"github.com/Fellahty/frigosaas-sub002/internal/service"
	"github.com/Fellahty/frigosaas-sub002/internal/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ============================================
// Stubs
// ============================================

type fakeRoomsRepo struct {
	rooms     []*domain.Room
	createErr error
	deleted   []string
}

func (r *fakeRoomsRepo) ListRooms(ctx context.Context, tenantID string) ([]*domain.Room, error) {
	var out []*domain.Room
	for _, room := range r.rooms {
		if room.TenantID == tenantID {
			out = append(out, room)
		}
	}
	return out, nil
}

func (r *fakeRoomsRepo) GetRoom(ctx context.Context, tenantID, roomID string) (*domain.Room, error) {
	for _, room := range r.rooms {
		if room.TenantID == tenantID && room.RoomID == roomID {
			return room, nil
		}
	}
	return nil, fmt.Errorf("room not found")
}

func (r *fakeRoomsRepo) CreateRoom(ctx context.Context, tenantID string, room *domain.Room) (string, error) {
	if r.createErr != nil {
		return "", r.createErr
	}
	room.RoomID = fmt.Sprintf("room-%d", len(r.rooms)+1)
	r.rooms = append(r.rooms, room)
	return room.RoomID, nil
}

func (r *fakeRoomsRepo) UpdateRoom(ctx context.Context, tenantID, roomID string, payload map[string]any) (*domain.Room, error) {
	room, err := r.GetRoom(ctx, tenantID, roomID)
	if err != nil {
		return nil, err
	}
	if v, ok := payload["room_name"].(string); ok {
		room.RoomName = v
	}
	return room, nil
}

func (r *fakeRoomsRepo) DeleteRoom(ctx context.Context, tenantID, roomID string) error {
	r.deleted = append(r.deleted, roomID)
	return nil
}

func (r *fakeRoomsRepo) ListPollTargets(ctx context.Context) ([]*domain.Room, error) {
	return r.rooms, nil
}

type fakeCrateTypesRepo struct {
	types []*domain.CrateType
}

func (r *fakeCrateTypesRepo) ListCrateTypes(ctx context.Context, tenantID string) ([]*domain.CrateType, error) {
	return r.types, nil
}

func (r *fakeCrateTypesRepo) GetCrateType(ctx context.Context, tenantID, id string) (*domain.CrateType, error) {
	for _, ct := range r.types {
		if ct.CrateTypeID == id {
			return ct, nil
		}
	}
	return nil, fmt.Errorf("crate type not found")
}

func (r *fakeCrateTypesRepo) CreateCrateType(ctx context.Context, tenantID string, ct *domain.CrateType) (string, error) {
	ct.CrateTypeID = fmt.Sprintf("ct-%d", len(r.types)+1)
	r.types = append(r.types, ct)
	return ct.CrateTypeID, nil
}

func (r *fakeCrateTypesRepo) UpdateCrateType(ctx context.Context, tenantID, id string, payload map[string]any) (*domain.CrateType, error) {
	return r.GetCrateType(ctx, tenantID, id)
}

func (r *fakeCrateTypesRepo) DeleteCrateType(ctx context.Context, tenantID, id string) error {
	return nil
}

type fakeSettingsRepo struct {
	stored map[string]map[string]any
}

func (r *fakeSettingsRepo) GetSettings(ctx context.Context, tenantID, section string) (*domain.TenantSettings, error) {
	data, ok := r.stored[section]
	if !ok {
		return nil, nil
	}
	raw, _ := json.Marshal(data)
	return &domain.TenantSettings{TenantID: tenantID, Section: section, Data: raw}, nil
}

func (r *fakeSettingsRepo) MergeSettings(ctx context.Context, tenantID, section string, patch map[string]any) (*domain.TenantSettings, error) {
	if r.stored == nil {
		r.stored = map[string]map[string]any{}
	}
	data, ok := r.stored[section]
	if !ok {
		data = map[string]any{}
	}
	for k, v := range patch {
		data[k] = v
	}
	r.stored[section] = data
	raw, _ := json.Marshal(data)
	return &domain.TenantSettings{TenantID: tenantID, Section: section, Data: raw}, nil
}

type fakeCashService struct {
	movements  []*domain.CashMovement
	recordResp *service.RecordMovementResponse
}

func (s *fakeCashService) ListMovements(ctx context.Context, req service.ListMovementsRequest) (*service.ListMovementsResponse, error) {
	return &service.ListMovementsResponse{Items: s.movements}, nil
}

func (s *fakeCashService) ValidateMovement(ctx context.Context, req service.RecordMovementRequest) (*cashflow.ValidationResult, error) {
	if s.recordResp == nil {
		return &cashflow.ValidationResult{Valid: true}, nil
	}
	return &s.recordResp.Validation, nil
}

func (s *fakeCashService) RecordMovement(ctx context.Context, req service.RecordMovementRequest) (*service.RecordMovementResponse, error) {
	if s.recordResp != nil {
		return s.recordResp, nil
	}
	return &service.RecordMovementResponse{
		MovementID: "mv-1",
		Validation: cashflow.ValidationResult{Valid: true},
	}, nil
}

func (s *fakeCashService) Balance(ctx context.Context, req service.BalanceRequest) (*service.BalanceResponse, error) {
	return &service.BalanceResponse{Balance: 1200, InitialBalance: 1000, TotalIn: 500, TotalOut: 300}, nil
}

type fakeRoomStatusService struct {
	snapshot *service.SnapshotResponse
	history  *service.RoomHistoryResponse
	layout   *service.LayoutResponse
	weather  *telemetry.Weather
}

func (s *fakeRoomStatusService) Snapshot(ctx context.Context, req service.SnapshotRequest) (*service.SnapshotResponse, error) {
	return s.snapshot, nil
}

func (s *fakeRoomStatusService) RoomHistory(ctx context.Context, req service.RoomHistoryRequest) (*service.RoomHistoryResponse, error) {
	if s.history == nil {
		return nil, fmt.Errorf("room not found")
	}
	return s.history, nil
}

func (s *fakeRoomStatusService) Layout(ctx context.Context, req service.LayoutRequest) (*service.LayoutResponse, error) {
	return s.layout, nil
}

func (s *fakeRoomStatusService) Weather(ctx context.Context) (*telemetry.Weather, error) {
	if s.weather == nil {
		return nil, fmt.Errorf("provider down")
	}
	return s.weather, nil
}

type fakeRefresher struct {
	refreshed []string
	err       error
}

func (f *fakeRefresher) RefreshDevice(ctx context.Context, deviceID string) error {
	if f.err != nil {
		return f.err
	}
	f.refreshed = append(f.refreshed, deviceID)
	return nil
}

// ============================================
// Helpers
// ============================================

type envelope struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

func doRequest(t *testing.T, router *Router, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func resultMap(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(env.Result, &m))
	return m
}

// ============================================
// Rooms
// ============================================

func newRoomsRouter(repo *fakeRoomsRepo) *Router {
	router := NewRouter(zap.NewNop())
	router.RegisterRoomRoutes(NewRoomsHandler(repo, zap.NewNop()))
	return router
}

func TestRoomsList(t *testing.T) {
	repo := &fakeRoomsRepo{rooms: []*domain.Room{
		{RoomID: "room-1", TenantID: "tenant-1", RoomName: "Chambre 1"},
		{RoomID: "room-2", TenantID: "tenant-2", RoomName: "Autre"},
	}}
	router := newRoomsRouter(repo)

	rec, env := doRequest(t, router, http.MethodGet, "/data/api/v1/rooms?tenant_id=tenant-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, ResultSuccess, env.Code)

	result := resultMap(t, env)
	assert.Equal(t, float64(1), result["total"])
}

func TestRoomsList_MissingTenant(t *testing.T) {
	router := newRoomsRouter(&fakeRoomsRepo{})

	rec, env := doRequest(t, router, http.MethodGet, "/data/api/v1/rooms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ResultError, env.Code)
	assert.Equal(t, "tenant_id is required", env.Message)
}

func TestRoomsList_TenantHeaderFallback(t *testing.T) {
	repo := &fakeRoomsRepo{rooms: []*domain.Room{
		{RoomID: "room-1", TenantID: "tenant-1", RoomName: "Chambre 1"},
	}}
	router := newRoomsRouter(repo)

	req := httptest.NewRequest(http.MethodGet, "/data/api/v1/rooms", nil)
	req.Header.Set("X-Tenant-Id", "tenant-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, ResultSuccess, env.Code)
}

func TestRoomsCreate(t *testing.T) {
	repo := &fakeRoomsRepo{}
	router := newRoomsRouter(repo)

	_, env := doRequest(t, router, http.MethodPost, "/data/api/v1/rooms?tenant_id=tenant-1", map[string]any{
		"room_name":       "Chambre 4",
		"sensor_id":       "S-CH4",
		"capacity_crates": 800,
	})
	require.Equal(t, ResultSuccess, env.Code)

	result := resultMap(t, env)
	assert.Equal(t, "Chambre 4", result["room_name"])
	assert.Equal(t, "S-CH4", result["sensor_id"])
	require.Len(t, repo.rooms, 1)
	assert.Equal(t, 800, repo.rooms[0].CapacityCrates)
	assert.True(t, repo.rooms[0].Active)
}

func TestRoomsCreate_MissingName(t *testing.T) {
	router := newRoomsRouter(&fakeRoomsRepo{})

	_, env := doRequest(t, router, http.MethodPost, "/data/api/v1/rooms?tenant_id=tenant-1", map[string]any{
		"sensor_id": "S-CH4",
	})
	assert.Equal(t, ResultError, env.Code)
	assert.Contains(t, env.Message, "room_name is required")
}

func TestRoomsDelete(t *testing.T) {
	repo := &fakeRoomsRepo{rooms: []*domain.Room{
		{RoomID: "room-1", TenantID: "tenant-1", RoomName: "Chambre 1"},
	}}
	router := newRoomsRouter(repo)

	_, env := doRequest(t, router, http.MethodDelete, "/data/api/v1/rooms/room-1?tenant_id=tenant-1", nil)
	assert.Equal(t, ResultSuccess, env.Code)
	assert.Equal(t, []string{"room-1"}, repo.deleted)
}

func TestRoomsMethodNotAllowed(t *testing.T) {
	router := newRoomsRouter(&fakeRoomsRepo{})

	rec, _ := doRequest(t, router, http.MethodDelete, "/data/api/v1/rooms", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// ============================================
// Crate types
// ============================================

func TestCrateTypesPool(t *testing.T) {
	repo := &fakeCrateTypesRepo{types: []*domain.CrateType{
		{CrateTypeID: "ct-1", TypeName: "bois", Quantity: 500, Active: true},
		{CrateTypeID: "ct-2", TypeName: "plastique", Quantity: 300, Active: true},
		{CrateTypeID: "ct-3", TypeName: "retirée", Quantity: 999, Active: false},
	}}
	router := NewRouter(zap.NewNop())
	router.RegisterCrateTypeRoutes(NewCrateTypesHandler(repo, zap.NewNop()))

	_, env := doRequest(t, router, http.MethodGet, "/data/api/v1/crate-types/pool?tenant_id=tenant-1", nil)
	require.Equal(t, ResultSuccess, env.Code)

	result := resultMap(t, env)
	assert.Equal(t, float64(800), result["total"])
	types := result["types"].([]any)
	assert.Len(t, types, 2)
}

// ============================================
// Settings
// ============================================

func newSettingsRouter(repo repository.SettingsRepo) *Router {
	router := NewRouter(zap.NewNop())
	router.RegisterSettingsRoutes(NewSettingsHandler(repo, zap.NewNop()))
	return router
}

func TestSettingsGet_AbsentSectionReadsEmpty(t *testing.T) {
	router := newSettingsRouter(&fakeSettingsRepo{})

	_, env := doRequest(t, router, http.MethodGet, "/data/api/v1/settings/general?tenant_id=tenant-1", nil)
	require.Equal(t, ResultSuccess, env.Code)

	result := resultMap(t, env)
	assert.Equal(t, "general", result["section"])
	assert.Equal(t, map[string]any{}, result["data"])
}

// corruptSettingsRepo serves a document whose stored JSON no longer parses.
type corruptSettingsRepo struct{}

func (r *corruptSettingsRepo) GetSettings(ctx context.Context, tenantID, section string) (*domain.TenantSettings, error) {
	return &domain.TenantSettings{TenantID: tenantID, Section: section, Data: []byte(`{"currency":`)}, nil
}

func (r *corruptSettingsRepo) MergeSettings(ctx context.Context, tenantID, section string, patch map[string]any) (*domain.TenantSettings, error) {
	return nil, fmt.Errorf("not implemented")
}

func TestSettingsGet_CorruptDocumentReadsEmpty(t *testing.T) {
	router := newSettingsRouter(&corruptSettingsRepo{})

	_, env := doRequest(t, router, http.MethodGet, "/data/api/v1/settings/general?tenant_id=tenant-1", nil)
	require.Equal(t, ResultSuccess, env.Code)

	result := resultMap(t, env)
	assert.Equal(t, "general", result["section"])
	assert.Equal(t, map[string]any{}, result["data"])
}

func TestSettingsGet_UnknownSection(t *testing.T) {
	router := newSettingsRouter(&fakeSettingsRepo{})

	_, env := doRequest(t, router, http.MethodGet, "/data/api/v1/settings/bogus?tenant_id=tenant-1", nil)
	assert.Equal(t, ResultError, env.Code)
	assert.Contains(t, env.Message, "unknown settings section")
}

func TestSettingsMerge(t *testing.T) {
	repo := &fakeSettingsRepo{stored: map[string]map[string]any{
		"general": {"currency": "MAD"},
	}}
	router := newSettingsRouter(repo)

	_, env := doRequest(t, router, http.MethodPut, "/data/api/v1/settings/general?tenant_id=tenant-1", map[string]any{
		"initial_balance": 2500,
	})
	require.Equal(t, ResultSuccess, env.Code)

	result := resultMap(t, env)
	data := result["data"].(map[string]any)
	assert.Equal(t, "MAD", data["currency"])
	assert.Equal(t, float64(2500), data["initial_balance"])
}

// ============================================
// Cash
// ============================================

func newCashRouter(svc service.CashService) *Router {
	router := NewRouter(zap.NewNop())
	router.RegisterCashRoutes(NewCashHandler(svc, zap.NewNop()))
	return router
}

func TestCashRecord(t *testing.T) {
	router := newCashRouter(&fakeCashService{})

	_, env := doRequest(t, router, http.MethodPost, "/data/api/v1/cash/movements?tenant_id=tenant-1", map[string]any{
		"type":           "in",
		"amount":         250.0,
		"payment_method": "cash",
		"reason":         "vente caisses",
		"reference":      "REF-100",
	})
	require.Equal(t, ResultSuccess, env.Code)

	result := resultMap(t, env)
	assert.Equal(t, "mv-1", result["movement_id"])
}

func TestCashRecord_InvalidStaysHTTP200(t *testing.T) {
	svc := &fakeCashService{recordResp: &service.RecordMovementResponse{
		Validation: cashflow.ValidationResult{Valid: false, Errors: []string{"amount must be greater than zero"}},
	}}
	router := newCashRouter(svc)

	rec, env := doRequest(t, router, http.MethodPost, "/data/api/v1/cash/movements?tenant_id=tenant-1", map[string]any{
		"type": "in", "amount": -1.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, ResultSuccess, env.Code)

	result := resultMap(t, env)
	validation := result["validation"].(map[string]any)
	assert.Equal(t, false, validation["valid"])
}

func TestCashBalance(t *testing.T) {
	router := newCashRouter(&fakeCashService{})

	_, env := doRequest(t, router, http.MethodGet, "/data/api/v1/cash/balance?tenant_id=tenant-1", nil)
	require.Equal(t, ResultSuccess, env.Code)

	result := resultMap(t, env)
	assert.Equal(t, float64(1200), result["balance"])
}

func TestCashExport_ServesWorkbook(t *testing.T) {
	svc := &fakeCashService{movements: []*domain.CashMovement{
		{MovementID: "mv-1", TenantID: "tenant-1", Type: "in", Amount: 100, PaymentMethod: "cash", Reason: "test", Reference: "REF-1"},
	}}
	router := newCashRouter(svc)

	rec, _ := doRequest(t, router, http.MethodGet, "/data/api/v1/cash/movements/export?tenant_id=tenant-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "cash-movements.xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())
}

// ============================================
// Dashboard
// ============================================

func newDashboardRouter(svc service.RoomStatusService, refresher deviceRefresher) *Router {
	router := NewRouter(zap.NewNop())
	router.RegisterDashboardRoutes(NewDashboardHandler(svc, refresher, zap.NewNop()))
	return router
}

func TestDashboardStatus(t *testing.T) {
	svc := &fakeRoomStatusService{snapshot: &service.SnapshotResponse{
		Source: service.SourceGateway,
		Rooms: []service.RoomStatus{
			{RoomID: "room-1", RoomName: "Chambre 1", Status: service.StatusOK, Online: true},
		},
	}}
	router := newDashboardRouter(svc, nil)

	_, env := doRequest(t, router, http.MethodGet, "/data/api/v1/dashboard/status?tenant_id=tenant-1", nil)
	require.Equal(t, ResultSuccess, env.Code)

	result := resultMap(t, env)
	assert.Equal(t, "gateway", result["source"])
	rooms := result["rooms"].([]any)
	require.Len(t, rooms, 1)
}

func TestDashboardHistory(t *testing.T) {
	svc := &fakeRoomStatusService{history: &service.RoomHistoryResponse{
		RoomID:    "room-1",
		RoomName:  "Chambre 1",
		Synthetic: true,
		Points: []telemetry.Reading{
			{Temperature: 4.2, Humidity: 86, Timestamp: time.Unix(1700000000, 0)},
		},
	}}
	router := newDashboardRouter(svc, nil)

	_, env := doRequest(t, router, http.MethodGet, "/data/api/v1/dashboard/history/room-1?tenant_id=tenant-1", nil)
	require.Equal(t, ResultSuccess, env.Code)

	result := resultMap(t, env)
	assert.Equal(t, true, result["synthetic"])
}

func TestDashboardWeather(t *testing.T) {
	svc := &fakeRoomStatusService{weather: &telemetry.Weather{Temperature: 29.5, Humidity: 45}}
	router := newDashboardRouter(svc, nil)

	_, env := doRequest(t, router, http.MethodGet, "/data/api/v1/dashboard/weather", nil)
	require.Equal(t, ResultSuccess, env.Code)

	result := resultMap(t, env)
	assert.Equal(t, 29.5, result["temperature"])
}

func TestDashboardRefresh(t *testing.T) {
	refresher := &fakeRefresher{}
	router := newDashboardRouter(&fakeRoomStatusService{}, refresher)

	_, env := doRequest(t, router, http.MethodPost, "/data/api/v1/dashboard/refresh/dev-9", nil)
	require.Equal(t, ResultSuccess, env.Code)
	assert.Equal(t, []string{"dev-9"}, refresher.refreshed)
}

func TestDashboardRefresh_NotConfigured(t *testing.T) {
	router := newDashboardRouter(&fakeRoomStatusService{}, nil)

	_, env := doRequest(t, router, http.MethodPost, "/data/api/v1/dashboard/refresh/dev-9", nil)
	assert.Equal(t, ResultError, env.Code)
}
