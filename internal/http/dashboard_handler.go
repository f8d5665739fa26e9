package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/Fellahty/frigosaas-sub002/internal/service"

	"go.uber.org/zap"
)

// deviceRefresher triggers an out-of-band poll of one gateway device.
type deviceRefresher interface {
	RefreshDevice(ctx context.Context, deviceID string) error
}

// DashboardHandler serves the live dashboard: room status cards, the
// history chart, the 3D layout and the weather widget.
type DashboardHandler struct {
	Service   service.RoomStatusService
	Refresher deviceRefresher // optional
	Logger    *zap.Logger
}

func NewDashboardHandler(svc service.RoomStatusService, refresher deviceRefresher, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{Service: svc, Refresher: refresher, Logger: logger}
}

func (h *DashboardHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.Snapshot(r.Context(), service.SnapshotRequest{TenantID: tenantID})
	if err != nil {
		h.Logger.Error("Snapshot failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to load room status"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *DashboardHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	roomID := strings.TrimPrefix(r.URL.Path, "/data/api/v1/dashboard/history/")
	if roomID == "" || strings.Contains(roomID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.RoomHistory(r.Context(), service.RoomHistoryRequest{
		TenantID: tenantID,
		RoomID:   roomID,
		From:     parseTime(r.URL.Query().Get("from")),
		To:       parseTime(r.URL.Query().Get("to")),
	})
	if err != nil {
		writeJSON(w, http.StatusOK, Fail("failed to load room history"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *DashboardHandler) Layout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.Layout(r.Context(), service.LayoutRequest{TenantID: tenantID})
	if err != nil {
		h.Logger.Error("Layout failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to compute layout"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

func (h *DashboardHandler) Weather(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	weather, err := h.Service.Weather(r.Context())
	if err != nil {
		h.Logger.Warn("Weather fetch failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to fetch weather"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(weather))
}

// Refresh forces a poll of one gateway device, ahead of the next
// scheduled cycle.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.Refresher == nil {
		writeJSON(w, http.StatusOK, Fail("device refresh is not configured"))
		return
	}
	deviceID := strings.TrimPrefix(r.URL.Path, "/data/api/v1/dashboard/refresh/")
	if deviceID == "" || strings.Contains(deviceID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if err := h.Refresher.RefreshDevice(r.Context(), deviceID); err != nil {
		h.Logger.Warn("Device refresh failed",
			zap.String("device_id", deviceID),
			zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to refresh device"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"device_id": deviceID, "refreshed": true}))
}
