package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
	"github.com/Fellahty/frigosaas-sub002/internal/repository"

	"go.uber.org/zap"
)

// RoomsHandler serves the room/sensor configuration pages.
type RoomsHandler struct {
	Repo   repository.RoomsRepo
	Logger *zap.Logger
}

func NewRoomsHandler(repo repository.RoomsRepo, logger *zap.Logger) *RoomsHandler {
	return &RoomsHandler{Repo: repo, Logger: logger}
}

func (h *RoomsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Repo == nil {
		writeJSON(w, http.StatusOK, Fail("rooms repo is not configured"))
		return
	}

	if r.URL.Path == "/data/api/v1/rooms" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/data/api/v1/rooms/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut, http.MethodPatch:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *RoomsHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	rooms, err := h.Repo.ListRooms(r.Context(), tenantID)
	if err != nil {
		h.Logger.Error("ListRooms failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list rooms"))
		return
	}
	out := make([]any, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": out, "total": len(out)}))
}

func (h *RoomsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	room, err := h.Repo.GetRoom(r.Context(), tenantID, id)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to get room: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(room.ToJSON()))
}

func (h *RoomsHandler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	name, _ := payload["room_name"].(string)
	if strings.TrimSpace(name) == "" {
		writeJSON(w, http.StatusOK, Fail("room_name is required"))
		return
	}

	room := roomFromPayload(tenantID, payload)
	id, err := h.Repo.CreateRoom(r.Context(), tenantID, room)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to create room: %v", err)))
		return
	}
	room.RoomID = id
	writeJSON(w, http.StatusOK, Ok(room.ToJSON()))
}

func (h *RoomsHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	room, err := h.Repo.UpdateRoom(r.Context(), tenantID, id, payload)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to update room: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(room.ToJSON()))
}

func (h *RoomsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	if err := h.Repo.DeleteRoom(r.Context(), tenantID, id); err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to delete room: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func roomFromPayload(tenantID string, payload map[string]any) *domain.Room {
	room := &domain.Room{TenantID: tenantID}
	if v, ok := payload["room_name"].(string); ok {
		room.RoomName = strings.TrimSpace(v)
	}
	if v, ok := payload["capacity_units"].(float64); ok {
		room.CapacityUnits = int(v)
	}
	if v, ok := payload["capacity_crates"].(float64); ok {
		room.CapacityCrates = int(v)
	}
	if v, ok := payload["sensor_id"].(string); ok && v != "" {
		room.SensorID.String, room.SensorID.Valid = v, true
	}
	if v, ok := payload["boitie_sensor_id"].(string); ok && v != "" {
		room.BoitieSensorID.String, room.BoitieSensorID.Valid = v, true
	}
	if v, ok := payload["beacon_mode"].(bool); ok {
		room.BeaconMode = v
	}
	if v, ok := payload["ath_group_number"].(float64); ok {
		room.ATHGroupNumber = int(v)
	}
	room.Active = true
	if v, ok := payload["active"].(bool); ok {
		room.Active = v
	}
	if v, ok := payload["sensor_installed"].(bool); ok {
		room.SensorInstalled = v
	}
	return room
}
