package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
	"github.com/Fellahty/frigosaas-sub002/internal/repository"

	"go.uber.org/zap"
)

// SettingsHandler serves the per-tenant settings sections
// (general | pool | pricing | app). Writes merge into the stored
// document; absent sections read as empty.
type SettingsHandler struct {
	Repo   repository.SettingsRepo
	Logger *zap.Logger
}

func NewSettingsHandler(repo repository.SettingsRepo, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{Repo: repo, Logger: logger}
}

// settingsDocument decodes the stored document; an unreadable document
// serves as empty rather than failing the request.
func (h *SettingsHandler) settingsDocument(settings *domain.TenantSettings) map[string]any {
	data, err := settings.DataMap()
	if err != nil {
		h.Logger.Warn("Corrupt settings document, serving empty",
			zap.String("section", settings.Section),
			zap.Error(err))
		return map[string]any{}
	}
	return data
}

func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Repo == nil {
		writeJSON(w, http.StatusOK, Fail("settings repo is not configured"))
		return
	}

	section := strings.TrimPrefix(r.URL.Path, "/data/api/v1/settings/")
	if section == "" || strings.Contains(section, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if !domain.ValidSettingsSection(section) {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("unknown settings section %q", section)))
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, section)
	case http.MethodPut, http.MethodPatch:
		h.merge(w, r, section)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request, section string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	settings, err := h.Repo.GetSettings(r.Context(), tenantID, section)
	if err != nil {
		h.Logger.Error("GetSettings failed",
			zap.String("section", section),
			zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to get settings"))
		return
	}
	if settings == nil {
		writeJSON(w, http.StatusOK, Ok(map[string]any{"section": section, "data": map[string]any{}}))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"section": section, "data": h.settingsDocument(settings)}))
}

func (h *SettingsHandler) merge(w http.ResponseWriter, r *http.Request, section string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var patch map[string]any
	if err := readBodyJSON(r, 1<<20, &patch); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	if len(patch) == 0 {
		writeJSON(w, http.StatusOK, Fail("empty settings patch"))
		return
	}

	settings, err := h.Repo.MergeSettings(r.Context(), tenantID, section, patch)
	if err != nil {
		h.Logger.Error("MergeSettings failed",
			zap.String("section", section),
			zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to save settings: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"section": section, "data": h.settingsDocument(settings)}))
}
