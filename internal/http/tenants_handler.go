package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
	"github.com/Fellahty/frigosaas-sub002/internal/repository"

	"go.uber.org/zap"
)

// TenantsHandler manages facility accounts (platform-level, no tenant
// scoping).
type TenantsHandler struct {
	Repo   repository.TenantsRepo
	Logger *zap.Logger
}

func NewTenantsHandler(repo repository.TenantsRepo, logger *zap.Logger) *TenantsHandler {
	return &TenantsHandler{Repo: repo, Logger: logger}
}

func (h *TenantsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Repo == nil {
		writeJSON(w, http.StatusOK, Fail("tenants repo is not configured"))
		return
	}

	if r.URL.Path == "/admin/api/v1/tenants" {
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

	id := strings.TrimPrefix(r.URL.Path, "/admin/api/v1/tenants/")
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

func (h *TenantsHandler) list(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.Repo.ListTenants(r.Context())
	if err != nil {
		h.Logger.Error("ListTenants failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list tenants"))
		return
	}
	out := make([]any, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, t.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": out, "total": len(out)}))
}

func (h *TenantsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	tenant, err := h.Repo.GetTenant(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to get tenant: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(tenant.ToJSON()))
}

func (h *TenantsHandler) create(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	name, _ := payload["tenant_name"].(string)
	if strings.TrimSpace(name) == "" {
		writeJSON(w, http.StatusOK, Fail("tenant_name is required"))
		return
	}

	tenant := &domain.Tenant{TenantName: strings.TrimSpace(name)}
	if v, ok := payload["domain"].(string); ok {
		tenant.Domain = v
	}
	if v, ok := payload["email"].(string); ok {
		tenant.Email = v
	}
	if v, ok := payload["phone"].(string); ok {
		tenant.Phone = v
	}
	if v, ok := payload["status"].(string); ok {
		tenant.Status = v
	}

	id, err := h.Repo.CreateTenant(r.Context(), tenant)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to create tenant: %v", err)))
		return
	}
	tenant.TenantID = id
	writeJSON(w, http.StatusOK, Ok(tenant.ToJSON()))
}

func (h *TenantsHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	tenant, err := h.Repo.UpdateTenant(r.Context(), id, payload)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to update tenant: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(tenant.ToJSON()))
}

func (h *TenantsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.Repo.DeleteTenant(r.Context(), id); err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to delete tenant: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
