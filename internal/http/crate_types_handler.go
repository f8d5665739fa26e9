package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
	"github.com/Fellahty/frigosaas-sub002/internal/repository"

	"go.uber.org/zap"
)

// CrateTypesHandler serves the crate pool inventory. The pool total is
// computed on read from active type quantities, never stored.
type CrateTypesHandler struct {
	Repo   repository.CrateTypesRepo
	Logger *zap.Logger
}

func NewCrateTypesHandler(repo repository.CrateTypesRepo, logger *zap.Logger) *CrateTypesHandler {
	return &CrateTypesHandler{Repo: repo, Logger: logger}
}

func (h *CrateTypesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Repo == nil {
		writeJSON(w, http.StatusOK, Fail("crate types repo is not configured"))
		return
	}

	switch {
	case r.URL.Path == "/data/api/v1/crate-types":
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	case r.URL.Path == "/data/api/v1/crate-types/pool":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.pool(w, r)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/data/api/v1/crate-types/")
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

func (h *CrateTypesHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	types, err := h.Repo.ListCrateTypes(r.Context(), tenantID)
	if err != nil {
		h.Logger.Error("ListCrateTypes failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list crate types"))
		return
	}
	out := make([]any, 0, len(types))
	for _, ct := range types {
		out = append(out, ct.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": out, "total": len(out)}))
}

// pool folds active quantities into the tenant's total pool size.
func (h *CrateTypesHandler) pool(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	types, err := h.Repo.ListCrateTypes(r.Context(), tenantID)
	if err != nil {
		h.Logger.Error("ListCrateTypes failed for pool", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to compute pool"))
		return
	}

	total := 0
	byType := make([]map[string]any, 0, len(types))
	for _, ct := range types {
		if !ct.Active {
			continue
		}
		total += ct.Quantity
		byType = append(byType, map[string]any{
			"crate_type_id": ct.CrateTypeID,
			"type_name":     ct.TypeName,
			"quantity":      ct.Quantity,
		})
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"total": total, "types": byType}))
}

func (h *CrateTypesHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	ct, err := h.Repo.GetCrateType(r.Context(), tenantID, id)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to get crate type: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(ct.ToJSON()))
}

func (h *CrateTypesHandler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	name, _ := payload["type_name"].(string)
	if strings.TrimSpace(name) == "" {
		writeJSON(w, http.StatusOK, Fail("type_name is required"))
		return
	}

	ct := &domain.CrateType{
		TenantID: tenantID,
		TypeName: strings.TrimSpace(name),
		Active:   true,
	}
	if v, ok := payload["color"].(string); ok {
		ct.Color = v
	}
	if v, ok := payload["deposit_amount"].(float64); ok {
		ct.DepositAmount = v
	}
	if v, ok := payload["quantity"].(float64); ok {
		ct.Quantity = int(v)
	}
	if v, ok := payload["active"].(bool); ok {
		ct.Active = v
	}

	id, err := h.Repo.CreateCrateType(r.Context(), tenantID, ct)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to create crate type: %v", err)))
		return
	}
	ct.CrateTypeID = id
	writeJSON(w, http.StatusOK, Ok(ct.ToJSON()))
}

func (h *CrateTypesHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	ct, err := h.Repo.UpdateCrateType(r.Context(), tenantID, id, payload)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to update crate type: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(ct.ToJSON()))
}

func (h *CrateTypesHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	if err := h.Repo.DeleteCrateType(r.Context(), tenantID, id); err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to delete crate type: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}
