package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
	"github.com/Fellahty/frigosaas-sub002/internal/repository"

	"go.uber.org/zap"
)

// ClientsHandler serves the tenant client book.
type ClientsHandler struct {
	Repo   repository.ClientsRepo
	Logger *zap.Logger
}

func NewClientsHandler(repo repository.ClientsRepo, logger *zap.Logger) *ClientsHandler {
	return &ClientsHandler{Repo: repo, Logger: logger}
}

func (h *ClientsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Repo == nil {
		writeJSON(w, http.StatusOK, Fail("clients repo is not configured"))
		return
	}

	if r.URL.Path == "/data/api/v1/clients" {
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

	id := strings.TrimPrefix(r.URL.Path, "/data/api/v1/clients/")
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

func (h *ClientsHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	clients, err := h.Repo.ListClients(r.Context(), tenantID)
	if err != nil {
		h.Logger.Error("ListClients failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list clients"))
		return
	}
	out := make([]any, 0, len(clients))
	for _, c := range clients {
		out = append(out, c.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": out, "total": len(out)}))
}

func (h *ClientsHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	client, err := h.Repo.GetClient(r.Context(), tenantID, id)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to get client: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(client.ToJSON()))
}

func (h *ClientsHandler) create(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	name, _ := payload["name"].(string)
	if strings.TrimSpace(name) == "" {
		writeJSON(w, http.StatusOK, Fail("name is required"))
		return
	}

	client := clientFromPayload(tenantID, payload)
	id, err := h.Repo.CreateClient(r.Context(), tenantID, client)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to create client: %v", err)))
		return
	}
	client.ClientID = id
	writeJSON(w, http.StatusOK, Ok(client.ToJSON()))
}

func (h *ClientsHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	client, err := h.Repo.UpdateClient(r.Context(), tenantID, id, payload)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to update client: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(client.ToJSON()))
}

func (h *ClientsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}
	if err := h.Repo.DeleteClient(r.Context(), tenantID, id); err != nil {
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to delete client: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func clientFromPayload(tenantID string, payload map[string]any) *domain.Client {
	client := &domain.Client{TenantID: tenantID}
	if v, ok := payload["name"].(string); ok {
		client.Name = strings.TrimSpace(v)
	}
	if v, ok := payload["email"].(string); ok && v != "" {
		client.Email.String, client.Email.Valid = v, true
	}
	if v, ok := payload["phone"].(string); ok && v != "" {
		client.Phone.String, client.Phone.Valid = v, true
	}
	if v, ok := payload["company"].(string); ok && v != "" {
		client.Company.String, client.Company.Valid = v, true
	}
	if v, ok := payload["password"].(string); ok && v != "" {
		client.Password.String, client.Password.Valid = v, true
	}
	if v, ok := payload["created_by"].(string); ok && v != "" {
		client.CreatedBy.String, client.CreatedBy.Valid = v, true
	}
	return client
}
