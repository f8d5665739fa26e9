package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router wraps the standard library http.ServeMux (no third-party
// router dependency).
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler supports the http.Handler interface (pprof etc).
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterRoomRoutes: room/sensor configuration CRUD.
func (r *Router) RegisterRoomRoutes(h *RoomsHandler) {
	r.Handle("/data/api/v1/rooms", h.ServeHTTP)
	r.Handle("/data/api/v1/rooms/", h.ServeHTTP)
}

// RegisterClientRoutes: tenant client book CRUD.
func (r *Router) RegisterClientRoutes(h *ClientsHandler) {
	r.Handle("/data/api/v1/clients", h.ServeHTTP)
	r.Handle("/data/api/v1/clients/", h.ServeHTTP)
}

// RegisterCrateTypeRoutes: crate pool inventory CRUD plus the computed
// pool summary.
func (r *Router) RegisterCrateTypeRoutes(h *CrateTypesHandler) {
	r.Handle("/data/api/v1/crate-types", h.ServeHTTP)
	r.Handle("/data/api/v1/crate-types/", h.ServeHTTP)
}

// RegisterSettingsRoutes: per-tenant settings sections.
func (r *Router) RegisterSettingsRoutes(h *SettingsHandler) {
	r.Handle("/data/api/v1/settings/", h.ServeHTTP)
}

// RegisterCashRoutes: cash ledger, validation, balance and export.
func (r *Router) RegisterCashRoutes(h *CashHandler) {
	r.Handle("/data/api/v1/cash/movements", h.Movements)
	r.Handle("/data/api/v1/cash/movements/validate", h.Validate)
	r.Handle("/data/api/v1/cash/movements/export", h.Export)
	r.Handle("/data/api/v1/cash/balance", h.Balance)
}

// RegisterDashboardRoutes: live room state, history, 3D layout and
// outdoor weather.
func (r *Router) RegisterDashboardRoutes(h *DashboardHandler) {
	r.Handle("/data/api/v1/dashboard/status", h.Status)
	r.Handle("/data/api/v1/dashboard/history/", h.History)
	r.Handle("/data/api/v1/dashboard/layout", h.Layout)
	r.Handle("/data/api/v1/dashboard/weather", h.Weather)
	r.Handle("/data/api/v1/dashboard/refresh/", h.Refresh)
}

// RegisterAdminTenantRoutes: tenant management (platform-level).
func (r *Router) RegisterAdminTenantRoutes(h *TenantsHandler) {
	r.Handle("/admin/api/v1/tenants", h.ServeHTTP)
	r.Handle("/admin/api/v1/tenants/", h.ServeHTTP)
}
