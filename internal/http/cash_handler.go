package httpapi

import (
	"fmt"
	"net/http"

	"github.com/Fellahty/frigosaas-sub002/internal/service"

	"go.uber.org/zap"
)

// CashHandler serves the cash ledger pages.
type CashHandler struct {
	Service service.CashService
	Logger  *zap.Logger
}

func NewCashHandler(svc service.CashService, logger *zap.Logger) *CashHandler {
	return &CashHandler{Service: svc, Logger: logger}
}

// Movements handles GET (list) and POST (record) on the ledger.
func (h *CashHandler) Movements(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.record(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *CashHandler) list(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.ListMovements(r.Context(), service.ListMovementsRequest{
		TenantID: tenantID,
		From:     parseTime(r.URL.Query().Get("from")),
		To:       parseTime(r.URL.Query().Get("to")),
	})
	if err != nil {
		h.Logger.Error("ListMovements failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list movements"))
		return
	}

	out := make([]any, 0, len(resp.Items))
	for _, m := range resp.Items {
		out = append(out, m.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"items": out, "total": len(out)}))
}

func (h *CashHandler) record(w http.ResponseWriter, r *http.Request) {
	req, ok := h.movementRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.RecordMovement(r.Context(), req)
	if err != nil {
		h.Logger.Error("RecordMovement failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to record movement: %v", err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Validate dry-runs a movement without writing it.
func (h *CashHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	req, ok := h.movementRequest(w, r)
	if !ok {
		return
	}

	result, err := h.Service.ValidateMovement(r.Context(), req)
	if err != nil {
		h.Logger.Error("ValidateMovement failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to validate movement"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// Balance serves the tenant's current balance and totals.
func (h *CashHandler) Balance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.Balance(r.Context(), service.BalanceRequest{TenantID: tenantID})
	if err != nil {
		h.Logger.Error("Balance failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to compute balance"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Export downloads the ledger window as an Excel workbook.
func (h *CashHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return
	}

	resp, err := h.Service.ListMovements(r.Context(), service.ListMovementsRequest{
		TenantID: tenantID,
		From:     parseTime(r.URL.Query().Get("from")),
		To:       parseTime(r.URL.Query().Get("to")),
	})
	if err != nil {
		h.Logger.Error("ListMovements failed for export", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to list movements"))
		return
	}

	data := make([]map[string]any, 0, len(resp.Items))
	for _, m := range resp.Items {
		data = append(data, m.ToJSON())
	}

	excelData, err := GenerateCashMovementsExport(data)
	if err != nil {
		h.Logger.Error("GenerateCashMovementsExport failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(fmt.Sprintf("failed to generate export: %v", err)))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=cash-movements.xlsx")
	w.WriteHeader(http.StatusOK)
	w.Write(excelData)
}

func (h *CashHandler) movementRequest(w http.ResponseWriter, r *http.Request) (service.RecordMovementRequest, bool) {
	tenantID, ok := tenantIDFromReq(w, r)
	if !ok {
		return service.RecordMovementRequest{}, false
	}

	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return service.RecordMovementRequest{}, false
	}

	req := service.RecordMovementRequest{TenantID: tenantID}
	if v, ok := payload["type"].(string); ok {
		req.Type = v
	}
	if v, ok := payload["amount"].(float64); ok {
		req.Amount = v
	}
	if v, ok := payload["payment_method"].(string); ok {
		req.PaymentMethod = v
	}
	if v, ok := payload["reason"].(string); ok {
		req.Reason = v
	}
	if v, ok := payload["reference"].(string); ok {
		req.Reference = v
	}
	if v, ok := payload["client_id"].(string); ok {
		req.ClientID = v
	}
	if v, ok := payload["created_by"].(string); ok {
		req.CreatedBy = v
	}
	return req, true
}
