package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Fellahty/frigosaas-sub002/internal/cashflow"
	"github.com/Fellahty/frigosaas-sub002/internal/domain"
	"github.com/Fellahty/frigosaas-sub002/internal/repository"

	"go.uber.org/zap"
)

// CashService owns the tenant cash ledger: listing, balance, and the
// validate-then-write path for new movements.
type CashService interface {
	// ListMovements returns the ledger for a window, newest first.
	ListMovements(ctx context.Context, req ListMovementsRequest) (*ListMovementsResponse, error)

	// ValidateMovement dry-runs a proposed movement against the
	// ledger rules without writing anything.
	ValidateMovement(ctx context.Context, req RecordMovementRequest) (*cashflow.ValidationResult, error)

	// RecordMovement validates and, when valid, persists a movement.
	// An invalid movement is not an error: the response carries the
	// validation outcome and no movement id.
	RecordMovement(ctx context.Context, req RecordMovementRequest) (*RecordMovementResponse, error)

	// Balance returns the tenant's current balance and ledger totals.
	Balance(ctx context.Context, req BalanceRequest) (*BalanceResponse, error)
}

type cashService struct {
	cashRepo     repository.CashRepo
	settingsRepo repository.SettingsRepo
	logger       *zap.Logger
}

// NewCashService creates a CashService instance.
func NewCashService(cashRepo repository.CashRepo, settingsRepo repository.SettingsRepo, logger *zap.Logger) CashService {
	return &cashService{
		cashRepo:     cashRepo,
		settingsRepo: settingsRepo,
		logger:       logger,
	}
}

// ============================================
// Request/Response DTOs
// ============================================

type ListMovementsRequest struct {
	TenantID string    // required
	From     time.Time // optional
	To       time.Time // optional
}

type ListMovementsResponse struct {
	Items []*domain.CashMovement `json:"items"`
}

type RecordMovementRequest struct {
	TenantID      string  // required
	Type          string  // "in" | "out"
	Amount        float64 // MAD
	PaymentMethod string
	Reason        string
	Reference     string
	ClientID      string // optional
	CreatedBy     string // optional
}

type RecordMovementResponse struct {
	MovementID string                    `json:"movement_id,omitempty"`
	Validation cashflow.ValidationResult `json:"validation"`
}

type BalanceRequest struct {
	TenantID string // required
}

type BalanceResponse struct {
	Balance        float64 `json:"balance"`
	InitialBalance float64 `json:"initial_balance"`
	TotalIn        float64 `json:"total_in"`
	TotalOut       float64 `json:"total_out"`
}

// ============================================
// Operations
// ============================================

func (s *cashService) ListMovements(ctx context.Context, req ListMovementsRequest) (*ListMovementsResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	items, err := s.cashRepo.ListMovements(ctx, req.TenantID, req.From, req.To)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	return &ListMovementsResponse{Items: items}, nil
}

func (s *cashService) ValidateMovement(ctx context.Context, req RecordMovementRequest) (*cashflow.ValidationResult, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	movement := movementFromRequest(req)
	result, err := s.validate(ctx, req.TenantID, movement)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *cashService) RecordMovement(ctx context.Context, req RecordMovementRequest) (*RecordMovementResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	movement := movementFromRequest(req)
	result, err := s.validate(ctx, req.TenantID, movement)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return &RecordMovementResponse{Validation: *result}, nil
	}

	movementID, err := s.cashRepo.CreateMovement(ctx, req.TenantID, movement)
	if err != nil {
		return nil, fmt.Errorf("failed to record movement: %w", err)
	}

	s.logger.Info("Cash movement recorded",
		zap.String("tenant_id", req.TenantID),
		zap.String("movement_id", movementID),
		zap.String("type", movement.Type),
		zap.Float64("amount", movement.Amount),
		zap.Int("warnings", len(result.Warnings)))

	return &RecordMovementResponse{MovementID: movementID, Validation: *result}, nil
}

func (s *cashService) Balance(ctx context.Context, req BalanceRequest) (*BalanceResponse, error) {
	if req.TenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	_, initial := s.tenantLimits(ctx, req.TenantID)
	in, out, err := s.cashRepo.SumMovements(ctx, req.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum movements: %w", err)
	}

	return &BalanceResponse{
		Balance:        initial + in - out,
		InitialBalance: initial,
		TotalIn:        in,
		TotalOut:       out,
	}, nil
}

// ============================================
// Internals
// ============================================

func movementFromRequest(req RecordMovementRequest) *domain.CashMovement {
	m := &domain.CashMovement{
		TenantID:      req.TenantID,
		Type:          req.Type,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Reason:        req.Reason,
		Reference:     req.Reference,
	}
	if req.ClientID != "" {
		m.ClientID = sql.NullString{String: req.ClientID, Valid: true}
	}
	if req.CreatedBy != "" {
		m.CreatedBy = sql.NullString{String: req.CreatedBy, Valid: true}
	}
	return m
}

// validate gathers balance, today's ledger and tenant limits, then runs
// the pure ruleset. The read-validate-write sequence is not
// transactional; see CreateMovement.
func (s *cashService) validate(ctx context.Context, tenantID string, movement *domain.CashMovement) (*cashflow.ValidationResult, error) {
	limits, initial := s.tenantLimits(ctx, tenantID)

	in, out, err := s.cashRepo.SumMovements(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum movements: %w", err)
	}
	balance := initial + in - out

	today, err := s.todayMovements(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	result := cashflow.ValidateMovement(movement, balance, today, limits)
	return &result, nil
}

func (s *cashService) todayMovements(ctx context.Context, tenantID string) ([]domain.CashMovement, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	items, err := s.cashRepo.ListMovements(ctx, tenantID, start, start.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to list today's movements: %w", err)
	}

	today := make([]domain.CashMovement, 0, len(items))
	for _, item := range items {
		today = append(today, *item)
	}
	return today, nil
}

// tenantLimits reads validation thresholds and the opening balance from
// settings/general. Unset or unreadable settings take the defaults.
func (s *cashService) tenantLimits(ctx context.Context, tenantID string) (cashflow.Limits, float64) {
	limits := cashflow.Limits{}
	initial := 0.0

	settings, err := s.settingsRepo.GetSettings(ctx, tenantID, domain.SettingsGeneral)
	if err != nil {
		s.logger.Warn("Failed to load general settings, using default limits",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return limits, initial
	}
	if settings == nil {
		return limits, initial
	}

	data, err := settings.DataMap()
	if err != nil {
		s.logger.Warn("Corrupt general settings document, using default limits",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return limits, initial
	}
	if v, ok := numberSetting(data, "large_movement_threshold"); ok {
		limits.LargeMovementAmount = v
	}
	if v, ok := numberSetting(data, "rapid_window_minutes"); ok {
		limits.RapidWindow = time.Duration(v) * time.Minute
	}
	if v, ok := numberSetting(data, "rapid_movement_count"); ok {
		limits.RapidCount = int(v)
	}
	if v, ok := numberSetting(data, "low_balance_threshold"); ok {
		limits.LowBalance = v
	}
	if v, ok := numberSetting(data, "initial_balance"); ok {
		initial = v
	}
	return limits, initial
}

// numberSetting tolerates the numeric shapes JSON decoding produces.
func numberSetting(data map[string]any, key string) (float64, bool) {
	switch v := data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
