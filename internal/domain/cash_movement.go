package domain

import "database/sql"

// Movement direction values stored in cash_movements.type.
const (
	MovementIn  = "in"
	MovementOut = "out"
)

// Payment methods accepted for a cash movement.
const (
	PaymentCash     = "cash"
	PaymentCheck    = "check"
	PaymentTransfer = "transfer"
	PaymentCard     = "card"
)

// CashMovement is one entry in a tenant's cash ledger. Reference is the
// receipt or check number written on the paper trail; it must be unique
// within the same day for the tenant.
type CashMovement struct {
	MovementID    string  `db:"movement_id"`
	TenantID      string  `db:"tenant_id"`
	Type          string  `db:"type"`
	Amount        float64 `db:"amount"`
	PaymentMethod string  `db:"payment_method"`
	Reason        string  `db:"reason"`
	Reference     string  `db:"reference"`

	ClientID  sql.NullString `db:"client_id"`
	CreatedBy sql.NullString `db:"created_by"`
	CreatedAt sql.NullTime   `db:"created_at"`
}

func (m *CashMovement) ToJSON() map[string]any {
	j := map[string]any{
		"movement_id":    m.MovementID,
		"tenant_id":      m.TenantID,
		"type":           m.Type,
		"amount":         m.Amount,
		"payment_method": m.PaymentMethod,
		"reason":         m.Reason,
		"reference":      m.Reference,
	}
	if m.ClientID.Valid {
		j["client_id"] = m.ClientID.String
	}
	if m.CreatedBy.Valid {
		j["created_by"] = m.CreatedBy.String
	}
	if m.CreatedAt.Valid {
		j["created_at"] = m.CreatedAt.Time
	}
	return j
}
