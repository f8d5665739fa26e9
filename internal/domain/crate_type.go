package domain

import "database/sql"

// CrateType describes one kind of crate the frigo lends against deposit
// (wooden, plastic, client-owned). Quantity is the pool size owned by
// the tenant, not the number currently lent out.
type CrateType struct {
	CrateTypeID   string  `db:"crate_type_id"`
	TenantID      string  `db:"tenant_id"`
	TypeName      string  `db:"type_name"`
	Color         string  `db:"color"`
	DepositAmount float64 `db:"deposit_amount"`
	Quantity      int     `db:"quantity"`
	Active        bool    `db:"active"`

	CreatedAt sql.NullTime `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
}

func (c *CrateType) ToJSON() map[string]any {
	m := map[string]any{
		"crate_type_id":  c.CrateTypeID,
		"tenant_id":      c.TenantID,
		"type_name":      c.TypeName,
		"color":          c.Color,
		"deposit_amount": c.DepositAmount,
		"quantity":       c.Quantity,
		"active":         c.Active,
	}
	if c.CreatedAt.Valid {
		m["created_at"] = c.CreatedAt.Time
	}
	if c.UpdatedAt.Valid {
		m["updated_at"] = c.UpdatedAt.Time
	}
	return m
}
