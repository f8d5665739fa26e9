package domain

import "encoding/json"

// Tenant is one frigo operator account. Every other entity is scoped to a
// tenant_id; there is no cross-tenant visibility.
type Tenant struct {
	TenantID   string `db:"tenant_id"` // UUID, PRIMARY KEY
	TenantName string `db:"tenant_name"`
	Domain     string `db:"domain"` // UNIQUE, nullable
	Email      string `db:"email"`
	Phone      string `db:"phone"`

	// active / suspended / deleted
	Status string `db:"status"`

	Metadata json.RawMessage `db:"metadata"` // JSONB, nullable
}

func (t *Tenant) ToJSON() map[string]any {
	m := map[string]any{
		"tenant_id":   t.TenantID,
		"tenant_name": t.TenantName,
		"domain":      t.Domain,
		"email":       t.Email,
		"phone":       t.Phone,
		"status":      t.Status,
	}
	if len(t.Metadata) > 0 {
		var parsed any
		if err := json.Unmarshal(t.Metadata, &parsed); err == nil {
			m["metadata"] = parsed
		}
	}
	return m
}
