package domain

import "database/sql"

// Client is a customer of the frigo (a farmer or trader renting storage).
// The password column is stored as provided; it only guards the customer
// self-service page and was never hashed in the legacy system.
type Client struct {
	ClientID string `db:"client_id"`
	TenantID string `db:"tenant_id"`
	Name     string `db:"name"`
	Email    sql.NullString `db:"email"`
	Phone    sql.NullString `db:"phone"`
	Company  sql.NullString `db:"company"`
	Password sql.NullString `db:"password"`

	CreatedBy      sql.NullString `db:"created_by"`
	LastModifiedBy sql.NullString `db:"last_modified_by"`
	CreatedAt      sql.NullTime   `db:"created_at"`
	UpdatedAt      sql.NullTime   `db:"updated_at"`
}

func (c *Client) ToJSON() map[string]any {
	m := map[string]any{
		"client_id": c.ClientID,
		"tenant_id": c.TenantID,
		"name":      c.Name,
	}
	if c.Email.Valid {
		m["email"] = c.Email.String
	}
	if c.Phone.Valid {
		m["phone"] = c.Phone.String
	}
	if c.Company.Valid {
		m["company"] = c.Company.String
	}
	if c.CreatedBy.Valid {
		m["created_by"] = c.CreatedBy.String
	}
	if c.LastModifiedBy.Valid {
		m["last_modified_by"] = c.LastModifiedBy.String
	}
	if c.CreatedAt.Valid {
		m["created_at"] = c.CreatedAt.Time
	}
	if c.UpdatedAt.Valid {
		m["updated_at"] = c.UpdatedAt.Time
	}
	return m
}
