package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
)

type PostgresTenantsRepository struct {
	db *sql.DB
}

func NewPostgresTenantsRepository(db *sql.DB) *PostgresTenantsRepository {
	return &PostgresTenantsRepository{db: db}
}

const tenantColumns = `
	tenant_id::text,
	tenant_name,
	domain,
	email,
	phone,
	status,
	metadata`

func scanTenant(scanner interface{ Scan(...any) error }) (*domain.Tenant, error) {
	var t domain.Tenant
	var metadata []byte
	err := scanner.Scan(
		&t.TenantID,
		&t.TenantName,
		&t.Domain,
		&t.Email,
		&t.Phone,
		&t.Status,
		&metadata,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		t.Metadata = metadata
	}
	return &t, nil
}

func (r *PostgresTenantsRepository) ListTenants(ctx context.Context) ([]*domain.Tenant, error) {
	q := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY tenant_name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PostgresTenantsRepository) GetTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	q := `SELECT ` + tenantColumns + ` FROM tenants WHERE tenant_id = $1`
	t, err := scanTenant(r.db.QueryRowContext(ctx, q, tenantID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("tenant not found: tenant_id=%s", tenantID)
		}
		return nil, err
	}
	return t, nil
}

func (r *PostgresTenantsRepository) CreateTenant(ctx context.Context, tenant *domain.Tenant) (string, error) {
	if tenant == nil || strings.TrimSpace(tenant.TenantName) == "" {
		return "", fmt.Errorf("tenant_name is required")
	}

	status := tenant.Status
	if status == "" {
		status = "active"
	}
	metadata := tenant.Metadata
	if len(metadata) == 0 {
		metadata = []byte("{}")
	}

	tenantID := uuid.New().String()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tenants (tenant_id, tenant_name, domain, email, phone, status, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tenantID, tenant.TenantName, tenant.Domain, tenant.Email,
		tenant.Phone, status, []byte(metadata),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create tenant: %w", err)
	}
	return tenantID, nil
}

var tenantUpdatableColumns = []string{
	"tenant_name",
	"domain",
	"email",
	"phone",
	"status",
	"metadata",
}

func (r *PostgresTenantsRepository) UpdateTenant(ctx context.Context, tenantID string, payload map[string]any) (*domain.Tenant, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("tenant_id is required")
	}

	sets := []string{}
	args := []any{}
	idx := 1
	for _, col := range tenantUpdatableColumns {
		v, ok := payload[col]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, v)
		idx++
	}
	if len(sets) == 0 {
		return r.GetTenant(ctx, tenantID)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	q := fmt.Sprintf(`UPDATE tenants SET %s WHERE tenant_id = $%d`,
		strings.Join(sets, ", "), idx)
	args = append(args, tenantID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("tenant not found: tenant_id=%s", tenantID)
	}
	return r.GetTenant(ctx, tenantID)
}

func (r *PostgresTenantsRepository) DeleteTenant(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return fmt.Errorf("tenant_id is required")
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tenants WHERE tenant_id = $1`,
		tenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("tenant not found: tenant_id=%s", tenantID)
	}
	return nil
}
