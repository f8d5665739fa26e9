package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
)

type PostgresCrateTypesRepository struct {
	db *sql.DB
}

func NewPostgresCrateTypesRepository(db *sql.DB) *PostgresCrateTypesRepository {
	return &PostgresCrateTypesRepository{db: db}
}

const crateTypeColumns = `
	crate_type_id::text,
	tenant_id::text,
	type_name,
	color,
	deposit_amount,
	quantity,
	active,
	created_at,
	updated_at`

func scanCrateType(scanner interface{ Scan(...any) error }) (*domain.CrateType, error) {
	var ct domain.CrateType
	err := scanner.Scan(
		&ct.CrateTypeID,
		&ct.TenantID,
		&ct.TypeName,
		&ct.Color,
		&ct.DepositAmount,
		&ct.Quantity,
		&ct.Active,
		&ct.CreatedAt,
		&ct.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

func (r *PostgresCrateTypesRepository) ListCrateTypes(ctx context.Context, tenantID string) ([]*domain.CrateType, error) {
	if tenantID == "" {
		return []*domain.CrateType{}, nil
	}

	q := `SELECT ` + crateTypeColumns + ` FROM crate_types WHERE tenant_id = $1 ORDER BY type_name`
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.CrateType{}
	for rows.Next() {
		ct, err := scanCrateType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func (r *PostgresCrateTypesRepository) GetCrateType(ctx context.Context, tenantID, crateTypeID string) (*domain.CrateType, error) {
	if tenantID == "" || crateTypeID == "" {
		return nil, fmt.Errorf("tenant_id and crate_type_id are required")
	}

	q := `SELECT ` + crateTypeColumns + ` FROM crate_types WHERE tenant_id = $1 AND crate_type_id = $2`
	ct, err := scanCrateType(r.db.QueryRowContext(ctx, q, tenantID, crateTypeID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("crate type not found: crate_type_id=%s", crateTypeID)
		}
		return nil, err
	}
	return ct, nil
}

func (r *PostgresCrateTypesRepository) CreateCrateType(ctx context.Context, tenantID string, ct *domain.CrateType) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}
	if ct == nil || strings.TrimSpace(ct.TypeName) == "" {
		return "", fmt.Errorf("type_name is required")
	}

	crateTypeID := uuid.New().String()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO crate_types (
			crate_type_id, tenant_id, type_name, color, deposit_amount,
			quantity, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		crateTypeID, tenantID, ct.TypeName, ct.Color, ct.DepositAmount,
		ct.Quantity, ct.Active,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create crate type: %w", err)
	}
	return crateTypeID, nil
}

var crateTypeUpdatableColumns = []string{
	"type_name",
	"color",
	"deposit_amount",
	"quantity",
	"active",
}

func (r *PostgresCrateTypesRepository) UpdateCrateType(ctx context.Context, tenantID, crateTypeID string, payload map[string]any) (*domain.CrateType, error) {
	if tenantID == "" || crateTypeID == "" {
		return nil, fmt.Errorf("tenant_id and crate_type_id are required")
	}

	sets := []string{}
	args := []any{}
	idx := 1
	for _, col := range crateTypeUpdatableColumns {
		v, ok := payload[col]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, v)
		idx++
	}
	if len(sets) == 0 {
		return r.GetCrateType(ctx, tenantID, crateTypeID)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	q := fmt.Sprintf(`UPDATE crate_types SET %s WHERE tenant_id = $%d AND crate_type_id = $%d`,
		strings.Join(sets, ", "), idx, idx+1)
	args = append(args, tenantID, crateTypeID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update crate type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("crate type not found: crate_type_id=%s", crateTypeID)
	}
	return r.GetCrateType(ctx, tenantID, crateTypeID)
}

func (r *PostgresCrateTypesRepository) DeleteCrateType(ctx context.Context, tenantID, crateTypeID string) error {
	if tenantID == "" || crateTypeID == "" {
		return fmt.Errorf("tenant_id and crate_type_id are required")
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM crate_types WHERE tenant_id = $1 AND crate_type_id = $2`,
		tenantID, crateTypeID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete crate type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("crate type not found: crate_type_id=%s", crateTypeID)
	}
	return nil
}
