package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
)

type PostgresCashRepository struct {
	db *sql.DB
}

func NewPostgresCashRepository(db *sql.DB) *PostgresCashRepository {
	return &PostgresCashRepository{db: db}
}

const movementColumns = `
	movement_id::text,
	tenant_id::text,
	type,
	amount,
	payment_method,
	reason,
	reference,
	client_id,
	created_by,
	created_at`

func scanMovement(scanner interface{ Scan(...any) error }) (*domain.CashMovement, error) {
	var m domain.CashMovement
	err := scanner.Scan(
		&m.MovementID,
		&m.TenantID,
		&m.Type,
		&m.Amount,
		&m.PaymentMethod,
		&m.Reason,
		&m.Reference,
		&m.ClientID,
		&m.CreatedBy,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresCashRepository) ListMovements(ctx context.Context, tenantID string, from, to time.Time) ([]*domain.CashMovement, error) {
	if tenantID == "" {
		return []*domain.CashMovement{}, nil
	}

	where := "tenant_id = $1"
	args := []any{tenantID}
	argIdx := 2
	if !from.IsZero() {
		where += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, from)
		argIdx++
	}
	if !to.IsZero() {
		where += fmt.Sprintf(" AND created_at < $%d", argIdx)
		args = append(args, to)
		argIdx++
	}

	q := `SELECT ` + movementColumns + ` FROM cash_movements WHERE ` + where + ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.CashMovement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateMovement is a single-row insert; callers validate first. There
// is no transaction around the validate-then-write sequence, so a
// duplicate reference can still slip in between concurrent cashiers.
func (r *PostgresCashRepository) CreateMovement(ctx context.Context, tenantID string, m *domain.CashMovement) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}
	if m == nil {
		return "", fmt.Errorf("movement is required")
	}

	movementID := uuid.New().String()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cash_movements (
			movement_id, tenant_id, type, amount, payment_method,
			reason, reference, client_id, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		movementID, tenantID, m.Type, m.Amount, m.PaymentMethod,
		m.Reason, m.Reference, m.ClientID, m.CreatedBy,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create cash movement: %w", err)
	}
	return movementID, nil
}

func (r *PostgresCashRepository) SumMovements(ctx context.Context, tenantID string) (float64, float64, error) {
	if tenantID == "" {
		return 0, 0, nil
	}

	var in, out float64
	err := r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN type = 'in' THEN amount ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'out' THEN amount ELSE 0 END), 0)
		FROM cash_movements
		WHERE tenant_id = $1`,
		tenantID,
	).Scan(&in, &out)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to sum cash movements: %w", err)
	}
	return in, out, nil
}
