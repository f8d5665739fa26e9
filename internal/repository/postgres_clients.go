package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
)

type PostgresClientsRepository struct {
	db *sql.DB
}

func NewPostgresClientsRepository(db *sql.DB) *PostgresClientsRepository {
	return &PostgresClientsRepository{db: db}
}

const clientColumns = `
	client_id::text,
	tenant_id::text,
	name,
	email,
	phone,
	company,
	password,
	created_by,
	last_modified_by,
	created_at,
	updated_at`

func scanClient(scanner interface{ Scan(...any) error }) (*domain.Client, error) {
	var c domain.Client
	err := scanner.Scan(
		&c.ClientID,
		&c.TenantID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.Company,
		&c.Password,
		&c.CreatedBy,
		&c.LastModifiedBy,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresClientsRepository) ListClients(ctx context.Context, tenantID string) ([]*domain.Client, error) {
	if tenantID == "" {
		return []*domain.Client{}, nil
	}

	q := `SELECT ` + clientColumns + ` FROM clients WHERE tenant_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresClientsRepository) GetClient(ctx context.Context, tenantID, clientID string) (*domain.Client, error) {
	if tenantID == "" || clientID == "" {
		return nil, fmt.Errorf("tenant_id and client_id are required")
	}

	q := `SELECT ` + clientColumns + ` FROM clients WHERE tenant_id = $1 AND client_id = $2`
	c, err := scanClient(r.db.QueryRowContext(ctx, q, tenantID, clientID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("client not found: client_id=%s", clientID)
		}
		return nil, err
	}
	return c, nil
}

func (r *PostgresClientsRepository) CreateClient(ctx context.Context, tenantID string, client *domain.Client) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}
	if client == nil || strings.TrimSpace(client.Name) == "" {
		return "", fmt.Errorf("name is required")
	}

	// Email uniqueness is checked before the write when one is given.
	if client.Email.Valid && client.Email.String != "" {
		var count int
		err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM clients WHERE tenant_id = $1 AND email = $2`,
			tenantID, client.Email.String,
		).Scan(&count)
		if err != nil {
			return "", fmt.Errorf("failed to check client email: %w", err)
		}
		if count > 0 {
			return "", fmt.Errorf("client email already exists: %s", client.Email.String)
		}
	}

	clientID := uuid.New().String()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (
			client_id, tenant_id, name, email, phone, company, password,
			created_by, last_modified_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		clientID, tenantID, client.Name, client.Email, client.Phone,
		client.Company, client.Password, client.CreatedBy,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create client: %w", err)
	}
	return clientID, nil
}

var clientUpdatableColumns = []string{
	"name",
	"email",
	"phone",
	"company",
	"password",
	"last_modified_by",
}

func (r *PostgresClientsRepository) UpdateClient(ctx context.Context, tenantID, clientID string, payload map[string]any) (*domain.Client, error) {
	if tenantID == "" || clientID == "" {
		return nil, fmt.Errorf("tenant_id and client_id are required")
	}

	sets := []string{}
	args := []any{}
	idx := 1
	for _, col := range clientUpdatableColumns {
		v, ok := payload[col]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, v)
		idx++
	}
	if len(sets) == 0 {
		return r.GetClient(ctx, tenantID, clientID)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	q := fmt.Sprintf(`UPDATE clients SET %s WHERE tenant_id = $%d AND client_id = $%d`,
		strings.Join(sets, ", "), idx, idx+1)
	args = append(args, tenantID, clientID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("client not found: client_id=%s", clientID)
	}
	return r.GetClient(ctx, tenantID, clientID)
}

func (r *PostgresClientsRepository) DeleteClient(ctx context.Context, tenantID, clientID string) error {
	if tenantID == "" || clientID == "" {
		return fmt.Errorf("tenant_id and client_id are required")
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM clients WHERE tenant_id = $1 AND client_id = $2`,
		tenantID, clientID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("client not found: client_id=%s", clientID)
	}
	return nil
}
