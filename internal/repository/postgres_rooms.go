package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
)

type PostgresRoomsRepository struct {
	db *sql.DB
}

func NewPostgresRoomsRepository(db *sql.DB) *PostgresRoomsRepository {
	return &PostgresRoomsRepository{db: db}
}

const roomColumns = `
	room_id::text,
	tenant_id::text,
	room_name,
	capacity_units,
	capacity_crates,
	sensor_id,
	boitie_sensor_id,
	beacon_mode,
	ath_group_number,
	active,
	sensor_installed,
	created_at,
	updated_at`

func scanRoom(scanner interface{ Scan(...any) error }) (*domain.Room, error) {
	var room domain.Room
	err := scanner.Scan(
		&room.RoomID,
		&room.TenantID,
		&room.RoomName,
		&room.CapacityUnits,
		&room.CapacityCrates,
		&room.SensorID,
		&room.BoitieSensorID,
		&room.BeaconMode,
		&room.ATHGroupNumber,
		&room.Active,
		&room.SensorInstalled,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// ListRooms fetches by tenant equality only; display order (zone group,
// then name) is applied in Go.
func (r *PostgresRoomsRepository) ListRooms(ctx context.Context, tenantID string) ([]*domain.Room, error) {
	if tenantID == "" {
		return []*domain.Room{}, nil
	}

	q := `SELECT ` + roomColumns + ` FROM rooms WHERE tenant_id = $1`
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ATHGroupNumber != out[j].ATHGroupNumber {
			return out[i].ATHGroupNumber < out[j].ATHGroupNumber
		}
		return out[i].RoomName < out[j].RoomName
	})
	return out, nil
}

func (r *PostgresRoomsRepository) GetRoom(ctx context.Context, tenantID, roomID string) (*domain.Room, error) {
	if tenantID == "" || roomID == "" {
		return nil, fmt.Errorf("tenant_id and room_id are required")
	}

	q := `SELECT ` + roomColumns + ` FROM rooms WHERE tenant_id = $1 AND room_id = $2`
	room, err := scanRoom(r.db.QueryRowContext(ctx, q, tenantID, roomID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("room not found: room_id=%s", roomID)
		}
		return nil, err
	}
	return room, nil
}

func (r *PostgresRoomsRepository) CreateRoom(ctx context.Context, tenantID string, room *domain.Room) (string, error) {
	if tenantID == "" {
		return "", fmt.Errorf("tenant_id is required")
	}
	if room == nil || strings.TrimSpace(room.RoomName) == "" {
		return "", fmt.Errorf("room_name is required")
	}

	// Uniqueness is checked before the write; concurrent creates can
	// still race; no unique index backs this check.
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rooms WHERE tenant_id = $1 AND room_name = $2`,
		tenantID, room.RoomName,
	).Scan(&count)
	if err != nil {
		return "", fmt.Errorf("failed to check room name: %w", err)
	}
	if count > 0 {
		return "", fmt.Errorf("room name already exists: %s", room.RoomName)
	}

	roomID := uuid.New().String()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO rooms (
			room_id, tenant_id, room_name, capacity_units, capacity_crates,
			sensor_id, boitie_sensor_id, beacon_mode, ath_group_number,
			active, sensor_installed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		roomID, tenantID, room.RoomName, room.CapacityUnits, room.CapacityCrates,
		room.SensorID, room.BoitieSensorID, room.BeaconMode, room.ATHGroupNumber,
		room.Active, room.SensorInstalled,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}
	return roomID, nil
}

var roomUpdatableColumns = []string{
	"room_name",
	"capacity_units",
	"capacity_crates",
	"sensor_id",
	"boitie_sensor_id",
	"beacon_mode",
	"ath_group_number",
	"active",
	"sensor_installed",
}

func (r *PostgresRoomsRepository) UpdateRoom(ctx context.Context, tenantID, roomID string, payload map[string]any) (*domain.Room, error) {
	if tenantID == "" || roomID == "" {
		return nil, fmt.Errorf("tenant_id and room_id are required")
	}

	sets := []string{}
	args := []any{}
	idx := 1
	for _, col := range roomUpdatableColumns {
		v, ok := payload[col]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, v)
		idx++
	}
	if len(sets) == 0 {
		return r.GetRoom(ctx, tenantID, roomID)
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	q := fmt.Sprintf(`UPDATE rooms SET %s WHERE tenant_id = $%d AND room_id = $%d`,
		strings.Join(sets, ", "), idx, idx+1)
	args = append(args, tenantID, roomID)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("room not found: room_id=%s", roomID)
	}
	return r.GetRoom(ctx, tenantID, roomID)
}

func (r *PostgresRoomsRepository) DeleteRoom(ctx context.Context, tenantID, roomID string) error {
	if tenantID == "" || roomID == "" {
		return fmt.Errorf("tenant_id and room_id are required")
	}

	res, err := r.db.ExecContext(ctx,
		`DELETE FROM rooms WHERE tenant_id = $1 AND room_id = $2`,
		tenantID, roomID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("room not found: room_id=%s", roomID)
	}
	return nil
}

// ListPollTargets feeds the background poller: every room, across
// tenants, that is active with an installed sensor on a known gateway.
func (r *PostgresRoomsRepository) ListPollTargets(ctx context.Context) ([]*domain.Room, error) {
	q := `SELECT ` + roomColumns + `
		FROM rooms
		WHERE active = TRUE
		  AND sensor_installed = TRUE
		  AND boitie_sensor_id IS NOT NULL
		  AND boitie_sensor_id <> ''`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}
