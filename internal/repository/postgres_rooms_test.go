package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
)

func setupRoomsRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresRoomsRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return db, mock, NewPostgresRoomsRepository(db)
}

func roomRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"room_id", "tenant_id", "room_name", "capacity_units", "capacity_crates",
		"sensor_id", "boitie_sensor_id", "beacon_mode", "ath_group_number",
		"active", "sensor_installed", "created_at", "updated_at",
	})
}

func TestListRooms_SortsByGroupThenName(t *testing.T) {
	db, mock, repo := setupRoomsRepo(t)
	defer db.Close()

	now := time.Now()
	rows := roomRows().
		AddRow("room-3", "tenant-1", "Chambre 9", 100, 500, "S-CH9", "dev-1", false, 2, true, true, now, now).
		AddRow("room-1", "tenant-1", "Chambre 2", 100, 500, "S-CH2", "dev-1", false, 1, true, true, now, now).
		AddRow("room-2", "tenant-1", "Chambre 1", 100, 500, "S-CH1", "dev-1", false, 1, true, true, now, now)

	mock.ExpectQuery(`FROM rooms`).
		WithArgs("tenant-1").
		WillReturnRows(rows)

	rooms, err := repo.ListRooms(context.Background(), "tenant-1")

	require.NoError(t, err)
	require.Len(t, rooms, 3)
	// Ordered by ath_group_number, then room_name, regardless of row order.
	assert.Equal(t, "Chambre 1", rooms[0].RoomName)
	assert.Equal(t, "Chambre 2", rooms[1].RoomName)
	assert.Equal(t, "Chambre 9", rooms[2].RoomName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRooms_EmptyTenantShortCircuits(t *testing.T) {
	db, mock, repo := setupRoomsRepo(t)
	defer db.Close()

	rooms, err := repo.ListRooms(context.Background(), "")

	require.NoError(t, err)
	assert.Empty(t, rooms)
	// No query reaches the database.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRoom_NotFound(t *testing.T) {
	db, mock, repo := setupRoomsRepo(t)
	defer db.Close()

	mock.ExpectQuery(`FROM rooms`).
		WithArgs("tenant-1", "room-x").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetRoom(context.Background(), "tenant-1", "room-x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "room not found")
}

func TestCreateRoom_Success(t *testing.T) {
	db, mock, repo := setupRoomsRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("tenant-1", "Chambre 5").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(`INSERT INTO rooms`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	room := &domain.Room{
		RoomName:       "Chambre 5",
		CapacityUnits:  120,
		CapacityCrates: 600,
		SensorID:       sql.NullString{String: "S-CH5", Valid: true},
		BoitieSensorID: sql.NullString{String: "dev-1", Valid: true},
		Active:         true,
	}
	roomID, err := repo.CreateRoom(context.Background(), "tenant-1", room)

	require.NoError(t, err)
	assert.NotEmpty(t, roomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRoom_DuplicateName(t *testing.T) {
	db, mock, repo := setupRoomsRepo(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("tenant-1", "Chambre 5").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, err := repo.CreateRoom(context.Background(), "tenant-1", &domain.Room{RoomName: "Chambre 5"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRoom_PartialPayload(t *testing.T) {
	db, mock, repo := setupRoomsRepo(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE rooms SET`).
		WithArgs("S-CH7", true, "tenant-1", "room-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now()
	mock.ExpectQuery(`FROM rooms`).
		WithArgs("tenant-1", "room-1").
		WillReturnRows(roomRows().
			AddRow("room-1", "tenant-1", "Chambre 1", 100, 500, "S-CH7", "dev-1", true, 1, true, true, now, now))

	room, err := repo.UpdateRoom(context.Background(), "tenant-1", "room-1", map[string]any{
		"sensor_id":   "S-CH7",
		"beacon_mode": true,
	})

	require.NoError(t, err)
	assert.Equal(t, "S-CH7", room.SensorID.String)
	assert.True(t, room.BeaconMode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRoom_NotFound(t *testing.T) {
	db, mock, repo := setupRoomsRepo(t)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM rooms`).
		WithArgs("tenant-1", "room-x").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteRoom(context.Background(), "tenant-1", "room-x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "room not found")
}

func TestListPollTargets(t *testing.T) {
	db, mock, repo := setupRoomsRepo(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM rooms`).
		WillReturnRows(roomRows().
			AddRow("room-1", "tenant-1", "Chambre 1", 100, 500, "S-CH1", "dev-1", false, 1, true, true, now, now).
			AddRow("room-9", "tenant-2", "Chambre 4", 80, 400, "S-CH4", "dev-7", true, 1, true, true, now, now))

	targets, err := repo.ListPollTargets(context.Background())

	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "dev-1", targets[0].BoitieSensorID.String)
	assert.Equal(t, "tenant-2", targets[1].TenantID)
}
