package domain

import (
	"database/sql"
)

// Room is one cold room (chambre) of a facility.
//
// sensor_id is the logical channel reference printed on the probe
// (e.g. "S-CH12" -> channel 12); boitie_sensor_id identifies the physical
// gateway box hosting that channel. A room without a boitie has no live
// telemetry and renders offline.
type Room struct {
	RoomID   string `db:"room_id"`
	TenantID string `db:"tenant_id"`
	RoomName string `db:"room_name"`

	// capacity in storage units (pallets) and crates
	CapacityUnits  int `db:"capacity_units"`
	CapacityCrates int `db:"capacity_crates"`

	SensorID       sql.NullString `db:"sensor_id"`
	BoitieSensorID sql.NullString `db:"boitie_sensor_id"`
	// BeaconMode marks boities that report through a BLE beacon array
	// instead of per-channel telemetry keys.
	BeaconMode     bool `db:"beacon_mode"`
	ATHGroupNumber int  `db:"ath_group_number"`

	Active          bool `db:"active"`
	SensorInstalled bool `db:"sensor_installed"`

	CreatedAt sql.NullTime `db:"created_at"`
	UpdatedAt sql.NullTime `db:"updated_at"`
}

func (r *Room) ToJSON() map[string]any {
	m := map[string]any{
		"room_id":          r.RoomID,
		"tenant_id":        r.TenantID,
		"room_name":        r.RoomName,
		"capacity_units":   r.CapacityUnits,
		"capacity_crates":  r.CapacityCrates,
		"beacon_mode":      r.BeaconMode,
		"ath_group_number": r.ATHGroupNumber,
		"active":           r.Active,
		"sensor_installed": r.SensorInstalled,
	}
	if r.SensorID.Valid {
		m["sensor_id"] = r.SensorID.String
	}
	if r.BoitieSensorID.Valid {
		m["boitie_sensor_id"] = r.BoitieSensorID.String
	}
	if r.CreatedAt.Valid {
		m["created_at"] = r.CreatedAt.Time
	}
	if r.UpdatedAt.Valid {
		m["updated_at"] = r.UpdatedAt.Time
	}
	return m
}
