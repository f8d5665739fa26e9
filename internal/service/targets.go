package service

import (
	"sort"

	"github.com/Fellahty/frigosaas-sub002/internal/domain"
	"github.com/Fellahty/frigosaas-sub002/internal/telemetry"
)

// TargetsForRooms groups rooms by their gateway device and collects the
// telemetry fields each device must report: the channel fields of every
// channel-mode room plus the beacon array when any room on the device is
// beacon-mode. Output is sorted for determinism.
func TargetsForRooms(rooms []*domain.Room) []telemetry.DeviceTarget {
	type deviceFields struct {
		channels map[int]bool
		beacons  bool
	}

	devices := map[string]*deviceFields{}
	for _, room := range rooms {
		if !room.BoitieSensorID.Valid || room.BoitieSensorID.String == "" {
			continue
		}
		deviceID := room.BoitieSensorID.String
		fields, ok := devices[deviceID]
		if !ok {
			fields = &deviceFields{channels: map[int]bool{}}
			devices[deviceID] = fields
		}

		if room.BeaconMode {
			fields.beacons = true
			continue
		}
		if !room.SensorID.Valid {
			continue
		}
		if ch, ok := telemetry.ExtractChannel(room.SensorID.String); ok {
			fields.channels[ch] = true
		}
	}

	deviceIDs := make([]string, 0, len(devices))
	for id := range devices {
		deviceIDs = append(deviceIDs, id)
	}
	sort.Strings(deviceIDs)

	targets := make([]telemetry.DeviceTarget, 0, len(deviceIDs))
	for _, id := range deviceIDs {
		fields := devices[id]
		channels := make([]int, 0, len(fields.channels))
		for ch := range fields.channels {
			channels = append(channels, ch)
		}
		sort.Ints(channels)

		targets = append(targets, telemetry.DeviceTarget{
			DeviceID: id,
			Keys:     telemetry.TelemetryKeys(channels, fields.beacons),
		})
	}
	return targets
}
