package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrNoData signals the device payload holds nothing usable for the
// requested room. Callers render the room offline instead of failing.
var ErrNoData = errors.New("no telemetry data")

const beaconsKey = "ble.beacons"

// FieldValue is one field of a channel-style device payload as the
// gateway reports it: a value of varying shape plus a unix-seconds
// timestamp.
type FieldValue struct {
	Value any   `json:"value"`
	TS    int64 `json:"ts"`
}

// DevicePayload is the decoded telemetry map of one gateway device,
// keyed by field name ("ble.sensor.temperature.12", "ble.beacons", ...).
type DevicePayload map[string]FieldValue

// Beacon is one entry of the ble.beacons array. Beacon tags identify
// themselves by a free-text label and carry their readings inline.
type Beacon struct {
	ID          string `json:"id"`
	Temperature any    `json:"temperature"`
	Humidity    any    `json:"humidity"`
	Battery     any    `json:"battery"`
	Magnet      any    `json:"magnet"`
}

func channelKey(metric string, ch int) string {
	return fmt.Sprintf("ble.sensor.%s.%d", metric, ch)
}

// TelemetryKeys lists the gateway fields to request for a set of
// channels. Beacon rooms need the beacon array instead of per-channel
// keys.
func TelemetryKeys(channels []int, includeBeacons bool) []string {
	var keys []string
	for _, ch := range channels {
		keys = append(keys,
			channelKey("temperature", ch),
			channelKey("humidity", ch),
			channelKey("battery", ch),
			channelKey("magnet", ch),
		)
	}
	if includeBeacons {
		keys = append(keys, beaconsKey)
	}
	return keys
}

// Resolve maps a room's logical sensor id to a normalized reading inside
// the owning device's payload. Beacon-mode rooms search the beacon array;
// channel-mode rooms read the per-channel fields.
func Resolve(sensorID string, beaconMode bool, payload DevicePayload) (*Reading, error) {
	ch, ok := ExtractChannel(sensorID)
	if !ok {
		return nil, ErrNoData
	}
	if beaconMode {
		return ResolveBeacon(beaconsFromPayload(payload), ch)
	}
	return ResolveChannel(payload, ch)
}

// ResolveChannel reads the per-channel fields for one channel. A channel
// with neither temperature nor humidity has no data; battery and magnet
// default to 0 when absent. The reading timestamp comes from the
// temperature field, falling back to the wall clock.
func ResolveChannel(payload DevicePayload, ch int) (*Reading, error) {
	tempField, hasTemp := payload[channelKey("temperature", ch)]
	humField, hasHum := payload[channelKey("humidity", ch)]
	if !hasTemp && !hasHum {
		return nil, ErrNoData
	}

	r := &Reading{
		Temperature: toFloat(tempField.Value),
		Humidity:    toFloat(humField.Value),
		Battery:     toFloat(payload[channelKey("battery", ch)].Value),
		Magnet:      toMagnet(payload[channelKey("magnet", ch)].Value),
	}
	if tempField.TS > 0 {
		r.Timestamp = time.Unix(tempField.TS, 0)
	} else {
		r.Timestamp = time.Now()
	}
	return r, nil
}

// ResolveBeacon searches the beacon array for the tag labeled with the
// channel number. Labels vary per installer ("Chambre3", "ch3", "room3",
// "c3" or a bare "3"); the first beacon matching any form wins. Beacons
// carry no timestamp, so the reading is stamped at resolution time.
func ResolveBeacon(beacons []Beacon, ch int) (*Reading, error) {
	for _, b := range beacons {
		if !beaconMatches(b.ID, ch) {
			continue
		}
		return &Reading{
			Temperature: toFloat(b.Temperature),
			Humidity:    toFloat(b.Humidity),
			Battery:     toFloat(b.Battery),
			Magnet:      toMagnet(b.Magnet),
			Timestamp:   time.Now(),
		}, nil
	}
	return nil, ErrNoData
}

func beaconMatches(id string, ch int) bool {
	id = strings.ToLower(strings.TrimSpace(id))
	n := strconv.Itoa(ch)
	for _, candidate := range []string{"chambre" + n, "ch" + n, "room" + n, "c" + n, n} {
		if id == candidate {
			return true
		}
	}
	return false
}

// beaconsFromPayload pulls the beacon array out of a device payload.
func beaconsFromPayload(payload DevicePayload) []Beacon {
	field, ok := payload[beaconsKey]
	if !ok {
		return nil
	}
	return ParseBeacons(field.Value)
}

// ParseBeacons decodes a raw beacon array as it appears in telemetry
// and history payloads. Shape mismatches yield an empty list, never an
// error.
func ParseBeacons(v any) []Beacon {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	var beacons []Beacon
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		b := Beacon{
			Temperature: m["temperature"],
			Humidity:    m["humidity"],
			Battery:     m["battery"],
			Magnet:      m["magnet"],
		}
		if id, ok := m["id"].(string); ok {
			b.ID = id
		}
		beacons = append(beacons, b)
	}
	return beacons
}
