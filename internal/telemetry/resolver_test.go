package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractChannel(t *testing.T) {
	tests := []struct {
		sensorID string
		channel  int
		ok       bool
	}{
		{"S-CH12", 12, true},
		{"S-CH2", 2, true},
		{"CH7", 7, true},
		{"3", 3, true},
		{"chambre 14", 14, true},
		{"S-CH12-B", 12, true},
		{"SENSOR", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		ch, ok := ExtractChannel(tt.sensorID)
		assert.Equal(t, tt.ok, ok, "sensor id %q", tt.sensorID)
		assert.Equal(t, tt.channel, ch, "sensor id %q", tt.sensorID)
	}
}

func TestResolveChannel_EndToEnd(t *testing.T) {
	payload := DevicePayload{
		"ble.sensor.temperature.2": {Value: "4.5", TS: 1700000000},
		"ble.sensor.humidity.2":    {Value: "88"},
	}

	r, err := Resolve("S-CH2", false, payload)
	require.NoError(t, err)

	assert.Equal(t, 4.5, r.Temperature)
	assert.Equal(t, 88.0, r.Humidity)
	assert.Equal(t, 0.0, r.Battery)
	assert.Equal(t, 0, r.Magnet)
	assert.Equal(t, time.Unix(1700000000, 0), r.Timestamp)
}

func TestResolveChannel_NumericValues(t *testing.T) {
	payload := DevicePayload{
		"ble.sensor.temperature.5": {Value: -1.25, TS: 1700000100},
		"ble.sensor.humidity.5":    {Value: 91.0},
		"ble.sensor.battery.5":     {Value: "3.1"},
		"ble.sensor.magnet.5":      {Value: true},
	}

	r, err := ResolveChannel(payload, 5)
	require.NoError(t, err)

	assert.Equal(t, -1.25, r.Temperature)
	assert.Equal(t, 91.0, r.Humidity)
	assert.Equal(t, 3.1, r.Battery)
	assert.Equal(t, 1, r.Magnet)
}

func TestResolveChannel_MagnetNumeric(t *testing.T) {
	payload := DevicePayload{
		"ble.sensor.temperature.1": {Value: 2.0, TS: 1700000000},
		"ble.sensor.magnet.1":      {Value: "0"},
	}

	r, err := ResolveChannel(payload, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, r.Magnet)

	payload["ble.sensor.magnet.1"] = FieldValue{Value: 1.0}
	r, err = ResolveChannel(payload, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Magnet)
}

func TestResolveChannel_NoData(t *testing.T) {
	payload := DevicePayload{
		"ble.sensor.temperature.3": {Value: 4.0, TS: 1700000000},
	}

	// The payload only carries channel 3; channel 9 has neither
	// temperature nor humidity.
	_, err := ResolveChannel(payload, 9)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestResolveChannel_HumidityOnly(t *testing.T) {
	payload := DevicePayload{
		"ble.sensor.humidity.4": {Value: "76"},
	}

	r, err := ResolveChannel(payload, 4)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Temperature)
	assert.Equal(t, 76.0, r.Humidity)
	assert.False(t, r.Timestamp.IsZero())
}

func TestResolveChannel_BadTimestampFallsBack(t *testing.T) {
	payload := DevicePayload{
		"ble.sensor.temperature.2": {Value: 4.5},
	}

	before := time.Now()
	r, err := ResolveChannel(payload, 2)
	require.NoError(t, err)
	assert.False(t, r.Timestamp.Before(before))
}

func TestResolve_NoChannelInSensorID(t *testing.T) {
	payload := DevicePayload{
		"ble.sensor.temperature.1": {Value: 4.5, TS: 1700000000},
	}

	_, err := Resolve("SENSOR", false, payload)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestResolveBeacon_MatchForms(t *testing.T) {
	beacons := []Beacon{
		{ID: "Chambre3", Temperature: "3.5", Humidity: 85, Battery: "2.9", Magnet: 1.0},
	}

	r, err := ResolveBeacon(beacons, 3)
	require.NoError(t, err)
	assert.Equal(t, 3.5, r.Temperature)
	assert.Equal(t, 85.0, r.Humidity)
	assert.Equal(t, 2.9, r.Battery)
	assert.Equal(t, 1, r.Magnet)
	assert.False(t, r.Timestamp.IsZero())

	for _, id := range []string{"ch3", "Room3", "C3", "3", " chambre3 "} {
		_, err := ResolveBeacon([]Beacon{{ID: id}}, 3)
		assert.NoError(t, err, "id %q should match channel 3", id)
	}
}

func TestResolveBeacon_FirstMatchWins(t *testing.T) {
	beacons := []Beacon{
		{ID: "room7", Temperature: 1.0},
		{ID: "ch7", Temperature: 2.0},
	}

	r, err := ResolveBeacon(beacons, 7)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r.Temperature)
}

func TestResolveBeacon_NoMatch(t *testing.T) {
	beacons := []Beacon{
		{ID: "Chambre3"},
		{ID: "ch12"},
	}

	_, err := ResolveBeacon(beacons, 5)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestResolveBeacon_NoFalsePrefixMatch(t *testing.T) {
	// "ch12" contains "1" but labels match whole ids only.
	_, err := ResolveBeacon([]Beacon{{ID: "ch12"}}, 1)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestResolve_BeaconMode(t *testing.T) {
	payload := DevicePayload{
		"ble.beacons": {Value: []any{
			map[string]any{"id": "chambre4", "temperature": "2.5", "humidity": "90", "magnet": false},
			"garbage entry",
		}},
	}

	r, err := Resolve("S-CH4", true, payload)
	require.NoError(t, err)
	assert.Equal(t, 2.5, r.Temperature)
	assert.Equal(t, 90.0, r.Humidity)
	assert.Equal(t, 0, r.Magnet)
}

func TestResolve_BeaconMode_MalformedArray(t *testing.T) {
	payload := DevicePayload{
		"ble.beacons": {Value: "not an array"},
	}

	_, err := Resolve("S-CH4", true, payload)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestTelemetryKeys(t *testing.T) {
	keys := TelemetryKeys([]int{2, 7}, true)

	assert.Equal(t, []string{
		"ble.sensor.temperature.2",
		"ble.sensor.humidity.2",
		"ble.sensor.battery.2",
		"ble.sensor.magnet.2",
		"ble.sensor.temperature.7",
		"ble.sensor.humidity.7",
		"ble.sensor.battery.7",
		"ble.sensor.magnet.7",
		"ble.beacons",
	}, keys)
}
