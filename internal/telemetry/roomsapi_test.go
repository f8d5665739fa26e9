package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRoomsAPIClient_Latest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rooms/latest", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"room": "Chambre 1", "temperature": 3.2, "humidity": 90, "magnet": 1, "epoch": 1700000000, "local_time": "2023-11-14 22:13:20"},
				{"room": "Chambre 2", "temperature": "4.1", "humidity": "87", "magnet": 0, "epoch": 1700000000, "local_time": "2023-11-14 22:13:20"}
			]
		}`))
	}))
	defer server.Close()

	client := NewRoomsAPIClient(server.URL, "", 5*time.Second, zap.NewNop())

	records, err := client.Latest(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Chambre 1", records[0].Room)

	r := records[0].ToReading()
	assert.Equal(t, 3.2, r.Temperature)
	assert.Equal(t, 90.0, r.Humidity)
	assert.Equal(t, 1, r.Magnet)
	assert.Equal(t, time.Unix(1700000000, 0), r.Timestamp)

	// Numeric strings coerce the same way channel payloads do.
	r2 := records[1].ToReading()
	assert.Equal(t, 4.1, r2.Temperature)
	assert.Equal(t, 87.0, r2.Humidity)
	assert.Equal(t, 0, r2.Magnet)
}

func TestRoomsAPIClient_Latest_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewRoomsAPIClient(server.URL, "", 5*time.Second, zap.NewNop())

	_, err := client.Latest(context.Background())
	assert.Error(t, err)
}

func TestRoomRecord_ToReading_ZeroEpoch(t *testing.T) {
	rec := RoomRecord{Room: "Chambre 3", Temperature: 1.5}

	before := time.Now()
	r := rec.ToReading()
	assert.False(t, r.Timestamp.Before(before))
}
