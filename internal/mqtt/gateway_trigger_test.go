package mqtt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractDeviceID(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		want    string
	}{
		{"topic segment", "frigosaas/gateway/dev-42/event", "{}", "dev-42"},
		{"topic wins over payload", "frigosaas/gateway/dev-42/event", `{"device_id":"other"}`, "dev-42"},
		{"payload fallback", "frigosaas/events", `{"device_id":"dev-7"}`, "dev-7"},
		{"empty topic segment", "frigosaas/gateway//event", `{"device_id":"dev-7"}`, "dev-7"},
		{"nothing", "frigosaas/events", `{"kind":"door"}`, ""},
		{"bad json", "frigosaas/events", `not json`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDeviceID(tt.topic, []byte(tt.payload)))
		})
	}
}

type fakeRefresher struct {
	refreshed []string
	err       error
}

func (f *fakeRefresher) RefreshDevice(_ context.Context, deviceID string) error {
	f.refreshed = append(f.refreshed, deviceID)
	return f.err
}

type fakeInvalidator struct {
	invalidated []string
	err         error
}

func (f *fakeInvalidator) InvalidateDevice(_ context.Context, deviceID string) error {
	f.invalidated = append(f.invalidated, deviceID)
	return f.err
}

func TestGatewayTriggerHandleMessage(t *testing.T) {
	refresher := &fakeRefresher{}
	invalidator := &fakeInvalidator{}
	trigger := NewGatewayTrigger(refresher, invalidator, zap.NewNop())

	err := trigger.HandleMessage("frigosaas/gateway/boitie-1/event", []byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"boitie-1"}, invalidator.invalidated)
	assert.Equal(t, []string{"boitie-1"}, refresher.refreshed)
}

func TestGatewayTriggerHandleMessage_NoDevice(t *testing.T) {
	refresher := &fakeRefresher{}
	trigger := NewGatewayTrigger(refresher, &fakeInvalidator{}, zap.NewNop())

	err := trigger.HandleMessage("frigosaas/events", []byte(`{}`))
	require.Error(t, err)
	assert.Empty(t, refresher.refreshed)
}

func TestGatewayTriggerHandleMessage_InvalidateFailureStillRefreshes(t *testing.T) {
	refresher := &fakeRefresher{}
	invalidator := &fakeInvalidator{err: errors.New("redis down")}
	trigger := NewGatewayTrigger(refresher, invalidator, zap.NewNop())

	err := trigger.HandleMessage("frigosaas/gateway/boitie-2/event", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"boitie-2"}, refresher.refreshed)
}

func TestGatewayTriggerHandleMessage_RefreshFailure(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("gateway unreachable")}
	trigger := NewGatewayTrigger(refresher, &fakeInvalidator{}, zap.NewNop())

	err := trigger.HandleMessage("frigosaas/gateway/boitie-3/event", []byte(`{}`))
	require.Error(t, err)
}
