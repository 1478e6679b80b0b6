package service

import (
	"context"
	"testing"

	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"
	"github.com/berfenger/thinq2mqtt/pkg/thinqapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSyncDevices(t *testing.T) {
	assert := assert.New(t)

	transport := &mockTransport{}
	manager := &mockManager{}

	transport.On("FetchDeviceList", mock.Anything).Return([]thinqapi.DeviceSummary{
		{DeviceID: "ac-1", DeviceType: "DEVICE_AIR_CONDITIONER", Alias: "Bedroom"},
		{DeviceID: "hood-1", DeviceType: "DEVICE_HOOD"},
		{DeviceID: "tv-1", DeviceType: "DEVICE_TV"},
	}, nil)
	manager.On("Devices", mock.Anything).Return([]device.Info{
		{DeviceID: "hood-1", DeviceType: profile.DEVICE_TYPE_HOOD},
		{DeviceID: "gone-1", DeviceType: profile.DEVICE_TYPE_WASHER},
	}, nil)
	manager.On("RegisterDevice", mock.Anything, "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER, "Bedroom", "").
		Return(device.Info{DeviceID: "ac-1"}, nil).Once()
	manager.On("RefreshStatus", mock.Anything, "ac-1").Return(nil)
	manager.On("RefreshStatus", mock.Anything, "hood-1").Return(&thinqapi.APIError{Code: "1222"})
	manager.On("DeregisterDevice", mock.Anything, "gone-1").Return(nil).Once()

	result, err := SyncDevices(context.Background(), transport, manager, zap.NewNop())
	require.NoError(t, err)
	assert.Equal([]string{"ac-1"}, result.Registered)
	assert.Equal([]string{"gone-1"}, result.Deregistered)
	assert.Equal([]string{"tv-1"}, result.Skipped)
	manager.AssertExpectations(t)
}

func TestSyncDevicesSubscribes(t *testing.T) {
	transport := &mockSubscribingTransport{}
	manager := &mockManager{}

	transport.On("FetchDeviceList", mock.Anything).Return([]thinqapi.DeviceSummary{
		{DeviceID: "ac-1", DeviceType: "DEVICE_AIR_CONDITIONER"},
	}, nil)
	transport.On("SubscribePush", mock.Anything, "ac-1").Return(&thinqapi.APIError{Code: "1207"}).Once()
	transport.On("SubscribeEvents", mock.Anything, "ac-1").Return(nil).Once()
	transport.On("UnsubscribePush", mock.Anything, "gone-1").Return(nil).Once()
	transport.On("UnsubscribeEvents", mock.Anything, "gone-1").Return(nil).Once()
	manager.On("Devices", mock.Anything).Return([]device.Info{
		{DeviceID: "gone-1", DeviceType: profile.DEVICE_TYPE_WASHER},
	}, nil)
	manager.On("RegisterDevice", mock.Anything, "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER, "", "").
		Return(device.Info{DeviceID: "ac-1"}, nil).Once()
	manager.On("RefreshStatus", mock.Anything, "ac-1").Return(nil)
	manager.On("DeregisterDevice", mock.Anything, "gone-1").Return(nil).Once()

	result, err := SyncDevices(context.Background(), transport, manager, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, []string{"ac-1"}, result.Registered)
	transport.AssertExpectations(t)
	manager.AssertExpectations(t)
}
