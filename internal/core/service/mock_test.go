package service

import (
	"context"
	"encoding/json"

	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"
	"github.com/berfenger/thinq2mqtt/pkg/thinqapi"

	"github.com/stretchr/testify/mock"
)

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) FetchDeviceList(ctx context.Context) ([]thinqapi.DeviceSummary, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]thinqapi.DeviceSummary)
	return list, args.Error(1)
}

func (m *mockTransport) FetchStatus(ctx context.Context, deviceID string) (json.RawMessage, error) {
	args := m.Called(ctx, deviceID)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *mockTransport) FetchProfile(ctx context.Context, deviceID string) (json.RawMessage, error) {
	args := m.Called(ctx, deviceID)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

func (m *mockTransport) SendCommand(ctx context.Context, deviceID string, payload any) (json.RawMessage, error) {
	args := m.Called(ctx, deviceID, payload)
	raw, _ := args.Get(0).(json.RawMessage)
	return raw, args.Error(1)
}

type mockSubscribingTransport struct {
	mockTransport
}

func (m *mockSubscribingTransport) SubscribePush(ctx context.Context, deviceID string) error {
	return m.Called(ctx, deviceID).Error(0)
}

func (m *mockSubscribingTransport) UnsubscribePush(ctx context.Context, deviceID string) error {
	return m.Called(ctx, deviceID).Error(0)
}

func (m *mockSubscribingTransport) SubscribeEvents(ctx context.Context, deviceID string) error {
	return m.Called(ctx, deviceID).Error(0)
}

func (m *mockSubscribingTransport) UnsubscribeEvents(ctx context.Context, deviceID string) error {
	return m.Called(ctx, deviceID).Error(0)
}

type mockManager struct {
	mock.Mock
}

func (m *mockManager) RegisterDevice(ctx context.Context, deviceID string, deviceType profile.DeviceType, alias, model string) (device.Info, error) {
	args := m.Called(ctx, deviceID, deviceType, alias, model)
	return args.Get(0).(device.Info), args.Error(1)
}

func (m *mockManager) DeregisterDevice(ctx context.Context, deviceID string) error {
	return m.Called(ctx, deviceID).Error(0)
}

func (m *mockManager) SetCallback(ctx context.Context, deviceID string, cb device.Callback) error {
	return m.Called(ctx, deviceID, cb).Error(0)
}

func (m *mockManager) GetSnapshot(ctx context.Context, deviceID string) (*profile.Snapshot, []*profile.FieldError, error) {
	args := m.Called(ctx, deviceID)
	snap, _ := args.Get(0).(*profile.Snapshot)
	diags, _ := args.Get(1).([]*profile.FieldError)
	return snap, diags, args.Error(2)
}

func (m *mockManager) SendControl(ctx context.Context, deviceID string, writes ...profile.Write) (*profile.Command, error) {
	args := m.Called(ctx, deviceID, writes)
	cmd, _ := args.Get(0).(*profile.Command)
	return cmd, args.Error(1)
}

func (m *mockManager) GetProfile(deviceType profile.DeviceType) (*profile.DeviceProfile, error) {
	return profile.Lookup(deviceType)
}

func (m *mockManager) Device(ctx context.Context, deviceID string) (device.Info, *profile.DeviceProfile, error) {
	args := m.Called(ctx, deviceID)
	p, _ := args.Get(1).(*profile.DeviceProfile)
	return args.Get(0).(device.Info), p, args.Error(2)
}

func (m *mockManager) Devices(ctx context.Context) ([]device.Info, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]device.Info)
	return list, args.Error(1)
}

func (m *mockManager) RefreshStatus(ctx context.Context, deviceID string) (device.Update, error) {
	args := m.Called(ctx, deviceID)
	return device.Update{DeviceID: deviceID}, args.Error(0)
}

func (m *mockManager) CheckDrift(ctx context.Context, deviceID string) (*profile.DriftReport, error) {
	args := m.Called(ctx, deviceID)
	report, _ := args.Get(0).(*profile.DriftReport)
	return report, args.Error(1)
}
