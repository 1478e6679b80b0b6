package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockManager struct {
	mock.Mock
}

func (m *mockManager) RegisterDevice(ctx context.Context, deviceID string, deviceType profile.DeviceType, alias, model string) (device.Info, error) {
	args := m.Called(deviceID, deviceType, alias, model)
	return args.Get(0).(device.Info), args.Error(1)
}

func (m *mockManager) DeregisterDevice(ctx context.Context, deviceID string) error {
	return m.Called(deviceID).Error(0)
}

func (m *mockManager) SetCallback(ctx context.Context, deviceID string, cb device.Callback) error {
	return m.Called(deviceID).Error(0)
}

func (m *mockManager) GetSnapshot(ctx context.Context, deviceID string) (*profile.Snapshot, []*profile.FieldError, error) {
	args := m.Called(deviceID)
	snap, _ := args.Get(0).(*profile.Snapshot)
	diags, _ := args.Get(1).([]*profile.FieldError)
	return snap, diags, args.Error(2)
}

func (m *mockManager) SendControl(ctx context.Context, deviceID string, writes ...profile.Write) (*profile.Command, error) {
	args := m.Called(deviceID, writes)
	cmd, _ := args.Get(0).(*profile.Command)
	return cmd, args.Error(1)
}

func (m *mockManager) GetProfile(deviceType profile.DeviceType) (*profile.DeviceProfile, error) {
	return profile.Lookup(deviceType)
}

func (m *mockManager) Device(ctx context.Context, deviceID string) (device.Info, *profile.DeviceProfile, error) {
	args := m.Called(deviceID)
	p, _ := args.Get(1).(*profile.DeviceProfile)
	return args.Get(0).(device.Info), p, args.Error(2)
}

func (m *mockManager) Devices(ctx context.Context) ([]device.Info, error) {
	args := m.Called()
	devices, _ := args.Get(0).([]device.Info)
	return devices, args.Error(1)
}

func (m *mockManager) RefreshStatus(ctx context.Context, deviceID string) (device.Update, error) {
	args := m.Called(deviceID)
	return args.Get(0).(device.Update), args.Error(1)
}

func (m *mockManager) CheckDrift(ctx context.Context, deviceID string) (*profile.DriftReport, error) {
	args := m.Called(deviceID)
	report, _ := args.Get(0).(*profile.DriftReport)
	return report, args.Error(1)
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.RegisterRoutes().ServeHTTP(rec, req)
	return rec
}

func TestControlValidationFailure(t *testing.T) {
	assert := assert.New(t)

	p, err := profile.Lookup(profile.DEVICE_TYPE_AIR_CONDITIONER)
	require.NoError(t, err)
	writes := []profile.Write{{Resource: "air_flow", Property: "wind_strength", Value: 999.0}}
	_, buildErr := profile.BuildCommand(p, writes...)
	require.Error(t, buildErr)

	m := &mockManager{}
	m.On("SendControl", "ac-1", writes).Return(nil, buildErr)
	s := &Server{manager: m}

	rec := serve(s, http.MethodPost, "/devices/ac-1/control", `{"writes":[{"resource":"air_flow","property":"wind_strength","value":999}]}`)
	assert.Equal(http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Fields, 1)
	assert.Equal("air_flow.wind_strength", resp.Fields[0].Path)
	m.AssertExpectations(t)
}

func TestControlSuccess(t *testing.T) {
	p, err := profile.Lookup(profile.DEVICE_TYPE_AIR_CONDITIONER)
	require.NoError(t, err)
	writes := []profile.Write{{Resource: "temperature", Property: "target_temperature_c", Value: 24.0}}
	cmd, err := profile.BuildCommand(p, writes...)
	require.NoError(t, err)

	m := &mockManager{}
	m.On("SendControl", "ac-1", writes).Return(cmd, nil)
	s := &Server{manager: m}

	rec := serve(s, http.MethodPost, "/devices/ac-1/control", `{"writes":[{"resource":"temperature","property":"target_temperature_c","value":24}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"temperature":{"targetTemperature":24,"unit":"C"}}`, rec.Body.String())
}

func TestErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{device.ErrNotRegistered, http.StatusNotFound},
		{domain.ErrCommandTimedOut, http.StatusGatewayTimeout},
		{&domain.TransportError{DeviceID: "ac-1", Op: "control", Err: context.Canceled}, http.StatusBadGateway},
		{device.ErrAlreadyRegistered, http.StatusConflict},
	}
	for _, tc := range cases {
		m := &mockManager{}
		m.On("RefreshStatus", "ac-1").Return(device.Update{}, tc.err)
		s := &Server{manager: m}

		rec := serve(s, http.MethodPost, "/devices/ac-1/refresh", "")
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
	}
}

func TestRegisterDevice(t *testing.T) {
	assert := assert.New(t)

	m := &mockManager{}
	m.On("RegisterDevice", "w1", profile.DEVICE_TYPE_WASHER, "Laundry", "").
		Return(device.Info{DeviceID: "w1", DeviceType: profile.DEVICE_TYPE_WASHER, State: device.StateRegistered}, nil)
	m.On("RegisterDevice", "t1", profile.DeviceType("DEVICE_TOASTER"), "", "").
		Return(device.Info{}, profile.ErrUnknownDeviceType)
	s := &Server{manager: m}

	rec := serve(s, http.MethodPost, "/devices", `{"device_id":"w1","device_type":"WASHER","alias":"Laundry"}`)
	assert.Equal(http.StatusCreated, rec.Code)
	assert.Contains(rec.Body.String(), `"state":"registered"`)

	rec = serve(s, http.MethodPost, "/devices", `{"device_id":"t1","device_type":"DEVICE_TOASTER"}`)
	assert.Equal(http.StatusNotFound, rec.Code)

	rec = serve(s, http.MethodPost, "/devices", `{"alias":"nameless"}`)
	assert.Equal(http.StatusBadRequest, rec.Code)
}

func TestListAndDeregisterDevices(t *testing.T) {
	m := &mockManager{}
	m.On("Devices").Return(nil, nil)
	m.On("DeregisterDevice", "w1").Return(nil)
	s := &Server{manager: m}

	rec := serve(s, http.MethodGet, "/devices", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(s, http.MethodDelete, "/devices/w1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSnapshotAndProfiles(t *testing.T) {
	assert := assert.New(t)

	p, err := profile.Lookup(profile.DEVICE_TYPE_AIR_CONDITIONER)
	require.NoError(t, err)
	snap, _, err := profile.ParseReport(p, []byte(`{"airFlow":{"windStrength":"LOW"}}`))
	require.NoError(t, err)

	m := &mockManager{}
	m.On("GetSnapshot", "ac-1").Return(snap, nil, nil)
	s := &Server{manager: m}

	rec := serve(s, http.MethodGet, "/devices/ac-1/snapshot", "")
	assert.Equal(http.StatusOK, rec.Code)
	assert.JSONEq(`{"device_id":"ac-1","snapshot":{"air_flow":{"wind_strength":"LOW"}}}`, rec.Body.String())

	rec = serve(s, http.MethodGet, "/profiles/AIR_CONDITIONER", "")
	assert.Equal(http.StatusOK, rec.Code)
	assert.Contains(rec.Body.String(), `"type":"DEVICE_AIR_CONDITIONER"`)

	rec = serve(s, http.MethodGet, "/profiles/TOASTER", "")
	assert.Equal(http.StatusNotFound, rec.Code)

	rec = serve(s, http.MethodGet, "/catalog", "")
	assert.Equal(http.StatusOK, rec.Code)
	assert.Contains(rec.Body.String(), "DEVICE_COOKTOP")
}

func TestDrift(t *testing.T) {
	m := &mockManager{}
	m.On("CheckDrift", "ac-1").Return(&profile.DriftReport{
		DeviceType:       profile.DEVICE_TYPE_AIR_CONDITIONER,
		MissingInCatalog: []string{"airFlow.swingMode"},
	}, nil)
	s := &Server{manager: m}

	rec := serve(s, http.MethodGet, "/devices/ac-1/drift", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "airFlow.swingMode")
}

func TestHealthCheck(t *testing.T) {
	as := actor.NewActorSystem()
	defer as.Shutdown()
	pid := as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		if _, ok := ctx.Message().(domain.ActorHealthRequest); ok {
			ctx.Respond(domain.ActorHealthResponse{Id: domain.ACTOR_ID_MASTER, Healthy: true})
		}
	}))
	s := &Server{rootContext: as.Root, masterActor: pid, manager: &mockManager{}}

	rec := serve(s, http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "health_check: OK", rec.Body.String())
}
