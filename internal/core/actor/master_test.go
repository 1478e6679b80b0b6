package actor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	adactor "github.com/berfenger/thinq2mqtt/internal/adapter/actor"
	"github.com/berfenger/thinq2mqtt/internal/config"
	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/internal/core/service"
	"github.com/berfenger/thinq2mqtt/internal/mqtt"
	"github.com/berfenger/thinq2mqtt/internal/util"
	"github.com/berfenger/thinq2mqtt/internal/util/actorutil"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"
	"github.com/berfenger/thinq2mqtt/pkg/thinqapi"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/primetalk/goio/io"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startMaster(t *testing.T, cfg config.Config, transport *thinqapi.TestTransport) (*actor.ActorSystem, *actor.PID, *ActorDeviceManager) {
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	t.Cleanup(as.Shutdown)

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, transport, func() *adactor.PushActor {
			return adactor.NewTestPushActor(&cfg, logger)
		}, func(*eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, logger)
		}, logger)
	})
	pid, err := as.Root.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)

	manager := NewActorDeviceManager(as.Root, pid, service.NewControlService(transport, logger), cfg.Control.Timeout())
	return as, pid, manager
}

func TestMasterActor(t *testing.T) {
	cfg := util.LoadTestConfig()
	as, pid, _ := startMaster(t, cfg, thinqapi.NewTestTransport())

	res, err := as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	healthResp, ok := res.(domain.ActorHealthResponse)
	require.True(t, ok)
	assert.Equal(t, domain.ACTOR_ID_MASTER, healthResp.Id)
	assert.True(t, healthResp.Healthy, "healthy is true")
}

func TestMasterActorBootstrapSync(t *testing.T) {
	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	cfg.ThinQ.Bootstrap = true
	transport := thinqapi.NewTestTransport()
	transport.Devices = []thinqapi.DeviceSummary{
		{DeviceID: "ac-1", DeviceType: string(profile.DEVICE_TYPE_AIR_CONDITIONER), Alias: "Bedroom"},
		{DeviceID: "toaster-1", DeviceType: "DEVICE_TOASTER"},
	}
	transport.SetStatus("ac-1", `{
		"airConJobMode":{"currentJobMode":"HEAT"},
		"operation":{"airConOperationMode":"POWER_ON"}
	}`)
	_, _, manager := startMaster(t, cfg, transport)

	assert.Eventually(func() bool {
		snap, _, err := manager.GetSnapshot(context.Background(), "ac-1")
		return err == nil && snap.Len() > 0
	}, 5*time.Second, 50*time.Millisecond)

	devices, err := manager.Devices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal("Bedroom", devices[0].Alias)
}

func TestMasterActorRoutesPushEvents(t *testing.T) {
	cfg := util.LoadTestConfig()
	as, _, manager := startMaster(t, cfg, thinqapi.NewTestTransport())

	_, err := manager.RegisterDevice(context.Background(), "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER, "", "")
	require.NoError(t, err)

	pushPID := actor.NewPID(as.Address(), domain.ACTOR_ID_MASTER+"/"+domain.ACTOR_ID_PUSH)
	as.Root.Send(pushPID, adactor.InjectPushMessage{
		Payload:    []byte(`{"pushType":"DEVICE_STATUS","deviceId":"ac-1","report":{"airFlow":{"windStrength":"POWER"}}}`),
		ReceivedAt: time.Now(),
	})

	assert.Eventually(t, func() bool {
		snap, _, err := manager.GetSnapshot(context.Background(), "ac-1")
		if err != nil {
			return false
		}
		v, ok := snap.Get("air_flow", "wind_strength")
		s, _ := v.Enum()
		return ok && s == "POWER"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestMasterActorBridgeCommand(t *testing.T) {
	cfg := util.LoadTestConfig()
	transport := thinqapi.NewTestTransport()
	as, pid, manager := startMaster(t, cfg, transport)

	_, err := manager.RegisterDevice(context.Background(), "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER, "", "")
	require.NoError(t, err)

	// rejected by validation, never sent
	as.Root.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: "ac-1", Resource: "air_flow", Property: "wind_strength", Payload: "TURBO",
	}})
	as.Root.Send(pid, adactor.ParsedCommand{Command: &mqtt.ParsedMQTTCommand{
		DeviceId: "ac-1", Resource: "air_flow", Property: "wind_strength", Payload: "HIGH",
	}})

	assert.Eventually(t, func() bool {
		return len(transport.Sent()) == 1
	}, 2*time.Second, 20*time.Millisecond)
	assert.JSONEq(t, `{"airFlow":{"windStrength":"HIGH"}}`, string(transport.Sent()[0].Payload))
}

func TestMasterActorKeepsPushOrderDuringHealthChecks(t *testing.T) {
	cfg := util.LoadTestConfig()
	as, pid, manager := startMaster(t, cfg, thinqapi.NewTestTransport())

	_, err := manager.RegisterDevice(context.Background(), "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER, "", "")
	require.NoError(t, err)
	updates := make(chan device.Update, 128)
	require.NoError(t, manager.SetCallback(context.Background(), "ac-1", func(u device.Update) {
		updates <- u
	}))

	const events = 60
	start := time.Now()
	for i := 0; i < events; i++ {
		if i%4 == 0 {
			as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 5*time.Second)
		}
		as.Root.Send(pid, domain.PushEvent{
			Kind:       domain.PUSH_KIND_STATUS,
			DeviceID:   "ac-1",
			Payload:    []byte(windStep(i%5 + 1)),
			ReceivedAt: start.Add(time.Duration(i) * time.Millisecond),
		})
	}

	for i := 0; i < events; i++ {
		require.Equal(t, int64(i%5+1), windStepOf(nextUpdate(t, updates)), "event %d", i)
	}
}

func TestControlFailure(t *testing.T) {
	other := errors.New("result is nil")
	tests := []struct {
		err  error
		want error
	}{
		{context.DeadlineExceeded, domain.ErrCommandTimedOut},
		{fmt.Errorf("send: %w", context.DeadlineExceeded), domain.ErrCommandTimedOut},
		{io.ErrorTimeout, domain.ErrCommandTimedOut},
		{other, other},
		{profile.ErrUnknownProperty, profile.ErrUnknownProperty},
	}
	for _, tt := range tests {
		assert.ErrorIs(t, controlFailure(tt.err), tt.want, "%v", tt.err)
	}
	assert.NotErrorIs(t, controlFailure(other), domain.ErrCommandTimedOut)
}
