package actor

import (
	"testing"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/internal/util"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHADiscoveryActor(t *testing.T) {
	assert := assert.New(t)

	f := newDispatcherFixture(t, nil)
	f.register(t, "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER)

	published := make(chan any, 16)
	mqttPID := f.system.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case domain.ActorHealthRequest:
			ctx.Respond(domain.ActorHealthResponse{Id: domain.ACTOR_ID_MQTT, Healthy: true})
		case domain.PublishDiscoveryRequest:
			published <- msg
		}
	}))

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	f.system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&cfg, f.pid, mqttPID, f.es, logger)
	}))

	bridge, ok := expect[domain.PublishDiscoveryRequest](published, 2*time.Second)
	require.True(t, ok)
	assert.True(bridge.Bridge)
	assert.Equal("thinq_bridge", bridge.Device.Id)

	// registered before start
	existing, ok := expect[domain.PublishDiscoveryRequest](published, 2*time.Second)
	require.True(t, ok)
	assert.Equal("ac-1", existing.Device.Id)
	assert.Equal("thinq_bridge", existing.Device.ViaDevice)
	assert.NotEmpty(existing.Entities)

	f.register(t, "w1", profile.DEVICE_TYPE_WASHER)
	added, ok := expect[domain.PublishDiscoveryRequest](published, 2*time.Second)
	require.True(t, ok)
	assert.Equal("w1", added.Device.Id)
	assert.False(added.Remove)

	f.system.Root.Send(f.pid, domain.DeregisterDeviceRequest{DeviceID: "w1"})
	removed, ok := expect[domain.PublishDiscoveryRequest](published, 2*time.Second)
	require.True(t, ok)
	assert.Equal("w1", removed.Device.Id)
	assert.True(removed.Remove)
}
