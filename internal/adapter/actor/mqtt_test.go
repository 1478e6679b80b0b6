package actor

import (
	"testing"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/internal/mqtt"
	"github.com/berfenger/thinq2mqtt/internal/util"
	"github.com/berfenger/thinq2mqtt/internal/util/actorutil"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startMQTTActor(t *testing.T) (*actor.ActorSystem, *eventstream.EventStream, *fakeClient, *actor.PID, chan any) {
	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	t.Cleanup(as.Shutdown)

	es := &eventstream.EventStream{}
	client := &fakeClient{}
	props := actor.PropsFromProducer(func() actor.Actor { return NewMQTTActorWithClient(&cfg, es, client, logger) })
	pid, out := spawnUnderCollector(as, props)

	// answered once the actor leaves its starting state
	result, err := as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	require.True(t, result.(domain.ActorHealthResponse).Healthy)
	return as, es, client, pid, out
}

func TestMQTTActor(t *testing.T) {
	assert := assert.New(t)
	_, es, client, _, _ := startMQTTActor(t)

	msg, ok := client.lastOn("thinq/bridge/state")
	require.True(t, ok)
	assert.Equal(mqtt.MQTT_PAYLOAD_ONLINE, msg.payload)
	assert.True(msg.retained)
	assert.True(client.hasFilter("thinq/+/+/+/set"))
	assert.True(client.hasFilter("thinq/+/+/+/+/set"))

	p, err := profile.Lookup(profile.DEVICE_TYPE_AIR_CONDITIONER)
	require.NoError(t, err)
	h, err := device.NewHandle("ac-1", p.Type)
	require.NoError(t, err)
	update, err := h.Apply(device.Event{Payload: []byte(`{"airFlow":{"windStrength":"HIGH"}}`), ReceivedAt: time.Now()})
	require.NoError(t, err)

	es.Publish(domain.SnapshotUpdatedEvent{Update: update})
	es.Publish(domain.AvailabilityEvent{DeviceID: "ac-1", Available: false, State: device.StateStale})
	es.Publish(domain.NotificationEvent{DeviceID: "ac-1", Code: "FILTER_CHANGE"})

	assert.Eventually(func() bool {
		_, ok := client.lastOn("thinq/ac-1/notification")
		return ok
	}, 2*time.Second, 20*time.Millisecond)

	msg, ok = client.lastOn("thinq/ac-1/state")
	require.True(t, ok)
	assert.JSONEq(`{"air_flow":{"wind_strength":"HIGH"}}`, msg.payload)
	assert.True(msg.retained)

	msg, ok = client.lastOn("thinq/ac-1/availability")
	require.True(t, ok)
	assert.Equal(mqtt.MQTT_PAYLOAD_OFFLINE, msg.payload)

	msg, _ = client.lastOn("thinq/ac-1/notification")
	assert.Equal("FILTER_CHANGE", msg.payload)
	assert.False(msg.retained)
}

func TestMQTTActorClearsDeregisteredDevice(t *testing.T) {
	assert := assert.New(t)
	_, es, client, _, _ := startMQTTActor(t)

	es.Publish(domain.DeviceRegisteredEvent{Device: device.Info{DeviceID: "w1", State: device.StateRegistered}})
	assert.Eventually(func() bool {
		msg, ok := client.lastOn("thinq/w1/availability")
		return ok && msg.payload == mqtt.MQTT_PAYLOAD_ONLINE
	}, 2*time.Second, 20*time.Millisecond)

	es.Publish(domain.DeviceDeregisteredEvent{DeviceID: "w1"})
	assert.Eventually(func() bool {
		msg, ok := client.lastOn("thinq/w1/availability")
		return ok && msg.payload == ""
	}, 2*time.Second, 20*time.Millisecond)
	msg, ok := client.lastOn("thinq/w1/state")
	require.True(t, ok)
	assert.Equal("", msg.payload)
	assert.True(msg.retained)
}

func TestMQTTActorRoutesCommands(t *testing.T) {
	assert := assert.New(t)
	_, _, client, _, out := startMQTTActor(t)

	client.deliver("thinq/ac-1/bad", "x")
	client.deliver("thinq/oven-1/upper/temperature/target_temperature/set", "180")

	cmd, ok := expect[ParsedCommand](out, 2*time.Second)
	require.True(t, ok)
	assert.Equal("oven-1", cmd.Command.DeviceId)
	assert.Equal("upper", cmd.Command.Location)
	assert.Equal("temperature", cmd.Command.Resource)
	assert.Equal("target_temperature", cmd.Command.Property)
	assert.Equal("180", cmd.Command.Payload)
}

func TestMQTTActorPublishesDiscovery(t *testing.T) {
	assert := assert.New(t)
	as, _, client, pid, _ := startMQTTActor(t)

	p, err := profile.Lookup(profile.DEVICE_TYPE_AIR_CONDITIONER)
	require.NoError(t, err)
	info := device.Info{DeviceID: "ac-1", DeviceType: p.Type}
	dev := domain.ApplianceDevice(info, "thinq_bridge")
	entities := domain.DeviceEntities(info, p)
	require.NotEmpty(t, entities)
	topic := mqtt.HADiscoveryTopic("homeassistant", dev, entities[0])

	as.Root.Send(pid, domain.PublishDiscoveryRequest{Device: dev, Entities: entities})
	assert.Eventually(func() bool {
		msg, ok := client.lastOn(topic)
		return ok && msg.payload != ""
	}, 2*time.Second, 20*time.Millisecond)

	as.Root.Send(pid, domain.PublishDiscoveryRequest{Device: dev, Entities: entities, Remove: true})
	assert.Eventually(func() bool {
		msg, ok := client.lastOn(topic)
		return ok && msg.payload == ""
	}, 2*time.Second, 20*time.Millisecond)
}

func TestMQTTActorPublishMessageRequest(t *testing.T) {
	as, _, client, pid, _ := startMQTTActor(t)

	result, err := as.Root.RequestFuture(pid, domain.PublishMessageRequest{Topic: "thinq/custom", Payload: "42"}, 2*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.PublishMessageResponse)
	require.True(t, ok)
	assert.NoError(t, resp.GetResponseError())

	msg, ok := client.lastOn("thinq/custom")
	require.True(t, ok)
	assert.Equal(t, "42", msg.payload)
}
