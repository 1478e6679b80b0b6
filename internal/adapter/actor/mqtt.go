package actor

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/config"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/internal/mqtt"
	"github.com/berfenger/thinq2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTActor bridges the event stream to the local broker: snapshots,
// availability and notifications are published per device, and property
// writes received on command topics are handed to the parent.
type MQTTActor struct {
	config         *config.Config
	behavior       actor.Behavior
	stash          *actorutil.Stash
	client         *mqtt.MQTTClient
	newClient      func(onLost func(pahomqtt.Client, error)) *mqtt.MQTTClient
	eventStream    *eventstream.EventStream
	eventStreamSub *eventstream.Subscription
	logger         *zap.Logger
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type publishResult struct {
	ReplyTo *actor.PID
	Topic   string
	Error   error
}

type ParsedCommand struct {
	Command *mqtt.ParsedMQTTCommand
}

type OnEventStreamMessage struct {
	message any
}

type rawMessage struct {
	topic   string
	message string
	retain  bool
}

func NewMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := newMQTTActor(config, eventStream, logger)
	act.newClient = func(onLost func(pahomqtt.Client, error)) *mqtt.MQTTClient {
		return mqtt.CreateMQTTClient(config.MQTT.BaseTopic, mqtt.OptsFromConfig(config), nil, onLost)
	}
	return act
}

// NewMQTTActorWithClient runs the actor over an existing client.
func NewMQTTActorWithClient(config *config.Config, eventStream *eventstream.EventStream, client pahomqtt.Client, logger *zap.Logger) *MQTTActor {
	act := newMQTTActor(config, eventStream, logger)
	act.newClient = func(func(pahomqtt.Client, error)) *mqtt.MQTTClient {
		return mqtt.NewMQTTClient(config.MQTT.BaseTopic, client)
	}
	return act
}

func newMQTTActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		eventStream: eventStream,
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	system, self := ctx.ActorSystem(), ctx.Self()
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		// create MQTT client
		state.client = state.newClient(func(_ pahomqtt.Client, err error) {
			system.Root.Send(self, MQTTConnectionLost{Error: err})
		})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				system.Root.Send(self, MQTTConnectionLost{Error: err})
			} else {
				system.Root.Send(self, MQTTConnected{})
			}
		}, 10*time.Second)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(error) {}, 500*time.Millisecond)

		// subscribe to eventStream
		state.eventStreamSub = state.eventStream.Subscribe(func(value any) {
			system.Root.Send(self, OnEventStreamMessage{
				message: value,
			})
		})

		// subscribe to MQTT command topics
		client := state.client
		client.SubscribeToCommandTopics(func(_ pahomqtt.Client, m pahomqtt.Message) {
			cmd, err := client.ParseMQTTCommand(m)
			if err == nil && cmd != nil {
				system.Root.Send(self, ParsedCommand{Command: cmd})
			}
		}, func(err error) {
			if err != nil {
				system.Root.Send(self, MQTTConnectionLost{Error: err})
			} else {
				system.Root.Send(self, MQTTSubscribed{})
			}
		}, 1*time.Second)
	case MQTTSubscribed:
		// init completed, transition to default state
		state.logger.Debug("mqtt@starting subscribed")
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case ParsedCommand:
		// route command to parent
		state.logger.Debug("mqtt@default parsedCommand", zap.Any("command", msg.Command))
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishMessageRequest:
		state.logger.Debug("mqtt@default PublishMessageRequest", zap.String("topic", msg.Topic))
		state.publish(ctx, rawMessage{topic: msg.Topic, message: msg.Payload, retain: msg.Retain}, actorutil.ForRequest(msg).ReplyTo(ctx))
	case OnEventStreamMessage:
		// receive message from event bus and publish to MQTT if needed
		state.logger.Debug("mqtt@default OnEventStreamMessage", zap.String("type", fmt.Sprintf("%T", msg.message)))
		for _, raw := range state.event2MQTTMessages(msg.message) {
			state.publish(ctx, raw, nil)
		}
	case domain.PublishDiscoveryRequest:
		state.logger.Debug("mqtt@default PublishHADiscovery", zap.String("device", msg.Device.Id), zap.Bool("remove", msg.Remove))
		err := state.PublishHomeAssistantDiscovery(msg)
		if err != nil {
			state.logger.Error("mqtt@default PublishHADiscovery error", zap.Error(err))
		}
	case publishResult:
		if msg.Error != nil {
			state.logger.Error("mqtt@default could not publish a message", zap.String("topic", msg.Topic), zap.Error(msg.Error))
		}
		if msg.ReplyTo != nil {
			ctx.Send(msg.ReplyTo, domain.PublishMessageResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: msg.Error,
				},
			})
		}
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MQTTActor) event2MQTTMessages(event any) []rawMessage {
	switch msg := event.(type) {
	case domain.SnapshotUpdatedEvent:
		payload, err := json.Marshal(msg.Update.Snapshot)
		if err != nil {
			state.logger.Error("mqtt: cannot encode snapshot", zap.String("device", msg.Update.DeviceID), zap.Error(err))
			return nil
		}
		return []rawMessage{{
			topic:   state.client.DeviceStateTopic(msg.Update.DeviceID),
			message: string(payload),
			retain:  true,
		}}
	case domain.AvailabilityEvent:
		return []rawMessage{{
			topic:   state.client.DeviceAvailabilityTopic(msg.DeviceID),
			message: availability2MQTTPayload(msg.Available),
			retain:  true,
		}}
	case domain.DeviceRegisteredEvent:
		return []rawMessage{{
			topic:   state.client.DeviceAvailabilityTopic(msg.Device.DeviceID),
			message: availability2MQTTPayload(msg.Device.State.Available()),
			retain:  true,
		}}
	case domain.DeviceDeregisteredEvent:
		// clear retained messages
		return []rawMessage{
			{topic: state.client.DeviceStateTopic(msg.DeviceID), retain: true},
			{topic: state.client.DeviceAvailabilityTopic(msg.DeviceID), retain: true},
		}
	case domain.NotificationEvent:
		return []rawMessage{{
			topic:   state.client.DeviceNotificationTopic(msg.DeviceID),
			message: msg.Code,
		}}
	default:
		return nil
	}
}

// publish does not wait for the broker; the client keeps publish order.
func (state *MQTTActor) publish(ctx actor.Context, msg rawMessage, replyTo *actor.PID) {
	state.logger.Sugar().Debugf("mqtt@publish: message publish %s => %s", msg.topic, msg.message)
	system, self := ctx.ActorSystem(), ctx.Self()
	state.client.Publish(msg.topic, msg.message, 1, msg.retain, func(err error) {
		if err != nil || replyTo != nil {
			system.Root.Send(self, publishResult{ReplyTo: replyTo, Topic: msg.topic, Error: err})
		}
	}, 5*time.Second)
}

func (state *MQTTActor) PublishHomeAssistantDiscovery(req domain.PublishDiscoveryRequest) error {
	prefix := state.config.MQTT.HADiscoveryTopic
	if req.Bridge {
		entity, msg := mqtt.BridgeStateToHADiscoveryMessage(state.client, req.Device)
		return state.publishDiscovery(mqtt.HADiscoveryTopic(prefix, req.Device, entity), msg, req.Remove)
	}
	for i := range req.Entities {
		msg := mqtt.EntityToHADiscoveryMessage(state.client, req.Device, req.Entities[i])
		topic := mqtt.HADiscoveryTopic(prefix, req.Device, req.Entities[i])
		if err := state.publishDiscovery(topic, msg, req.Remove); err != nil {
			return err
		}
	}
	return nil
}

func (state *MQTTActor) publishDiscovery(topic string, msg mqtt.HADiscoveryConfig, remove bool) error {
	var payload []byte
	if !remove {
		var err error
		payload, err = json.Marshal(msg)
		if err != nil {
			return err
		}
	}
	state.client.Publish(topic, payload, 0, true, func(error) {}, 1*time.Second)
	return nil
}

func (state *MQTTActor) stop() {
	state.logger.Debug("mqtt: disconnect")
	if state.eventStreamSub != nil {
		state.eventStream.Unsubscribe(state.eventStreamSub)
		state.eventStreamSub = nil
	}
	if state.client != nil {
		state.client.Publish(state.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_OFFLINE, 0, true, func(error) {}, 500*time.Millisecond)
		state.client.Disconnect(500 * time.Millisecond)
	}
}

func availability2MQTTPayload(value bool) string {
	if value {
		return mqtt.MQTT_PAYLOAD_ONLINE
	} else {
		return mqtt.MQTT_PAYLOAD_OFFLINE
	}
}

// Dummy actor
func NewTestMQTTActor(config *config.Config, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:   config,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		// respond health check request
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	case ParsedCommand:
		ctx.Send(ctx.Parent(), msg)
	case domain.PublishMessageRequest:
		actorutil.ForRequest(msg).Respond(ctx, domain.PublishMessageResponse{})
	}
}
