package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/config"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/internal/mqtt"
	"github.com/berfenger/thinq2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// PushActor keeps the subscription to the ThinQ push topic and hands every
// decoded event to its parent in arrival order. Reconnects are handled by
// the client; each connect subscribes again.
type PushActor struct {
	config     *config.Config
	behavior   actor.Behavior
	stash      *actorutil.Stash
	client     *mqtt.MQTTClient
	newClient  func(onConnect func(pahomqtt.Client), onLost func(pahomqtt.Client, error)) (*mqtt.MQTTClient, error)
	subscribed bool
	logger     *zap.Logger
}

type pushConnected struct {
}

// pushReconnected is sent by the client on every connect, the first one
// included.
type pushReconnected struct {
}

type pushSubscribed struct {
	Error error
}

type pushConnectionLost struct {
	Error error
}

// InjectPushMessage hands a raw push payload to the actor as if it had been
// received on the push topic.
type InjectPushMessage struct {
	Payload    []byte
	ReceivedAt time.Time
}

func NewPushActor(config *config.Config, logger *zap.Logger) *PushActor {
	act := newPushActor(config, logger)
	act.newClient = func(onConnect func(pahomqtt.Client), onLost func(pahomqtt.Client, error)) (*mqtt.MQTTClient, error) {
		opts, err := mqtt.PushOptsFromConfig(config)
		if err != nil {
			return nil, err
		}
		return mqtt.CreateMQTTClient("", opts, onConnect, onLost), nil
	}
	return act
}

// NewPushActorWithClient runs the actor over an existing client.
func NewPushActorWithClient(config *config.Config, client pahomqtt.Client, logger *zap.Logger) *PushActor {
	act := newPushActor(config, logger)
	act.newClient = func(func(pahomqtt.Client), func(pahomqtt.Client, error)) (*mqtt.MQTTClient, error) {
		return mqtt.NewMQTTClient("", client), nil
	}
	return act
}

func newPushActor(config *config.Config, logger *zap.Logger) *PushActor {
	act := &PushActor{
		config:   config,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_PUSH, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *PushActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PushActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("push@starting started")

		system, self := ctx.ActorSystem(), ctx.Self()
		client, err := state.newClient(func(_ pahomqtt.Client) {
			system.Root.Send(self, pushReconnected{})
		}, func(_ pahomqtt.Client, err error) {
			system.Root.Send(self, pushConnectionLost{Error: err})
		})
		if err != nil {
			state.logger.Error("push@starting cannot create client", zap.Error(err))
			panic(err)
		}
		state.client = client

		state.client.Connect(func(err error) {
			if err != nil {
				system.Root.Send(self, pushConnectionLost{Error: err})
			} else {
				system.Root.Send(self, pushConnected{})
			}
		}, 10*time.Second)
	case pushConnected:
		state.logger.Debug("push@starting connected")
		state.subscribe(ctx)
	case pushReconnected:
	case pushSubscribed:
		if msg.Error != nil {
			// first connection failed, let supervisor decide
			state.logger.Error("push@starting cannot subscribe", zap.Error(msg.Error))
			panic(msg.Error)
		}
		state.logger.Info("push@starting subscribed", zap.String("topic", state.config.Push.Topic))
		state.subscribed = true
		ctx.Send(ctx.Parent(), domain.PushSubscriptionChanged{Subscribed: true})
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case pushConnectionLost:
		state.logger.Error("push@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("push@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PushActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("push@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_PUSH,
			Healthy: state.subscribed,
			State:   "idle",
		})
	case InjectPushMessage:
		state.forward(ctx, msg)
	case pushReconnected:
		// the broker session is gone
		state.logger.Info("push@default reconnected")
		state.subscribe(ctx)
	case pushSubscribed:
		state.subscribed = msg.Error == nil
		if msg.Error != nil {
			state.logger.Warn("push@default resubscribe failed", zap.Error(msg.Error))
		}
		ctx.Send(ctx.Parent(), domain.PushSubscriptionChanged{Subscribed: state.subscribed, Error: msg.Error})
	case pushConnectionLost:
		// the client reconnects on its own
		state.logger.Warn("push@default connection lost", zap.Error(msg.Error))
		state.subscribed = false
		ctx.Send(ctx.Parent(), domain.PushSubscriptionChanged{Subscribed: false, Error: msg.Error})
	default:
		state.logger.Debug("push@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *PushActor) subscribe(ctx actor.Context) {
	system, self := ctx.ActorSystem(), ctx.Self()
	state.client.Subscribe(state.config.Push.Topic, 1, func(_ pahomqtt.Client, m pahomqtt.Message) {
		system.Root.Send(self, InjectPushMessage{Payload: m.Payload(), ReceivedAt: time.Now()})
	}, func(err error) {
		system.Root.Send(self, pushSubscribed{Error: err})
	}, 5*time.Second)
}

func (state *PushActor) forward(ctx actor.Context, msg InjectPushMessage) {
	ev, err := mqtt.DecodePushMessage(msg.Payload, msg.ReceivedAt)
	if err != nil {
		state.logger.Warn("push@default malformed message dropped", zap.Error(err))
		return
	}
	if ev.Kind == domain.PUSH_KIND_UNKNOWN {
		state.logger.Debug("push@default unknown push type ignored", zap.String("device", ev.DeviceID))
		return
	}
	ctx.Send(ctx.Parent(), ev)
}

func (state *PushActor) stop() {
	state.logger.Debug("push: disconnect")
	state.subscribed = false
	if state.client != nil {
		state.client.Disconnect(500 * time.Millisecond)
	}
}

// Dummy actor
func NewTestPushActor(config *config.Config, logger *zap.Logger) *PushActor {
	act := &PushActor{
		config:   config,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_PUSH, logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

func (state *PushActor) DummyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_PUSH,
			Healthy: true,
			State:   "idle",
		})
	case InjectPushMessage:
		state.forward(ctx, msg)
	}
}
