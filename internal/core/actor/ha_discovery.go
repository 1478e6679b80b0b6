package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/config"
	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/internal/util/actorutil"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/carlmjohnson/versioninfo"
	"go.uber.org/zap"
)

type onDiscoveryEvent struct {
	message any
}

// HADiscoveryActor announces every registered device to Home Assistant and
// withdraws the announcement on deregistration.
type HADiscoveryActor struct {
	config          *config.Config
	behavior        actor.Behavior
	stash           *actorutil.Stash
	dispatcherActor *actor.PID
	mqttActor       *actor.PID
	eventStream     *eventstream.EventStream
	eventStreamSub  *eventstream.Subscription
	bridge          domain.HADevice
	announced       map[string]domain.PublishDiscoveryRequest

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, dispatcherActor *actor.PID, mqttActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:          config,
		dispatcherActor: dispatcherActor,
		mqttActor:       mqttActor,
		eventStream:     eventStream,
		behavior:        actor.NewBehavior(),
		stash:           &actorutil.Stash{},
		bridge:          domain.BridgeDevice(config.MQTT.BaseTopic, versioninfo.Short()),
		announced:       make(map[string]domain.PublishDiscoveryRequest),
		logger:          actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// registrations from now on are queued in the mailbox
		system, self := ctx.ActorSystem(), ctx.Self()
		state.eventStreamSub = state.eventStream.Subscribe(func(value any) {
			switch value.(type) {
			case domain.DeviceRegisteredEvent, domain.DeviceDeregisteredEvent:
				system.Root.Send(self, onDiscoveryEvent{message: value})
			}
		})

		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 5*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
		state.unsubscribe()
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		if !msg.Healthy {
			panic(errors.New("MQTT Actor is not healthy"))
		}
		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Device: state.bridge,
			Bridge: true,
		})
		// devices registered before the subscription
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.dispatcherActor, domain.ListDevicesRequest{}, 2*time.Second), func(err error) any {
			return domain.ListDevicesResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
		state.behavior.Become(state.WaitingDevicesReceive)
	case *actor.Restarting:
		state.unsubscribe()
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingDevicesReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ListDevicesResponse:
		if msg.HasResponseError() {
			panic(msg.GetResponseError())
		}
		state.logger.Debug("hadiscovery@devices ListDevicesResponse", zap.Int("devices", len(msg.Devices)))
		for _, info := range msg.Devices {
			p, err := profile.Lookup(info.DeviceType)
			if err != nil {
				continue
			}
			state.announce(ctx, info, p)
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.unsubscribe()
	default:
		state.logger.Debug("hadiscovery@devices: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case onDiscoveryEvent:
		switch ev := msg.message.(type) {
		case domain.DeviceRegisteredEvent:
			state.logger.Debug("hadiscovery@default DeviceRegisteredEvent", zap.String("device", ev.Device.DeviceID))
			state.announce(ctx, ev.Device, ev.Profile)
		case domain.DeviceDeregisteredEvent:
			state.logger.Debug("hadiscovery@default DeviceDeregisteredEvent", zap.String("device", ev.DeviceID))
			if req, ok := state.announced[ev.DeviceID]; ok {
				req.Remove = true
				ctx.Send(state.mqttActor, req)
				delete(state.announced, ev.DeviceID)
			}
		}
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HA_DISCOVERY,
			Healthy: true,
			State:   "default",
		})
	case *actor.Restarting:
		state.unsubscribe()
	case *actor.Stopping:
		state.unsubscribe()
	default:
		state.logger.Debug("hadiscovery@default: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HADiscoveryActor) announce(ctx actor.Context, info device.Info, p *profile.DeviceProfile) {
	if _, ok := state.announced[info.DeviceID]; ok {
		return
	}
	req := domain.PublishDiscoveryRequest{
		Device:   domain.ApplianceDevice(info, state.bridge.Id),
		Entities: domain.DeviceEntities(info, p),
	}
	state.announced[info.DeviceID] = req
	ctx.Send(state.mqttActor, req)
}

func (state *HADiscoveryActor) unsubscribe() {
	if state.eventStreamSub != nil {
		state.eventStream.Unsubscribe(state.eventStreamSub)
		state.eventStreamSub = nil
	}
}
