package actor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/thinq2mqtt/internal/adapter/actor"
	"github.com/berfenger/thinq2mqtt/internal/config"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/internal/core/port"
	"github.com/berfenger/thinq2mqtt/internal/core/service"
	"github.com/berfenger/thinq2mqtt/internal/mqtt"
	. "github.com/berfenger/thinq2mqtt/internal/util/actorutil"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

const SYNC_TIMEOUT = 2 * time.Minute

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type PushActorProvider func() *adactor.PushActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	dispatcherActor    *actor.PID
	pushActor          *actor.PID
	mqttActor          *actor.PID
	haDiscoveryActor   *actor.PID
	pushActorProvider  PushActorProvider
	mqttActorProvider  MQTTActorProvider
	transport          port.Transport
	control            port.ControlService
	manager            port.DeviceManager
	syncing            bool
	resyncRequested    bool
	logger             *zap.Logger
}

type healthCheckResult struct {
	healthy        map[string]bool
	checksReceived int
	respondTo      *actor.PID
}

type syncResult struct {
	result service.SyncResult
	err    error
}

type controlResult struct {
	deviceID string
	command  *profile.Command
	err      error
}

// NewMasterOfPuppetsActor builds the root of the actor tree. Nil providers
// disable the push channel or the MQTT bridge.
func NewMasterOfPuppetsActor(config config.Config, transport port.Transport, pushActorProvider PushActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:            config,
		behavior:          actor.NewBehavior(),
		stash:             &Stash{},
		logger:            ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:       &eventstream.EventStream{},
		pushActorProvider: pushActorProvider,
		mqttActorProvider: mqttActorProvider,
		transport:         transport,
		control:           service.NewControlService(transport, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.manager = NewActorDeviceManager(ctx.ActorSystem().Root, ctx.Self(), state.control, state.config.Control.Timeout())
		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start Dispatcher child
		dispatcherPID, err := state.startDispatcherActor(ctx)
		if err != nil {
			panic(err)
		}
		state.dispatcherActor = dispatcherPID

		// start Push child
		if state.pushActorProvider != nil {
			pushPID, err := state.startPushActor(ctx)
			if err != nil {
				panic(err)
			}
			state.pushActor = pushPID
		}

		// start MQTT child
		if state.mqttActorProvider != nil {
			mqttActorPID, err := state.startMQTTActor(ctx)
			if err != nil {
				panic(err)
			}
			state.mqttActor = mqttActorPID

			// start HA Discovery
			if state.config.MQTT.HADiscoveryEnable {
				haDiscPID, err := state.startHADiscoveryActor(ctx)
				if err != nil {
					panic(err)
				}
				state.haDiscoveryActor = haDiscPID
			}
		}

		if state.config.ThinQ.Bootstrap {
			ctx.Send(ctx.Self(), domain.DeviceListChanged{})
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		for id, pid := range state.children() {
			state.currentHealthCheck.healthy[id] = false
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      id,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.RegisterDeviceRequest, domain.DeregisterDeviceRequest, domain.SetCallbackRequest,
		domain.GetSnapshotRequest, domain.GetDeviceRequest, domain.ListDevicesRequest, domain.ApplyStatusRequest,
		domain.PushEvent:
		state.toDispatcher(ctx)
	case domain.PushSubscriptionChanged:
		if msg.Subscribed {
			state.logger.Info("master@default push channel subscribed")
		} else {
			state.logger.Warn("master@default push channel dropped", zap.Error(msg.Error))
		}
	case domain.DeviceListChanged:
		state.logger.Debug("master@default DeviceListChanged", zap.String("device", msg.DeviceID))
		if state.syncing {
			state.resyncRequested = true
		} else {
			state.startSync(ctx)
		}
	case syncResult:
		state.syncing = false
		if msg.err != nil {
			state.logger.Error("master@default device sync failed", zap.Error(msg.err))
		}
		if state.resyncRequested {
			state.resyncRequested = false
			state.startSync(ctx)
		}
	case adactor.ParsedCommand:
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command != nil {
			state.startControl(ctx, *msg.Command)
		}
	case controlResult:
		if msg.err != nil {
			state.logger.Warn("master@default command rejected", zap.String("device", msg.deviceID), zap.Error(msg.err))
		} else {
			state.logger.Info("master@default command sent", zap.String("device", msg.deviceID), zap.Int("entries", len(msg.command.Entries)))
		}
	case *actor.Terminated:
		// the dispatcher owns every device, the tree cannot run without it
		if state.dispatcherActor != nil && msg.Who.Id == state.dispatcherActor.Id {
			state.logger.Error("master@default dispatcher terminated")
			panic(errors.New("dispatcher terminated"))
		}
	default:
		state.logger.Debug("master@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.CancelReceiveTimeout()
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if _, ok := state.currentHealthCheck.healthy[msg.Id]; ok {
			state.currentHealthCheck.healthy[msg.Id] = msg.Healthy
		}
		if state.currentHealthCheck.allReceived() {
			ctx.CancelReceiveTimeout()
			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		}
	case domain.RegisterDeviceRequest, domain.DeregisterDeviceRequest, domain.SetCallbackRequest,
		domain.GetSnapshotRequest, domain.GetDeviceRequest, domain.ListDevicesRequest, domain.ApplyStatusRequest,
		domain.PushEvent:
		// device traffic keeps its arrival order, only master work waits
		state.toDispatcher(ctx)
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// toDispatcher hands device requests to the dispatcher keeping the original
// sender. Push events are sent, nobody waits on them.
func (state *MasterOfPuppetsActor) toDispatcher(ctx actor.Context) {
	if _, ok := ctx.Message().(domain.PushEvent); ok {
		ctx.Send(state.dispatcherActor, ctx.Message())
		return
	}
	ctx.Forward(state.dispatcherActor)
}

func (state *MasterOfPuppetsActor) children() map[string]*actor.PID {
	children := map[string]*actor.PID{
		domain.ACTOR_ID_DISPATCHER: state.dispatcherActor,
	}
	if state.pushActor != nil {
		children[domain.ACTOR_ID_PUSH] = state.pushActor
	}
	if state.mqttActor != nil {
		children[domain.ACTOR_ID_MQTT] = state.mqttActor
	}
	if state.haDiscoveryActor != nil {
		children[domain.ACTOR_ID_HA_DISCOVERY] = state.haDiscoveryActor
	}
	return children
}

func (state *MasterOfPuppetsActor) startSync(ctx actor.Context) {
	state.syncing = true
	NewBackgroundTaskNoError(ctx, func(c context.Context) *syncResult {
		result, err := service.SyncDevices(c, state.transport, state.manager, state.logger)
		return &syncResult{result: result, err: err}
	}).WithTimeout(SYNC_TIMEOUT).Recover(func(err error) syncResult {
		return syncResult{err: err}
	}).PipeTo(ctx.Self())
}

// startControl sends a command received on the MQTT bridge with the
// configured control timeout.
func (state *MasterOfPuppetsActor) startControl(ctx actor.Context, cmd mqtt.ParsedMQTTCommand) {
	manager := state.manager
	NewBackgroundTaskNoError(ctx, func(c context.Context) *controlResult {
		_, p, err := manager.Device(c, cmd.DeviceId)
		if err != nil {
			return &controlResult{deviceID: cmd.DeviceId, err: err}
		}
		write, err := ParsedMQTTCommandToWrite(p, cmd)
		if err != nil {
			return &controlResult{deviceID: cmd.DeviceId, err: err}
		}
		command, err := manager.SendControl(c, cmd.DeviceId, write)
		return &controlResult{deviceID: cmd.DeviceId, command: command, err: err}
	}).WithTimeout(state.config.Control.Timeout()).Recover(func(err error) controlResult {
		return controlResult{deviceID: cmd.DeviceId, err: controlFailure(err)}
	}).PipeTo(ctx.Self())
}

// controlFailure reports a timed out command as ErrCommandTimedOut and
// leaves every other failure as is.
func controlFailure(err error) error {
	if IsTimeout(err) {
		return domain.ErrCommandTimedOut
	}
	return err
}

func (state *MasterOfPuppetsActor) startDispatcherActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	dispatcherProps := actor.PropsFromProducer(func() actor.Actor {
		return NewDispatcherActor(&state.config, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	dispatcherPID, err := ctx.SpawnNamed(dispatcherProps, domain.ACTOR_ID_DISPATCHER)
	if err != nil {
		return nil, err
	}

	return dispatcherPID, nil
}

func (state *MasterOfPuppetsActor) startPushActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	pushProps := actor.PropsFromProducer(func() actor.Actor {
		return state.pushActorProvider()
	}, actor.WithSupervisor(supervisor))
	pushPID, err := ctx.SpawnNamed(pushProps, domain.ACTOR_ID_PUSH)
	if err != nil {
		return nil, err
	}

	return pushPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.dispatcherActor, state.mqttActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.healthy = make(map[string]bool)
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived >= len(state.healthy)
}

func (state *healthCheckResult) allHealthy() bool {
	for _, healthy := range state.healthy {
		if !healthy {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
