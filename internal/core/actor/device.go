package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	. "github.com/berfenger/thinq2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// deviceEvent carries a push status report to the device actor.
type deviceEvent struct {
	event domain.PushEvent
}

// DeviceActor applies the events of one device in arrival order. A device
// that receives nothing for the staleness window becomes Stale until its
// next event.
type DeviceActor struct {
	ActorWithStates
	handle      *device.Handle
	eventStream *eventstream.EventStream
	staleAfter  time.Duration

	logger *zap.Logger
}

func NewDeviceActor(handle *device.Handle, staleAfter time.Duration, eventStream *eventstream.EventStream, logger *zap.Logger) *DeviceActor {
	act := &DeviceActor{
		handle:      handle,
		eventStream: eventStream,
		staleAfter:  staleAfter,
		logger:      ActorLogger(domain.ACTOR_ID_DEVICE_PREFIX+handle.ID(), logger),
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(deviceLiveState{actor: act})
	return act
}

func (state *DeviceActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Live state

type deviceLiveState struct {
	ActorState
	actor *DeviceActor
}

func (state deviceLiveState) Name() string {
	return "live"
}

func (state deviceLiveState) Receive(ctx actor.Context) {
	switch ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("device@live started")
		state.actor.armStaleTimer(ctx)
	case *actor.ReceiveTimeout:
		if state.actor.handle.MarkStale() {
			state.actor.logger.Info("device@live no events received, marking stale", zap.Duration("window", state.actor.staleAfter))
			state.actor.publishAvailability(false)
		}
		state.actor.Become(deviceStaleState{actor: state.actor})
	default:
		state.actor.receiveCommon(ctx, state.Name())
	}
}

// Stale state

type deviceStaleState struct {
	ActorState
	actor *DeviceActor
}

func (state deviceStaleState) Name() string {
	return "stale"
}

func (state deviceStaleState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
	case deviceEvent, domain.ApplyStatusRequest:
		if state.actor.receiveCommon(ctx, state.Name()) {
			state.actor.armStaleTimer(ctx)
			state.actor.Become(deviceLiveState{actor: state.actor})
		}
	default:
		state.actor.logger.Debug("device@stale recv", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.receiveCommon(ctx, state.Name())
	}
}

// receiveCommon handles the messages both states accept and reports whether
// an event was applied.
func (state *DeviceActor) receiveCommon(ctx actor.Context, stateName string) bool {
	switch msg := ctx.Message().(type) {
	case deviceEvent:
		state.logger.Debug(fmt.Sprintf("device@%s deviceEvent", stateName))
		_, err := state.apply(device.Event{
			Payload:    msg.event.Payload,
			ReceivedAt: msg.event.ReceivedAt,
		})
		return err == nil
	case domain.ApplyStatusRequest:
		state.logger.Debug(fmt.Sprintf("device@%s ApplyStatusRequest", stateName))
		update, err := state.apply(device.Event{
			Payload:    msg.Payload,
			ReceivedAt: msg.ReceivedAt,
			Full:       true,
		})
		ForRequest(msg).Respond(ctx, domain.ApplyStatusResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
			Update: update,
		})
		return err == nil
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_DEVICE_PREFIX + state.handle.ID(),
			Healthy: true,
			State:   stateName,
		})
	case *actor.Stopping:
		state.logger.Debug(fmt.Sprintf("device@%s stopping", stateName))
	}
	return false
}

// apply runs an event through the handle and publishes the outcome. A
// callback panic does not undo the snapshot replacement.
func (state *DeviceActor) apply(ev device.Event) (device.Update, error) {
	update, err := state.handle.Apply(ev)
	var cbPanic *device.CallbackPanic
	switch {
	case errors.As(err, &cbPanic):
		state.logger.Error("device: callback panicked", zap.Any("value", cbPanic.Value))
		err = nil
	case errors.Is(err, device.ErrDeregistered):
		state.logger.Debug("device: event after deregistration dropped")
		return update, err
	case err != nil:
		state.logger.Warn("device: event dropped", zap.Error(err))
		return update, err
	}
	for _, diag := range update.Diagnostics {
		state.logger.Debug("device: diagnostic", zap.String("path", diag.Path()), zap.Error(diag))
	}
	if update.Replayed {
		state.logger.Debug("device: replayed event applied", zap.Time("received_at", update.ReceivedAt))
	}
	state.eventStream.Publish(domain.SnapshotUpdatedEvent{Update: update})
	if update.Recovered {
		state.logger.Info("device: receiving events again")
		state.publishAvailability(true)
	}
	return update, nil
}

func (state *DeviceActor) armStaleTimer(ctx actor.Context) {
	if state.staleAfter > 0 {
		ctx.SetReceiveTimeout(state.staleAfter)
	}
}

func (state *DeviceActor) publishAvailability(available bool) {
	state.eventStream.Publish(domain.AvailabilityEvent{
		DeviceID:  state.handle.ID(),
		Available: available,
		State:     state.handle.State(),
	})
}
