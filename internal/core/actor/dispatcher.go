package actor

import (
	"fmt"
	"log"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/config"
	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	. "github.com/berfenger/thinq2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const minPendingSweep = 10 * time.Millisecond

type pendingSweep struct {
}

// DispatcherActor is the single consumer of push events. It owns the
// dispatch table and hands each event to the actor of its device, so events
// of one device are applied in order while devices run in parallel. Status
// events of unknown devices wait in a pending buffer until registration.
type DispatcherActor struct {
	config      *config.Config
	behavior    actor.Behavior
	eventStream *eventstream.EventStream
	table       *device.Table
	devices     map[string]*actor.PID
	pending     *pendingBuffer
	scheduler   *scheduler.TimerScheduler
	cancelSweep scheduler.CancelFunc
	now         func() time.Time

	logger     *zap.Logger
	baseLogger *zap.Logger
}

func NewDispatcherActor(config *config.Config, eventStream *eventstream.EventStream, logger *zap.Logger) *DispatcherActor {
	act := &DispatcherActor{
		config:      config,
		behavior:    actor.NewBehavior(),
		eventStream: eventStream,
		table:       device.NewTable(),
		devices:     make(map[string]*actor.PID),
		pending:     newPendingBuffer(config.Dispatcher.PendingCapacity, config.Dispatcher.PendingWindow()),
		now:         time.Now,
		logger:      ActorLogger(domain.ACTOR_ID_DISPATCHER, logger),
		baseLogger:  logger,
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *DispatcherActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *DispatcherActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("dispatcher@default started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
	case *actor.Stopping:
		if state.cancelSweep != nil {
			state.cancelSweep()
		}
	case domain.PushEvent:
		state.logger.Debug("dispatcher@default PushEvent", zap.String("device", msg.DeviceID), zap.Stringer("kind", msg.Kind))
		state.dispatch(ctx, msg)
	case pendingSweep:
		state.cancelSweep = nil
		if n := state.pending.Expire(state.now()); n > 0 {
			state.logger.Info("dispatcher@default pending events expired", zap.Int("count", n))
		}
		state.scheduleSweep(ctx)
	case domain.RegisterDeviceRequest:
		state.logger.Debug("dispatcher@default RegisterDeviceRequest", zap.String("device", msg.DeviceID))
		info, flushed, err := state.register(ctx, msg)
		ForRequest(msg).Respond(ctx, domain.RegisterDeviceResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
			Device:  info,
			Flushed: flushed,
		})
	case domain.DeregisterDeviceRequest:
		state.logger.Debug("dispatcher@default DeregisterDeviceRequest", zap.String("device", msg.DeviceID))
		ForRequest(msg).Respond(ctx, domain.DeregisterDeviceResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: state.deregister(ctx, msg.DeviceID),
			},
		})
	case domain.SetCallbackRequest:
		var err error
		if h, ok := state.table.Get(msg.DeviceID); ok {
			h.SetCallback(msg.Callback)
		} else {
			err = fmt.Errorf("%w: %s", device.ErrNotRegistered, msg.DeviceID)
		}
		ForRequest(msg).Respond(ctx, domain.SetCallbackResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		})
	case domain.GetSnapshotRequest:
		resp := domain.GetSnapshotResponse{}
		if h, ok := state.table.Get(msg.DeviceID); ok {
			resp.Device = h.Info()
			resp.Snapshot = h.Snapshot()
			resp.Diagnostics = h.Diagnostics()
		} else {
			resp.ResponseError = fmt.Errorf("%w: %s", device.ErrNotRegistered, msg.DeviceID)
		}
		ForRequest(msg).Respond(ctx, resp)
	case domain.GetDeviceRequest:
		resp := domain.GetDeviceResponse{}
		if h, ok := state.table.Get(msg.DeviceID); ok {
			resp.Device = h.Info()
			resp.Profile = h.Profile()
		} else {
			resp.ResponseError = fmt.Errorf("%w: %s", device.ErrNotRegistered, msg.DeviceID)
		}
		ForRequest(msg).Respond(ctx, resp)
	case domain.ListDevicesRequest:
		ForRequest(msg).Respond(ctx, domain.ListDevicesResponse{
			Devices: state.table.Infos(),
		})
	case domain.ApplyStatusRequest:
		state.logger.Debug("dispatcher@default ApplyStatusRequest", zap.String("device", msg.DeviceID))
		if pid, ok := state.devices[msg.DeviceID]; ok {
			ctx.Forward(pid)
		} else {
			ForRequest(msg).Respond(ctx, domain.ApplyStatusResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: fmt.Errorf("%w: %s", device.ErrNotRegistered, msg.DeviceID),
				},
			})
		}
	case domain.ActorHealthRequest:
		state.logger.Debug("dispatcher@default ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_DISPATCHER,
			Healthy: true,
			State:   fmt.Sprintf("devices=%d pending=%d", state.table.Len(), state.pending.Len()),
		})
	default:
		state.logger.Debug("dispatcher@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *DispatcherActor) dispatch(ctx actor.Context, ev domain.PushEvent) {
	switch ev.Kind {
	case domain.PUSH_KIND_STATUS:
		if pid, ok := state.devices[ev.DeviceID]; ok {
			ctx.Send(pid, deviceEvent{event: ev})
			return
		}
		if evicted, ok := state.pending.Add(ev, state.now()); ok {
			state.logger.Warn("dispatcher@default pending buffer full, event dropped", zap.String("device", evicted.DeviceID))
		}
		state.scheduleSweep(ctx)
	case domain.PUSH_KIND_NOTIFICATION:
		if _, ok := state.devices[ev.DeviceID]; !ok {
			state.logger.Debug("dispatcher@default notification for unknown device dropped", zap.String("device", ev.DeviceID))
			return
		}
		state.eventStream.Publish(domain.NotificationEvent{
			DeviceID:   ev.DeviceID,
			Code:       ev.Code,
			ReceivedAt: ev.ReceivedAt,
		})
	case domain.PUSH_KIND_REGISTERED:
		ctx.Send(ctx.Parent(), domain.DeviceListChanged{DeviceID: ev.DeviceID})
	case domain.PUSH_KIND_UNREGISTERED:
		if err := state.deregister(ctx, ev.DeviceID); err != nil {
			state.logger.Debug("dispatcher@default unregistered push for unknown device", zap.String("device", ev.DeviceID))
		}
	default:
		state.logger.Debug("dispatcher@default unknown push ignored", zap.String("device", ev.DeviceID))
	}
}

func (state *DispatcherActor) register(ctx actor.Context, req domain.RegisterDeviceRequest) (device.Info, int, error) {
	h, err := device.NewHandle(req.DeviceID, req.DeviceType)
	if err != nil {
		return device.Info{}, 0, err
	}
	h.WithLabels(req.Alias, req.Model)
	registered, err := state.table.Add(h)
	if err != nil {
		return device.Info{}, 0, fmt.Errorf("%w: %s", err, req.DeviceID)
	}
	if registered != h {
		return registered.Info(), 0, nil
	}

	info := h.Info()
	pid := state.spawnDevice(ctx, h)
	state.devices[h.ID()] = pid

	held := state.pending.Take(h.ID(), state.now())
	for _, ev := range held {
		ctx.Send(pid, deviceEvent{event: ev})
	}
	if len(held) > 0 {
		state.logger.Info("dispatcher@default held events delivered", zap.String("device", h.ID()), zap.Int("count", len(held)))
	}

	state.eventStream.Publish(domain.DeviceRegisteredEvent{
		Device:  info,
		Profile: h.Profile(),
	})
	return info, len(held), nil
}

func (state *DispatcherActor) deregister(ctx actor.Context, deviceID string) error {
	dropped := state.pending.Drop(deviceID)
	if _, ok := state.table.Remove(deviceID); !ok {
		return fmt.Errorf("%w: %s", device.ErrNotRegistered, deviceID)
	}
	if pid, ok := state.devices[deviceID]; ok {
		ctx.Stop(pid)
		delete(state.devices, deviceID)
	}
	state.logger.Info("dispatcher@default device deregistered", zap.String("device", deviceID), zap.Int("pending_dropped", dropped))
	state.eventStream.Publish(domain.DeviceDeregisteredEvent{DeviceID: deviceID})
	return nil
}

func (state *DispatcherActor) spawnDevice(ctx actor.Context, h *device.Handle) *actor.PID {
	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for device %s. reason: %v", h.ID(), reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewDeviceActor(h, state.config.Dispatcher.StaleAfter(), state.eventStream, state.baseLogger)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnPrefix(props, domain.ACTOR_ID_DEVICE_PREFIX+h.ID())
}

// scheduleSweep arms a single timer for the next pending expiry.
func (state *DispatcherActor) scheduleSweep(ctx actor.Context) {
	if state.cancelSweep != nil {
		return
	}
	next, ok := state.pending.NextExpiry()
	if !ok {
		return
	}
	delay := next.Sub(state.now())
	if delay < minPendingSweep {
		delay = minPendingSweep
	}
	state.cancelSweep = state.scheduler.RequestOnce(delay, ctx.Self(), pendingSweep{})
}
