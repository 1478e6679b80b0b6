package actor

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/config"
	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/internal/util"
	"github.com/berfenger/thinq2mqtt/internal/util/actorutil"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type dispatcherFixture struct {
	system  *actor.ActorSystem
	es      *eventstream.EventStream
	pid     *actor.PID
	parent  chan any
	events  chan any
	manager *ActorDeviceManager
}

func newDispatcherFixture(t *testing.T, tweak func(cfg *config.Config)) *dispatcherFixture {
	cfg := util.LoadTestConfig()
	if tweak != nil {
		tweak(&cfg)
	}
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	t.Cleanup(as.Shutdown)

	es := &eventstream.EventStream{}
	events := make(chan any, 256)
	sub := es.Subscribe(func(evt any) {
		select {
		case events <- evt:
		default:
		}
	})
	t.Cleanup(func() { es.Unsubscribe(sub) })

	props := actor.PropsFromProducer(func() actor.Actor { return NewDispatcherActor(&cfg, es, logger) })
	pid, parent := spawnUnderCollector(as, props)
	return &dispatcherFixture{
		system:  as,
		es:      es,
		pid:     pid,
		parent:  parent,
		events:  events,
		manager: NewActorDeviceManager(as.Root, pid, nil, cfg.Control.Timeout()),
	}
}

func (f *dispatcherFixture) push(deviceID string, report string, receivedAt time.Time) {
	f.system.Root.Send(f.pid, domain.PushEvent{
		Kind:       domain.PUSH_KIND_STATUS,
		DeviceID:   deviceID,
		Payload:    []byte(report),
		ReceivedAt: receivedAt,
	})
}

func windStep(step int) string {
	return fmt.Sprintf(`{"airFlow":{"windStep":%d}}`, step)
}

func (f *dispatcherFixture) register(t *testing.T, deviceID string, deviceType profile.DeviceType) domain.RegisterDeviceResponse {
	result, err := f.system.Root.RequestFuture(f.pid, domain.RegisterDeviceRequest{
		DeviceID:   deviceID,
		DeviceType: deviceType,
	}, 2*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.RegisterDeviceResponse)
	require.True(t, ok)
	require.NoError(t, resp.ResponseError)
	return resp
}

// recordUpdates installs a callback collecting every update of deviceID.
func (f *dispatcherFixture) recordUpdates(t *testing.T, deviceID string) chan device.Update {
	updates := make(chan device.Update, 64)
	err := f.manager.SetCallback(context.Background(), deviceID, func(u device.Update) {
		updates <- u
	})
	require.NoError(t, err)
	return updates
}

func nextUpdate(t *testing.T, updates chan device.Update) device.Update {
	select {
	case u := <-updates:
		return u
	case <-time.After(2 * time.Second):
		require.FailNow(t, "no update received")
		return device.Update{}
	}
}

func windStepOf(u device.Update) int64 {
	v, ok := u.Snapshot.Get("air_flow", "wind_step")
	if !ok {
		return -1
	}
	n, _ := v.Int()
	return n
}

// spawnUnderCollector spawns props as the child of an actor that collects
// every user message the child sends to its parent.
func spawnUnderCollector(system *actor.ActorSystem, props *actor.Props) (*actor.PID, chan any) {
	out := make(chan any, 64)
	childCh := make(chan *actor.PID, 1)
	collector := actor.PropsFromFunc(func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case *actor.Started:
			childCh <- ctx.Spawn(props)
		case *actor.Stopping, *actor.Stopped, *actor.Restarting, *actor.Terminated:
		default:
			select {
			case out <- msg:
			default:
			}
		}
	})
	system.Root.Spawn(collector)
	return <-childCh, out
}

// expect waits for the first message of type T, skipping others.
func expect[T any](ch chan any, timeout time.Duration) (T, bool) {
	deadline := time.After(timeout)
	for {
		select {
		case msg := <-ch:
			if v, ok := msg.(T); ok {
				return v, true
			}
		case <-deadline:
			var zero T
			return zero, false
		}
	}
}

// expectNone reports whether no message of type T arrives within d.
func expectNone[T any](ch chan any, d time.Duration) bool {
	_, ok := expect[T](ch, d)
	return !ok
}
