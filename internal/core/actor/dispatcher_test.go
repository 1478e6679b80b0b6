package actor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/berfenger/thinq2mqtt/internal/config"
	"github.com/berfenger/thinq2mqtt/internal/core/device"
	"github.com/berfenger/thinq2mqtt/internal/core/domain"
	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherPerDeviceOrdering(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	f.register(t, "D", profile.DEVICE_TYPE_AIR_CONDITIONER)
	f.register(t, "D2", profile.DEVICE_TYPE_AIR_CONDITIONER)
	updatesD := f.recordUpdates(t, "D")
	updatesD2 := f.recordUpdates(t, "D2")

	start := time.Now()
	// interleaved: D:1 D2:5 D:2 D2:4 D:3 D2:3
	for i := 0; i < 3; i++ {
		f.push("D", windStep(1+i), start.Add(time.Duration(2*i)*time.Millisecond))
		f.push("D2", windStep(5-i), start.Add(time.Duration(2*i+1)*time.Millisecond))
	}

	for _, want := range []int64{1, 2, 3} {
		assert.Equal(t, want, windStepOf(nextUpdate(t, updatesD)))
	}
	for _, want := range []int64{5, 4, 3} {
		assert.Equal(t, want, windStepOf(nextUpdate(t, updatesD2)))
	}

	snap, _, err := f.manager.GetSnapshot(context.Background(), "D")
	require.NoError(t, err)
	v, _ := snap.Get("air_flow", "wind_step")
	n, _ := v.Int()
	assert.Equal(t, int64(3), n)
}

func TestDispatcherFlushesHeldEventsOnRegistration(t *testing.T) {
	assert := assert.New(t)
	f := newDispatcherFixture(t, nil)

	start := time.Now()
	f.push("ac-1", windStep(2), start)
	f.push("ac-1", `{"airFlow":{"windStrength":"HIGH"}}`, start.Add(time.Millisecond))

	resp := f.register(t, "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER)
	assert.Equal(2, resp.Flushed)
	assert.Equal(device.StateRegistered, resp.Device.State)

	assert.Eventually(func() bool {
		snap, _, err := f.manager.GetSnapshot(context.Background(), "ac-1")
		return err == nil && snap.Len() == 2
	}, 2*time.Second, 20*time.Millisecond)

	snap, _, err := f.manager.GetSnapshot(context.Background(), "ac-1")
	require.NoError(t, err)
	v, _ := snap.Get("air_flow", "wind_strength")
	s, _ := v.Enum()
	assert.Equal("HIGH", s)
}

func TestDispatcherPendingCapacity(t *testing.T) {
	f := newDispatcherFixture(t, func(cfg *config.Config) {
		cfg.Dispatcher.PendingCapacity = 2
	})

	start := time.Now()
	for i := 1; i <= 3; i++ {
		f.push("ac-1", windStep(i), start.Add(time.Duration(i)*time.Millisecond))
	}
	resp := f.register(t, "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER)
	assert.Equal(t, 2, resp.Flushed)
}

func TestDispatcherPendingExpiry(t *testing.T) {
	f := newDispatcherFixture(t, func(cfg *config.Config) {
		cfg.Dispatcher.PendingWindowMillis = 100
	})

	f.push("ac-1", windStep(2), time.Now())

	// the sweep timer empties the buffer without any registration
	assert.Eventually(t, func() bool {
		result, err := f.system.Root.RequestFuture(f.pid, domain.ActorHealthRequest{}, time.Second).Result()
		return err == nil && strings.HasSuffix(result.(domain.ActorHealthResponse).State, "pending=0")
	}, 2*time.Second, 50*time.Millisecond)

	resp := f.register(t, "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER)
	assert.Equal(t, 0, resp.Flushed)
}

func TestDispatcherRegisterUnknownType(t *testing.T) {
	f := newDispatcherFixture(t, nil)

	result, err := f.system.Root.RequestFuture(f.pid, domain.RegisterDeviceRequest{
		DeviceID:   "x",
		DeviceType: profile.DeviceType("DEVICE_TOASTER"),
	}, 2*time.Second).Result()
	require.NoError(t, err)
	resp := result.(domain.RegisterDeviceResponse)
	assert.True(t, profile.IsUnknownDeviceType(resp.ResponseError))
}

func TestDispatcherRegisterTwice(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	f.register(t, "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER)
	f.register(t, "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER)

	result, err := f.system.Root.RequestFuture(f.pid, domain.RegisterDeviceRequest{
		DeviceID:   "ac-1",
		DeviceType: profile.DEVICE_TYPE_WASHER,
	}, 2*time.Second).Result()
	require.NoError(t, err)
	resp := result.(domain.RegisterDeviceResponse)
	assert.True(t, errors.Is(resp.ResponseError, device.ErrAlreadyRegistered))

	devices, err := f.manager.Devices(context.Background())
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}

func TestDispatcherStaleAndRecovery(t *testing.T) {
	assert := assert.New(t)
	f := newDispatcherFixture(t, func(cfg *config.Config) {
		cfg.Dispatcher.StaleAfterSeconds = 1
	})
	f.register(t, "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER)

	stale, ok := expect[domain.AvailabilityEvent](f.events, 3*time.Second)
	require.True(t, ok)
	assert.Equal("ac-1", stale.DeviceID)
	assert.False(stale.Available)
	assert.Equal(device.StateStale, stale.State)

	f.push("ac-1", windStep(3), time.Now())
	recovered, ok := expect[domain.AvailabilityEvent](f.events, 2*time.Second)
	require.True(t, ok)
	assert.True(recovered.Available)
	assert.Equal(device.StateActive, recovered.State)
}

func TestDispatcherDeregisterStopsDelivery(t *testing.T) {
	assert := assert.New(t)
	f := newDispatcherFixture(t, nil)
	f.register(t, "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER)
	updates := f.recordUpdates(t, "ac-1")

	require.NoError(t, f.manager.DeregisterDevice(context.Background(), "ac-1"))
	_, ok := expect[domain.DeviceDeregisteredEvent](f.events, 2*time.Second)
	assert.True(ok)

	f.push("ac-1", windStep(2), time.Now())
	select {
	case <-updates:
		assert.Fail("callback invoked after deregistration")
	case <-time.After(200 * time.Millisecond):
	}

	_, _, err := f.manager.GetSnapshot(context.Background(), "ac-1")
	assert.True(errors.Is(err, device.ErrNotRegistered))
	err = f.manager.DeregisterDevice(context.Background(), "ac-1")
	assert.True(errors.Is(err, device.ErrNotRegistered))
}

func TestDispatcherFlagsReplayedEvents(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	f.register(t, "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER)
	updates := f.recordUpdates(t, "ac-1")

	now := time.Now()
	f.push("ac-1", windStep(4), now)
	f.push("ac-1", windStep(2), now.Add(-time.Minute))

	first := nextUpdate(t, updates)
	assert.False(t, first.Replayed)
	second := nextUpdate(t, updates)
	assert.True(t, second.Replayed)
	// replays are applied in arrival order
	assert.Equal(t, int64(2), windStepOf(second))
}

func TestDispatcherSurvivesCallbackPanic(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	f.register(t, "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER)
	require.NoError(t, f.manager.SetCallback(context.Background(), "ac-1", func(device.Update) {
		panic("observer failure")
	}))

	f.push("ac-1", windStep(1), time.Now())
	f.push("ac-1", windStep(5), time.Now().Add(time.Millisecond))

	assert.Eventually(t, func() bool {
		snap, _, err := f.manager.GetSnapshot(context.Background(), "ac-1")
		if err != nil {
			return false
		}
		v, ok := snap.Get("air_flow", "wind_step")
		n, _ := v.Int()
		return ok && n == 5
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDispatcherDropsUnreadableReport(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	f.register(t, "ac-1", profile.DEVICE_TYPE_AIR_CONDITIONER)
	updates := f.recordUpdates(t, "ac-1")

	f.push("ac-1", `not json`, time.Now())
	f.push("ac-1", windStep(3), time.Now().Add(time.Millisecond))

	assert.Equal(t, int64(3), windStepOf(nextUpdate(t, updates)))
}

func TestDispatcherNotifications(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	f.register(t, "w1", profile.DEVICE_TYPE_WASHER)

	f.system.Root.Send(f.pid, domain.PushEvent{Kind: domain.PUSH_KIND_NOTIFICATION, DeviceID: "ghost", Code: "IGNORED"})
	f.system.Root.Send(f.pid, domain.PushEvent{Kind: domain.PUSH_KIND_NOTIFICATION, DeviceID: "w1", Code: "WASHING_IS_COMPLETE"})

	ev, ok := expect[domain.NotificationEvent](f.events, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, "w1", ev.DeviceID)
	assert.Equal(t, "WASHING_IS_COMPLETE", ev.Code)
}

func TestDispatcherDeviceListPushes(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	f.register(t, "w1", profile.DEVICE_TYPE_WASHER)

	f.system.Root.Send(f.pid, domain.PushEvent{Kind: domain.PUSH_KIND_REGISTERED, DeviceID: "w2"})
	changed, ok := expect[domain.DeviceListChanged](f.parent, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, "w2", changed.DeviceID)

	f.system.Root.Send(f.pid, domain.PushEvent{Kind: domain.PUSH_KIND_UNREGISTERED, DeviceID: "w1"})
	ev, ok := expect[domain.DeviceDeregisteredEvent](f.events, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, "w1", ev.DeviceID)
}

func TestDispatcherApplyStatusUnknownDevice(t *testing.T) {
	f := newDispatcherFixture(t, nil)

	result, err := f.system.Root.RequestFuture(f.pid, domain.ApplyStatusRequest{DeviceID: "nope", Payload: []byte(`{}`)}, 2*time.Second).Result()
	require.NoError(t, err)
	resp := result.(domain.ApplyStatusResponse)
	assert.True(t, errors.Is(resp.ResponseError, device.ErrNotRegistered))
}
