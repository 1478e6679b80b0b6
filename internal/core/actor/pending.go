package actor

import (
	"time"

	"github.com/berfenger/thinq2mqtt/internal/core/domain"
)

type pendingEvent struct {
	event  domain.PushEvent
	heldAt time.Time
}

// pendingBuffer holds status events of devices that are not registered yet.
// It is bounded, evicting the oldest event first, and events older than the
// window are discarded.
type pendingBuffer struct {
	capacity int
	window   time.Duration
	events   []pendingEvent
}

func newPendingBuffer(capacity int, window time.Duration) *pendingBuffer {
	return &pendingBuffer{
		capacity: capacity,
		window:   window,
	}
}

// Add holds ev and returns the event evicted to make room, if any.
func (b *pendingBuffer) Add(ev domain.PushEvent, now time.Time) (domain.PushEvent, bool) {
	if b.capacity <= 0 {
		return ev, true
	}
	var evicted domain.PushEvent
	var didEvict bool
	if len(b.events) >= b.capacity {
		evicted = b.events[0].event
		didEvict = true
		b.events = b.events[1:]
	}
	b.events = append(b.events, pendingEvent{event: ev, heldAt: now})
	return evicted, didEvict
}

// Expire drops every event held for longer than the window.
func (b *pendingBuffer) Expire(now time.Time) int {
	keep := b.events[:0]
	for _, p := range b.events {
		if now.Sub(p.heldAt) < b.window {
			keep = append(keep, p)
		}
	}
	n := len(b.events) - len(keep)
	clear(b.events[len(keep):])
	b.events = keep
	return n
}

// Take removes and returns the in-window events of deviceID in arrival order.
func (b *pendingBuffer) Take(deviceID string, now time.Time) []domain.PushEvent {
	b.Expire(now)
	return b.extract(deviceID)
}

// Drop discards every event of deviceID.
func (b *pendingBuffer) Drop(deviceID string) int {
	return len(b.extract(deviceID))
}

func (b *pendingBuffer) extract(deviceID string) []domain.PushEvent {
	var out []domain.PushEvent
	keep := b.events[:0]
	for _, p := range b.events {
		if p.event.DeviceID == deviceID {
			out = append(out, p.event)
		} else {
			keep = append(keep, p)
		}
	}
	clear(b.events[len(keep):])
	b.events = keep
	return out
}

func (b *pendingBuffer) Len() int {
	return len(b.events)
}

// NextExpiry reports when the oldest held event leaves the window.
func (b *pendingBuffer) NextExpiry() (time.Time, bool) {
	if len(b.events) == 0 {
		return time.Time{}, false
	}
	return b.events[0].heldAt.Add(b.window), true
}
