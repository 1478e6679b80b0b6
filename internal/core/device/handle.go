package device

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/berfenger/thinq2mqtt/pkg/thinq/profile"
)

var (
	ErrDeregistered = errors.New("device deregistered")
)

// Event is one raw status document for a device. Full documents replace the
// snapshot, partial reports are overlaid on it.
type Event struct {
	Payload    []byte
	ReceivedAt time.Time
	Full       bool
}

// Update is what a callback observes after an event is applied.
type Update struct {
	DeviceID    string                `json:"device_id"`
	DeviceType  profile.DeviceType    `json:"device_type"`
	State       State                 `json:"state"`
	Snapshot    *profile.Snapshot     `json:"snapshot"`
	Diagnostics []*profile.FieldError `json:"-"`
	ReceivedAt  time.Time             `json:"received_at"`
	// Replayed is set when the event was not received after the last
	// applied one, as happens when the push channel replays on reconnect.
	Replayed bool `json:"replayed"`
	// Recovered is set when the update moved the device out of Stale.
	Recovered bool `json:"recovered"`
}

type Callback func(Update)

// Info is a point-in-time summary of a handle.
type Info struct {
	DeviceID     string             `json:"device_id"`
	DeviceType   profile.DeviceType `json:"device_type"`
	Alias        string             `json:"alias,omitempty"`
	Model        string             `json:"model,omitempty"`
	State        State              `json:"state"`
	LastReceived time.Time          `json:"last_received"`
	Properties   int                `json:"properties"`
}

// Handle holds the live state of one registered device. Every mutation
// takes the handle lock, so a snapshot replacement never interleaves with
// a callback change. Handles of different devices share nothing.
type Handle struct {
	id      string
	profile *profile.DeviceProfile
	alias   string
	model   string

	mu           sync.RWMutex
	state        State
	snapshot     *profile.Snapshot
	diagnostics  []*profile.FieldError
	callback     Callback
	lastReceived time.Time
}

func NewHandle(id string, deviceType profile.DeviceType) (*Handle, error) {
	p, err := profile.Lookup(deviceType)
	if err != nil {
		return nil, err
	}
	return &Handle{
		id:      id,
		profile: p,
		state:   StateRegistered,
	}, nil
}

// WithLabels sets the descriptive alias and model name.
func (h *Handle) WithLabels(alias, model string) *Handle {
	h.alias = alias
	h.model = model
	return h
}

func (h *Handle) ID() string {
	return h.id
}

func (h *Handle) DeviceType() profile.DeviceType {
	return h.profile.Type
}

func (h *Handle) Profile() *profile.DeviceProfile {
	return h.profile
}

func (h *Handle) State() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

// Snapshot returns the latest snapshot, nil until the first event. The
// returned value is never mutated afterwards.
func (h *Handle) Snapshot() *profile.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot
}

func (h *Handle) Diagnostics() []*profile.FieldError {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.diagnostics
}

func (h *Handle) Info() Info {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Info{
		DeviceID:     h.id,
		DeviceType:   h.profile.Type,
		Alias:        h.alias,
		Model:        h.model,
		State:        h.state,
		LastReceived: h.lastReceived,
		Properties:   h.snapshot.Len(),
	}
}

// SetCallback attaches cb, or detaches the current callback when cb is nil.
// The snapshot is left untouched.
func (h *Handle) SetCallback(cb Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callback = cb
}

func (h *Handle) HasCallback() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.callback != nil
}

// Apply parses ev and replaces the snapshot. A document that cannot be read
// at all leaves the handle unchanged and returns the parse error; field
// level problems are carried in the update diagnostics.
func (h *Handle) Apply(ev Event) (Update, error) {
	parse := profile.ParseReport
	if ev.Full {
		parse = profile.ParseStatus
	}
	snap, diags, err := parse(h.profile, ev.Payload)
	if err != nil {
		return Update{}, fmt.Errorf("device %s: %w", h.id, err)
	}

	h.mu.Lock()
	if h.state == StateUnregistered {
		h.mu.Unlock()
		return Update{}, ErrDeregistered
	}
	if !ev.Full {
		snap = h.snapshot.Merge(snap)
	}
	update := Update{
		DeviceID:    h.id,
		DeviceType:  h.profile.Type,
		State:       StateActive,
		Snapshot:    snap,
		Diagnostics: diags,
		ReceivedAt:  ev.ReceivedAt,
		Replayed:    !h.lastReceived.IsZero() && !ev.ReceivedAt.After(h.lastReceived),
		Recovered:   h.state == StateStale,
	}
	h.snapshot = snap
	h.diagnostics = diags
	h.state = StateActive
	if ev.ReceivedAt.After(h.lastReceived) {
		h.lastReceived = ev.ReceivedAt
	}
	cb := h.callback
	h.mu.Unlock()

	if cb != nil {
		if err := invoke(cb, update); err != nil {
			return update, err
		}
	}
	return update, nil
}

// MarkStale moves an active or freshly registered handle to Stale and
// reports whether the state changed.
func (h *Handle) MarkStale() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StateActive && h.state != StateRegistered {
		return false
	}
	h.state = StateStale
	return true
}

// Deregister ends the handle. The callback is dropped and later events are
// rejected with ErrDeregistered.
func (h *Handle) Deregister() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = StateUnregistered
	h.callback = nil
}

// CallbackPanic is returned by Apply when the callback panicked. The
// snapshot replacement stands.
type CallbackPanic struct {
	DeviceID string
	Value    any
}

func (e *CallbackPanic) Error() string {
	return fmt.Sprintf("device %s: callback panic: %v", e.DeviceID, e.Value)
}

func invoke(cb Callback, update Update) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CallbackPanic{DeviceID: update.DeviceID, Value: r}
		}
	}()
	cb(update)
	return nil
}
