package thinqapi

import (
	"context"
	"encoding/json"
	"sync"
)

// SentCommand records a control request accepted by TestTransport.
type SentCommand struct {
	DeviceID string
	Payload  json.RawMessage
}

// TestTransport is an in-memory stand-in for Client with scripted
// responses. After Hang, calls block until Release or until their context
// ends.
type TestTransport struct {
	mu sync.Mutex

	Devices  []DeviceSummary
	Statuses map[string]json.RawMessage
	Profiles map[string]json.RawMessage
	Errors   map[string]error
	Block    chan struct{}

	sent []SentCommand
}

func NewTestTransport() *TestTransport {
	return &TestTransport{
		Statuses: make(map[string]json.RawMessage),
		Profiles: make(map[string]json.RawMessage),
		Errors:   make(map[string]error),
	}
}

func (t *TestTransport) wait(ctx context.Context) error {
	t.mu.Lock()
	block := t.Block
	t.mu.Unlock()
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *TestTransport) failure(deviceID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Errors[deviceID]
}

func (t *TestTransport) FetchDeviceList(ctx context.Context) ([]DeviceSummary, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]DeviceSummary(nil), t.Devices...), nil
}

func (t *TestTransport) FetchStatus(ctx context.Context, deviceID string) (json.RawMessage, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	if err := t.failure(deviceID); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	raw, ok := t.Statuses[deviceID]
	if !ok {
		return nil, newAPIError(404, "1205", "device not found")
	}
	return raw, nil
}

func (t *TestTransport) FetchProfile(ctx context.Context, deviceID string) (json.RawMessage, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	if err := t.failure(deviceID); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	raw, ok := t.Profiles[deviceID]
	if !ok {
		return nil, newAPIError(404, "2203", "profile not found")
	}
	return raw, nil
}

func (t *TestTransport) SendCommand(ctx context.Context, deviceID string, payload any) (json.RawMessage, error) {
	if err := t.wait(ctx); err != nil {
		return nil, err
	}
	if err := t.failure(deviceID); err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, SentCommand{DeviceID: deviceID, Payload: body})
	return json.RawMessage(`{}`), nil
}

// Sent returns the commands accepted so far.
func (t *TestTransport) Sent() []SentCommand {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]SentCommand(nil), t.sent...)
}

// Fail scripts an error for every call concerning deviceID.
func (t *TestTransport) Fail(deviceID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Errors[deviceID] = err
}

func (t *TestTransport) SetStatus(deviceID string, raw string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Statuses[deviceID] = json.RawMessage(raw)
}

// Hang makes every later call block until Release or context end.
func (t *TestTransport) Hang() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Block = make(chan struct{})
}

func (t *TestTransport) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.Block != nil {
		close(t.Block)
		t.Block = nil
	}
}
