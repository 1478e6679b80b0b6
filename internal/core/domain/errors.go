package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCommandTimedOut = errors.New("command timed out")
	ErrActorTimeout    = errors.New("actor did not answer in time")
)

// TransportError wraps a failure reported by the transport collaborator.
// It is propagated, never produced, by the device layer.
type TransportError struct {
	DeviceID string
	Op       string
	Err      error
}

func (e *TransportError) Error() string {
	if e.DeviceID == "" {
		return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.DeviceID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
