package device

// State is the lifecycle position of a device handle.
type State int

const (
	StateUnregistered State = iota
	StateRegistered
	StateActive
	StateStale
)

func (s State) String() string {
	switch s {
	case StateRegistered:
		return "registered"
	case StateActive:
		return "active"
	case StateStale:
		return "stale"
	default:
		return "unregistered"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Available reports whether observers should treat the device as live.
func (s State) Available() bool {
	return s == StateRegistered || s == StateActive
}
