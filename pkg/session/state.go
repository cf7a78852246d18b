package session

// State is the lifecycle state of a tracking session.
// Transitions are strictly Idle → Starting → Active → Stopping → Idle,
// with Starting → Idle when the service refuses to start.
type State int

const (
	Idle State = iota
	Starting
	Active
	Stopping
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Active:
		return "active"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
