package session

// State is a step in a session's life
type State int

const (
	StateIdle State = iota
	StateSpawning
	StateFeeding
	StateWaiting
	StateFinalizing
	StateHandoff
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSpawning:
		return "spawning"
	case StateFeeding:
		return "feeding"
	case StateWaiting:
		return "waiting"
	case StateFinalizing:
		return "finalizing"
	case StateHandoff:
		return "handoff"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
