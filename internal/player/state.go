package player

// State is the playback state of the current session.
type State int

const (
	Idle State = iota
	AwaitingSurface
	Preparing
	Loaded
	Started
	Paused
	Failed
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingSurface:
		return "awaiting-surface"
	case Preparing:
		return "preparing"
	case Loaded:
		return "loaded"
	case Started:
		return "started"
	case Paused:
		return "paused"
	case Failed:
		return "failed"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session is finished for its current item.
func (s State) Terminal() bool {
	return s == Failed || s == Completed
}

// MarshalText lets State appear by name in JSON status output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
