package track

// State is the Tracker lifecycle of spec.md §4.3:
// Acquired -> PullIn (500ms) -> Locked -> {Locked | Unlocked}.
type State int

const (
	StateAcquired State = iota
	StatePullIn
	StateLocked
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateAcquired:
		return "ACQUIRED"
	case StatePullIn:
		return "PULL_IN"
	case StateLocked:
		return "LOCKED"
	case StateUnlocked:
		return "UNLOCKED"
	default:
		return "UNKNOWN"
	}
}
