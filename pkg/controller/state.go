package controller

// State is the preparation state of a Controller.
type State int

const (
	// StateIdle means Render has not been called.
	StateIdle State = iota
	// StatePreparing means the latest preparation has not finished.
	StatePreparing
	// StateReady means the latest preparation installed its hooks.
	StateReady
	// StateFailed means the latest preparation failed. Hooks from an earlier
	// successful preparation, if any, stay installed.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreparing:
		return "preparing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
