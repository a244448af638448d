// File: notify/state.go
// Author: momentics <momentics@gmail.com>

package notify

// State is the lifecycle stage of a Pump.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateExitRequested
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExitRequested:
		return "exit-requested"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
