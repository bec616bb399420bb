package service

// State is the lifecycle position of a Service.
//
//	Unstarted -> Starting -> Ready -> Stopping -> Stopped
//	             Starting -> Failed -> Stopping -> Stopped
//
// Stop is accepted from every state, and Start from Stopped launches again.
type State int32

const (
	StateUnstarted State = iota
	StateStarting
	StateReady
	StateFailed
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateStarting:
		return "starting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
