package engine

import "fmt"

// State is the engine's position in its read cycle.
type State int32

const (
	StateIdle State = iota
	StateReading
	StateBackoff
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateBackoff:
		return "backoff"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
