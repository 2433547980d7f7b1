package behaviour

import "fmt"

// State is the lifecycle state of a behaviour. States are totally ordered.
type State int32

const (
	StateCreated State = iota
	StateValid
	StateReady
	StateConnected
)

var stateNames = [...]string{"Created", "Valid", "Ready", "Connected"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// ParseState parses the String form of a state.
func ParseState(s string) (State, error) {
	for i, name := range stateNames {
		if name == s {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("unknown behaviour state %q", s)
}
