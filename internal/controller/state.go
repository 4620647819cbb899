package controller

import "fmt"

// State is the submission lifecycle phase.
type State int

const (
	Idle State = iota
	Validating
	Pending
	Success
)

var stateNames = [...]string{"idle", "validating", "pending", "success"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// InFlight reports whether a submission is being simulated.
func (s State) InFlight() bool { return s == Pending || s == Success }

// transitions lists the only legal edges.  Validating → Idle is the invalid
// submit; Success → Idle is the timed reset.
var transitions = map[State][]State{
	Idle:       {Validating},
	Validating: {Idle, Pending},
	Pending:    {Success},
	Success:    {Idle},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Trigger is the user interaction that reached a field.
type Trigger int

const (
	Blur Trigger = iota + 1
	Input
	Change
)

var triggerNames = map[Trigger]string{Blur: "blur", Input: "input", Change: "change"}

func (t Trigger) String() string {
	if n, ok := triggerNames[t]; ok {
		return n
	}
	return fmt.Sprintf("trigger(%d)", int(t))
}

// ParseTrigger maps a DOM event name to a Trigger.
func ParseTrigger(s string) (Trigger, error) {
	for t, n := range triggerNames {
		if n == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTrigger, s)
}
