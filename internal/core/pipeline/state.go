package pipeline

import (
	"errors"
	"fmt"
)

// State is a step of the per-entry state machine
type State int

const (
	StatePending State = iota
	StateTitleResolved
	StateLinkResolved
	StateDownloaded
	StateConverted
	StateMetadataResolved
	StateTagged
	StateMoved
	StateCleanedUp
	StateSkipped
	StateFailed
)

var stateNames = [...]string{
	StatePending:          "pending",
	StateTitleResolved:    "title-resolved",
	StateLinkResolved:     "link-resolved",
	StateDownloaded:       "downloaded",
	StateConverted:        "converted",
	StateMetadataResolved: "metadata-resolved",
	StateTagged:           "tagged",
	StateMoved:            "moved",
	StateCleanedUp:        "cleaned-up",
	StateSkipped:          "skipped",
	StateFailed:           "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == StateCleanedUp || s == StateSkipped || s == StateFailed
}

// ErrInvalidTransition is returned for a transition the state machine does not allow
var ErrInvalidTransition = errors.New("invalid state transition")

// forward lists the successors of each state besides Failed
var forward = map[State][]State{
	StatePending:          {StateTitleResolved},
	StateTitleResolved:    {StateLinkResolved, StateSkipped},
	StateLinkResolved:     {StateDownloaded, StateSkipped},
	StateDownloaded:       {StateConverted},
	StateConverted:        {StateMetadataResolved},
	StateMetadataResolved: {StateTagged, StateMoved}, // Moved directly when metadata was abandoned
	StateTagged:           {StateMoved},
	StateMoved:            {StateCleanedUp},
}

// Transition validates from -> to. Failed is reachable from every non-terminal state.
func Transition(from, to State) (State, error) {
	if from.Terminal() {
		return from, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, from)
	}
	if to == StateFailed {
		return to, nil
	}
	for _, next := range forward[from] {
		if next == to {
			return to, nil
		}
	}
	return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
