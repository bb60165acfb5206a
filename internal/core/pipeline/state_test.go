package pipeline

import (
	"errors"
	"testing"
)

func TestTransitionHappyPath(t *testing.T) {
	path := []State{
		StatePending, StateTitleResolved, StateLinkResolved, StateDownloaded, StateConverted,
		StateMetadataResolved, StateTagged, StateMoved, StateCleanedUp,
	}
	for i := 1; i < len(path); i++ {
		got, err := Transition(path[i-1], path[i])
		if err != nil {
			t.Fatalf("%s -> %s rejected: %v", path[i-1], path[i], err)
		}
		if got != path[i] {
			t.Errorf("expected %s, got %s", path[i], got)
		}
	}
}

func TestTransitionRules(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{StateTitleResolved, StateSkipped, true},
		{StateLinkResolved, StateSkipped, true},
		{StateMetadataResolved, StateMoved, true},
		{StateDownloaded, StateFailed, true},
		{StatePending, StateFailed, true},
		{StatePending, StateDownloaded, false},
		{StateConverted, StateTagged, false},
		{StateDownloaded, StateSkipped, false},
		{StateTagged, StateMetadataResolved, false},
		{StateCleanedUp, StateFailed, false},
		{StateSkipped, StateDownloaded, false},
		{StateFailed, StateFailed, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			got, err := Transition(tt.from, tt.to)
			if tt.ok {
				if err != nil || got != tt.to {
					t.Errorf("expected allowed, got %s, %v", got, err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}
			if got != tt.from {
				t.Errorf("rejected transition must keep state %s, got %s", tt.from, got)
			}
		})
	}
}

func TestStateTerminal(t *testing.T) {
	for _, s := range []State{StateCleanedUp, StateSkipped, StateFailed} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if StateMoved.Terminal() {
		t.Error("moved is not terminal")
	}
	if State(99).String() != "state(99)" {
		t.Errorf("unexpected name %s", State(99))
	}
}
