// Package state defines the battler combat state machine.
package state

import "fmt"

// CombatState represents the state of a battler during a battle.
type CombatState int

const (
	// StateReady is the resting state between turns.
	StateReady CombatState = iota
	// StateActing indicates the battler is executing its turn.
	StateActing
	// StateGuarding indicates the battler is covering an ally until its next turn.
	StateGuarding
	// StateKnockedOut indicates the battler has no hit points left.
	StateKnockedOut
)

// String returns the string representation of the state.
func (s CombatState) String() string {
	switch s {
	case StateReady:
		return "Ready"
	case StateActing:
		return "Acting"
	case StateGuarding:
		return "Guarding"
	case StateKnockedOut:
		return "KnockedOut"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// validTransitions defines the allowed state transitions.
// Key is the current state, value is a list of valid target states.
var validTransitions = map[CombatState][]CombatState{
	StateReady:      {StateActing, StateGuarding, StateKnockedOut},
	StateActing:     {StateReady, StateGuarding, StateKnockedOut},
	StateGuarding:   {StateReady, StateActing, StateKnockedOut},
	StateKnockedOut: {}, // Terminal state, no transitions allowed
}

// CanTransitionTo checks if transitioning from the current state to the target state is valid.
func (s CombatState) CanTransitionTo(target CombatState) bool {
	allowed, ok := validTransitions[s]
	if !ok {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// ValidTransitions returns the list of valid target states from the current state.
func (s CombatState) ValidTransitions() []CombatState {
	return validTransitions[s]
}

// IsTerminal returns true if the state is a terminal state (no further transitions).
func (s CombatState) IsTerminal() bool {
	return s == StateKnockedOut
}

// IsStanding returns true if the battler can still act or be targeted.
func (s CombatState) IsStanding() bool {
	return s != StateKnockedOut
}

// CanAct returns true if the battler may take a turn in this state.
func (s CombatState) CanAct() bool {
	return s == StateReady || s == StateGuarding
}

// CanCover returns true if the battler may take hits aimed at an ally.
func (s CombatState) CanCover() bool {
	return s == StateGuarding
}

// TransitionError represents an invalid state transition attempt.
type TransitionError struct {
	From   CombatState
	To     CombatState
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid state transition from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// NewTransitionError creates a new TransitionError.
func NewTransitionError(from, to CombatState, reason string) *TransitionError {
	return &TransitionError{From: from, To: to, Reason: reason}
}
