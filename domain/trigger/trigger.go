// Package trigger defines data-driven reactions to bus events.
// A trigger names the event it listens to, the payload conditions that must
// hold, and the actions to run when they do.
package trigger

import (
	"errors"
	"fmt"
	"strings"

	"rpgbase-go/core/event"
)

// Common errors for trigger definitions.
var (
	ErrInvalidTrigger  = errors.New("invalid trigger")
	ErrTriggerNotFound = errors.New("trigger not found")
	ErrNoScriptRunner  = errors.New("lua action without a script runner")
)

// Trigger is a named reaction to one event.
type Trigger struct {
	// ID is the storage identifier, empty for triggers loaded from files
	ID string

	// Name is the unique identifier for this trigger
	Name string

	Description string

	// On is the event name the trigger listens to
	On string

	// Conditions must all hold for the actions to run
	Conditions []Condition

	// Actions run in order when the trigger fires
	Actions []Action

	// Once disables the trigger after it fires the first time
	Once bool

	// Stop skips the remaining triggers for the same delivery after this one fires
	Stop bool
}

// Validate checks the trigger for missing fields and unknown operators.
func (t *Trigger) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTrigger)
	}
	if t.On == "" {
		return fmt.Errorf("%w: %s has no event", ErrInvalidTrigger, t.Name)
	}
	for i := range t.Conditions {
		if !t.Conditions[i].Op.valid() {
			return fmt.Errorf("%w: %s condition %d has unknown op %q", ErrInvalidTrigger, t.Name, i, t.Conditions[i].Op)
		}
	}
	if len(t.Actions) == 0 {
		return fmt.Errorf("%w: %s has no actions", ErrInvalidTrigger, t.Name)
	}
	for i := range t.Actions {
		if err := t.Actions[i].validate(); err != nil {
			return fmt.Errorf("%w: %s action %d: %v", ErrInvalidTrigger, t.Name, i, err)
		}
	}
	return nil
}

// Matches returns true if every condition holds for data.
func (t *Trigger) Matches(data event.Data) bool {
	for i := range t.Conditions {
		if !t.Conditions[i].Evaluate(data) {
			return false
		}
	}
	return true
}

// Op is a condition operator.
type Op string

const (
	OpEq     Op = "eq"
	OpNeq    Op = "neq"
	OpGt     Op = "gt"
	OpGte    Op = "gte"
	OpLt     Op = "lt"
	OpLte    Op = "lte"
	OpExists Op = "exists"
)

func (o Op) valid() bool {
	switch o {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpExists:
		return true
	}
	return false
}

// Condition compares one payload key against a value.
type Condition struct {
	// Op is the comparison operator (eq, neq, gt, gte, lt, lte, exists)
	Op Op

	// Key is the payload key to check
	Key string

	// Value is the value to compare against, unused by exists
	Value int
}

// Evaluate checks if the condition is satisfied by data.
// Numeric comparisons treat a missing key as 0. A value that is present but
// not a whole number fails every comparison.
func (c *Condition) Evaluate(data event.Data) bool {
	if c == nil {
		return false
	}
	if c.Op == OpExists {
		return data.Has(c.Key)
	}

	value, ok := data.Int(c.Key)
	if !ok {
		if data[c.Key] != nil {
			return false
		}
		value = 0
	}

	switch c.Op {
	case OpEq:
		return value == c.Value
	case OpNeq:
		return value != c.Value
	case OpGt:
		return value > c.Value
	case OpGte:
		return value >= c.Value
	case OpLt:
		return value < c.Value
	case OpLte:
		return value <= c.Value
	default:
		return false
	}
}

// ActionType represents the type of action.
type ActionType string

const (
	ActionTypeEnqueue    ActionType = "enqueue"
	ActionTypePrioritize ActionType = "prioritize"
	ActionTypeLua        ActionType = "lua"
	ActionTypeLog        ActionType = "log"
)

// Action is one step run when a trigger fires.
type Action struct {
	Type ActionType

	// Event is the name published by enqueue and prioritize
	Event string

	// Data is the payload published by enqueue and prioritize.
	// String values starting with $ are copied from the incoming payload.
	Data map[string]any

	// Script is the Lua source run by lua actions
	Script string

	// Message is written by log actions
	Message string
}

func (a *Action) validate() error {
	switch a.Type {
	case ActionTypeEnqueue, ActionTypePrioritize:
		if a.Event == "" {
			return fmt.Errorf("%s needs an event", a.Type)
		}
	case ActionTypeLua:
		if strings.TrimSpace(a.Script) == "" {
			return errors.New("lua needs a script")
		}
	case ActionTypeLog:
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}

// Payload builds the data to publish, resolving $key references against in.
// A reference to a missing key resolves to nil.
func (a *Action) Payload(in event.Data) event.Data {
	if len(a.Data) == 0 {
		return nil
	}
	out := make(event.Data, len(a.Data))
	for k, v := range a.Data {
		if s, ok := v.(string); ok && strings.HasPrefix(s, "$") && len(s) > 1 {
			out[k] = in[s[1:]]
			continue
		}
		out[k] = v
	}
	return out
}
