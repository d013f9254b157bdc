package trigger

import (
	"errors"
	"testing"

	"rpgbase-go/core/event"
)

func TestCondition_Evaluate(t *testing.T) {
	data := event.Data{
		"amount": 5,
		"zero":   0,
		"ratio":  2.9,
		"whole":  4.0,
		"label":  "five",
	}

	tests := []struct {
		name      string
		condition *Condition
		expected  bool
	}{
		// eq tests
		{"eq true", &Condition{Op: OpEq, Key: "amount", Value: 5}, true},
		{"eq false", &Condition{Op: OpEq, Key: "amount", Value: 3}, false},

		// neq tests
		{"neq true", &Condition{Op: OpNeq, Key: "amount", Value: 3}, true},
		{"neq false", &Condition{Op: OpNeq, Key: "amount", Value: 5}, false},

		// gt tests
		{"gt true", &Condition{Op: OpGt, Key: "amount", Value: 3}, true},
		{"gt false", &Condition{Op: OpGt, Key: "amount", Value: 5}, false},

		// gte tests
		{"gte true equal", &Condition{Op: OpGte, Key: "amount", Value: 5}, true},
		{"gte false", &Condition{Op: OpGte, Key: "amount", Value: 6}, false},

		// lt tests
		{"lt true", &Condition{Op: OpLt, Key: "amount", Value: 10}, true},
		{"lt false", &Condition{Op: OpLt, Key: "amount", Value: 5}, false},

		// lte tests
		{"lte true equal", &Condition{Op: OpLte, Key: "amount", Value: 5}, true},
		{"lte false", &Condition{Op: OpLte, Key: "amount", Value: 3}, false},

		// whole floats compare, fractions and strings never match
		{"whole float", &Condition{Op: OpEq, Key: "whole", Value: 4}, true},
		{"fraction eq", &Condition{Op: OpEq, Key: "ratio", Value: 2}, false},
		{"fraction neq", &Condition{Op: OpNeq, Key: "ratio", Value: 2}, false},
		{"fraction gte", &Condition{Op: OpGte, Key: "ratio", Value: 2}, false},
		{"string key eq 0", &Condition{Op: OpEq, Key: "label", Value: 0}, false},

		// missing keys default to 0
		{"missing key eq 0", &Condition{Op: OpEq, Key: "missing", Value: 0}, true},
		{"missing key gt 0", &Condition{Op: OpGt, Key: "missing", Value: 0}, false},

		// exists
		{"exists true", &Condition{Op: OpExists, Key: "zero"}, true},
		{"exists false", &Condition{Op: OpExists, Key: "missing"}, false},

		// invalid operator
		{"invalid op", &Condition{Op: "invalid", Key: "amount", Value: 5}, false},

		// nil condition
		{"nil condition", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.condition.Evaluate(data); got != tt.expected {
				t.Errorf("Evaluate() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTrigger_Matches(t *testing.T) {
	tr := &Trigger{
		Name: "big-hit",
		On:   event.NameHit,
		Conditions: []Condition{
			{Op: OpExists, Key: event.KeyTarget},
			{Op: OpGte, Key: event.KeyAmount, Value: 10},
		},
	}

	if !tr.Matches(event.Data{event.KeyTarget: "bob", event.KeyAmount: 12}) {
		t.Error("Matches() = false, want true")
	}
	if tr.Matches(event.Data{event.KeyAmount: 12}) {
		t.Error("Matches() without target = true, want false")
	}
	if tr.Matches(event.Data{event.KeyTarget: "bob", event.KeyAmount: 9}) {
		t.Error("Matches() with small amount = true, want false")
	}

	empty := &Trigger{Name: "any", On: event.NameHit}
	if !empty.Matches(nil) {
		t.Error("Trigger without conditions should always match")
	}
}

func TestTrigger_Validate(t *testing.T) {
	logAction := []Action{{Type: ActionTypeLog, Message: "hi"}}

	tests := []struct {
		name    string
		trigger Trigger
		wantErr bool
	}{
		{"valid", Trigger{Name: "t", On: "hit", Actions: logAction}, false},
		{"missing name", Trigger{On: "hit", Actions: logAction}, true},
		{"missing event", Trigger{Name: "t", Actions: logAction}, true},
		{"no actions", Trigger{Name: "t", On: "hit"}, true},
		{"bad op", Trigger{Name: "t", On: "hit", Actions: logAction, Conditions: []Condition{{Op: "between"}}}, true},
		{"enqueue without event", Trigger{Name: "t", On: "hit", Actions: []Action{{Type: ActionTypeEnqueue}}}, true},
		{"lua without script", Trigger{Name: "t", On: "hit", Actions: []Action{{Type: ActionTypeLua, Script: "  "}}}, true},
		{"unknown action", Trigger{Name: "t", On: "hit", Actions: []Action{{Type: "teleport"}}}, true},
		{"prioritize", Trigger{Name: "t", On: "hit", Actions: []Action{{Type: ActionTypePrioritize, Event: "counter"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trigger.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTrigger) {
				t.Errorf("Validate() error = %v, want ErrInvalidTrigger", err)
			}
		})
	}
}

func TestAction_Payload(t *testing.T) {
	a := &Action{
		Type:  ActionTypeEnqueue,
		Event: "counter",
		Data: map[string]any{
			event.KeySource: "$target",
			event.KeyTarget: "$source",
			"amount":        3,
			"missing":       "$nope",
			"literal":       "$",
		},
	}

	out := a.Payload(event.Data{event.KeySource: "orc", event.KeyTarget: "zaan"})

	if out.Source() != "zaan" {
		t.Errorf("source = %v, want zaan", out.Source())
	}
	if out.Target() != "orc" {
		t.Errorf("target = %v, want orc", out.Target())
	}
	if n, _ := out.Int("amount"); n != 3 {
		t.Errorf("amount = %d, want 3", n)
	}
	if v, ok := out["missing"]; !ok || v != nil {
		t.Errorf("missing = %v, %v, want nil, true", v, ok)
	}
	if out["literal"] != "$" {
		t.Errorf("literal = %v, want $", out["literal"])
	}

	if (&Action{Type: ActionTypeEnqueue, Event: "x"}).Payload(event.Data{"a": 1}) != nil {
		t.Error("Payload() without data should be nil")
	}
}
