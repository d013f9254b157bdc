package trigger

import "testing"

func logTrigger(name, on string) *Trigger {
	return &Trigger{Name: name, On: on, Actions: []Action{{Type: ActionTypeLog, Message: name}}}
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(logTrigger("b", "hit"))
	r.Register(logTrigger("a", "hit"))
	r.Register(logTrigger("c", "heal"))

	if r.Count() != 3 {
		t.Errorf("Count() = %d, want 3", r.Count())
	}
	if r.Get("a") == nil {
		t.Error("Get(a) returned nil")
	}
	if r.Get("missing") != nil {
		t.Error("Get(missing) should return nil")
	}

	names := r.List()
	if len(names) != 3 || names[0] != "a" || names[2] != "c" {
		t.Errorf("List() = %v, want [a b c]", names)
	}

	// same name replaces
	r.Register(logTrigger("a", "heal"))
	if r.Count() != 3 {
		t.Errorf("Count() after replace = %d, want 3", r.Count())
	}
	if r.Get("a").On != "heal" {
		t.Errorf("Get(a).On = %s, want heal", r.Get("a").On)
	}
}

func TestRegistry_ForEvent(t *testing.T) {
	r := NewRegistry()
	r.Register(logTrigger("z-hit", "hit"))
	r.Register(logTrigger("a-hit", "hit"))
	r.Register(logTrigger("heal", "heal"))

	got := r.ForEvent("hit")
	if len(got) != 2 {
		t.Fatalf("ForEvent(hit) len = %d, want 2", len(got))
	}
	if got[0].Name != "a-hit" || got[1].Name != "z-hit" {
		t.Errorf("ForEvent(hit) = [%s %s], want sorted by name", got[0].Name, got[1].Name)
	}
	if len(r.ForEvent("none")) != 0 {
		t.Error("ForEvent(none) should be empty")
	}

	events := r.Events()
	if len(events) != 2 || events[0] != "heal" || events[1] != "hit" {
		t.Errorf("Events() = %v, want [heal hit]", events)
	}
}

func TestRegistry_ReplaceAndRemove(t *testing.T) {
	r := NewRegistry()
	r.Register(logTrigger("old", "hit"))

	r.Replace([]*Trigger{logTrigger("new-1", "hit"), logTrigger("new-2", "heal")})
	if r.Get("old") != nil {
		t.Error("Replace() should drop old triggers")
	}
	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}

	r.Remove("new-1")
	r.Remove("unknown")
	if r.Count() != 1 {
		t.Errorf("Count() after Remove = %d, want 1", r.Count())
	}
}
