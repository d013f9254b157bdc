package eventbus

import (
	"errors"
	"testing"

	"rpgbase-go/core/event"
)

// slime embeds a Listener the way domain receivers do.
type slime struct {
	*Listener
	name string
	hp   int
}

func newSlime(name string, types TypeHandlerSource) *slime {
	s := &slime{name: name, hp: 10}
	s.Listener = NewListener(s, "slime", types)
	return s
}

func TestListener_OwnerIsSelf(t *testing.T) {
	bus := New()
	s := newSlime("blue", bus)

	var self Receiver
	_ = bus.SubscribeClass("slime", "hit", func(r Receiver, data event.Data) error {
		self = r
		amount, _ := data.Int("amount")
		r.(*slime).hp -= amount
		return nil
	})

	bus.Enqueue("hit", event.Data{"amount": 3, event.KeyTarget: s})
	if err := bus.DrainAll(); err != nil {
		t.Fatalf("DrainAll() error = %v", err)
	}

	if self != s {
		t.Errorf("type handler self = %v, want the slime", self)
	}
	if s.hp != 7 {
		t.Errorf("hp = %d, want 7", s.hp)
	}
	if s.Owner() != s {
		t.Error("Owner() should be the embedding value")
	}
	if s.TypeTag() != "slime" {
		t.Errorf("TypeTag() = %v, want slime", s.TypeTag())
	}
}

func TestListener_AllInstanceHandlersRunAfterStop(t *testing.T) {
	bus := New()
	var ran []int
	typeRan := false

	_ = bus.SubscribeClass("slime", "hit", func(Receiver, event.Data) error {
		typeRan = true
		return nil
	})

	s := newSlime("green", bus)
	_ = s.AddHandler("hit", func(Receiver, event.Data) (Propagation, error) {
		ran = append(ran, 1)
		return StopPropagation, nil
	})
	_ = s.AddHandler("hit", func(Receiver, event.Data) (Propagation, error) {
		ran = append(ran, 2)
		return Continue, nil
	})

	if err := s.Dispatch("hit", nil); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	if len(ran) != 2 {
		t.Errorf("instance handlers ran = %v, want [1 2]", ran)
	}
	if typeRan {
		t.Error("type handler should be skipped after StopPropagation")
	}
}

func TestListener_InstanceBeforeType(t *testing.T) {
	bus := New()
	var order []string

	_ = bus.SubscribeClass("slime", "hit", func(Receiver, event.Data) error {
		order = append(order, "type")
		return nil
	})
	s := newSlime("red", bus)
	_ = s.AddHandler("hit", Observe(func(Receiver, event.Data) {
		order = append(order, "instance")
	}))

	_ = s.Dispatch("hit", nil)

	if len(order) != 2 || order[0] != "instance" || order[1] != "type" {
		t.Errorf("order = %v, want [instance type]", order)
	}
}

func TestListener_NoTypeSource(t *testing.T) {
	l := NewListener(nil, "orphan", nil)
	if err := l.Dispatch("hit", nil); err != nil {
		t.Errorf("Dispatch() error = %v", err)
	}
	if l.Owner() != l {
		t.Error("Owner() should default to the listener itself")
	}
}

func TestListener_InstanceErrorAbortsDelivery(t *testing.T) {
	bus := New()
	boom := errors.New("boom")
	secondRan := false
	typeRan := false

	_ = bus.SubscribeClass("slime", "hit", func(Receiver, event.Data) error {
		typeRan = true
		return nil
	})
	s := newSlime("yellow", bus)
	_ = s.AddHandler("hit", func(Receiver, event.Data) (Propagation, error) {
		return Continue, boom
	})
	_ = s.AddHandler("hit", Observe(func(Receiver, event.Data) {
		secondRan = true
	}))

	err := s.Dispatch("hit", nil)
	var he *HandlerError
	if !errors.As(err, &he) {
		t.Fatalf("Dispatch() error = %v, want *HandlerError", err)
	}
	if he.Phase != PhaseInstance || he.Index != 0 || he.Receiver != s {
		t.Errorf("HandlerError = %+v", he)
	}
	if secondRan || typeRan {
		t.Error("Handlers after a failure should not run")
	}
}

func TestListener_TypeErrorReported(t *testing.T) {
	bus := New()
	boom := errors.New("boom")
	_ = bus.SubscribeClass("slime", "hit", func(Receiver, event.Data) error { return nil })
	_ = bus.SubscribeClass("slime", "hit", func(Receiver, event.Data) error { return boom })

	s := newSlime("purple", bus)
	_ = bus.Subscribe("hit", s)
	bus.Enqueue("hit", nil)

	err := bus.DrainAll()
	var he *HandlerError
	if !errors.As(err, &he) {
		t.Fatalf("DrainAll() error = %v, want *HandlerError", err)
	}
	if he.Phase != PhaseType || he.Index != 1 {
		t.Errorf("Phase = %v Index = %d, want type 1", he.Phase, he.Index)
	}
	if !errors.Is(err, boom) {
		t.Error("HandlerError should unwrap to the handler error")
	}
}

func TestListener_SubscribeToAndDetach(t *testing.T) {
	bus := New()
	s := newSlime("teal", bus)
	calls := 0
	count := Observe(func(Receiver, event.Data) { calls++ })

	if err := s.SubscribeTo(bus, "hit", count); err != nil {
		t.Fatalf("SubscribeTo() error = %v", err)
	}
	if err := s.SubscribeTo(bus, "heal", count); err != nil {
		t.Fatalf("SubscribeTo() error = %v", err)
	}
	if err := s.SubscribeTo(bus, "hit", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("SubscribeTo(nil) error = %v, want ErrNilHandler", err)
	}

	subs := bus.Subscribers("hit")
	if len(subs) != 1 || subs[0] != s {
		t.Fatalf("Subscribers(hit) = %v, want the slime", subs)
	}

	bus.Enqueue("hit", nil)
	bus.Enqueue("heal", nil)
	_ = bus.DrainAll()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}

	s.Detach(bus)
	if len(bus.Subscribers("hit")) != 0 || len(bus.Subscribers("heal")) != 0 {
		t.Error("Detach should remove every subscription made through SubscribeTo")
	}
	if s.HandlerCount("hit") != 1 {
		t.Errorf("HandlerCount(hit) = %d, want 1", s.HandlerCount("hit"))
	}
}

func TestListener_AddHandlerNil(t *testing.T) {
	l := NewListener(nil, "", nil)
	if err := l.AddHandler("hit", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("AddHandler(nil) error = %v, want ErrNilHandler", err)
	}
}
