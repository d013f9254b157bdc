package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"rpgbase-go/core/event"
	"rpgbase-go/core/eventbus"
)

type namedReceiver struct {
	name string
}

func (r *namedReceiver) Dispatch(string, event.Data) error { return nil }
func (r *namedReceiver) String() string                    { return r.name }

func TestEventLogger_LogsSubscribedEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	bus := eventbus.New(eventbus.WithLogger(logger))
	el := NewEventLogger(logger, slog.LevelInfo, bus)
	if err := el.Attach(bus, "hit", "heal"); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}

	bob := &namedReceiver{name: "bob"}
	bus.Enqueue("hit", event.Data{"amount": 5, event.KeyTarget: bob})
	bus.Enqueue("ignored", event.Data{"amount": 1})
	if err := bus.DrainAll(); err != nil {
		t.Fatalf("DrainAll() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "event=hit") {
		t.Errorf("log output missing event=hit: %q", out)
	}
	if !strings.Contains(out, "amount=5") || !strings.Contains(out, "target=bob") {
		t.Errorf("log output missing payload: %q", out)
	}
	if strings.Contains(out, "event=ignored") {
		t.Errorf("unsubscribed event was logged: %q", out)
	}
}

func TestEventLogger_TargetDedup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	bus := eventbus.New()
	el := NewEventLogger(logger, slog.LevelInfo, bus)
	_ = el.Attach(bus, "hit")

	bus.Enqueue("hit", event.Data{event.KeyTarget: el})
	_ = bus.DrainAll()

	if got := strings.Count(buf.String(), "event=hit"); got != 1 {
		t.Errorf("logged %d times, want 1", got)
	}
}

func TestEventLogger_Detach(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	bus := eventbus.New()
	el := NewEventLogger(logger, slog.LevelInfo, nil)
	_ = el.Attach(bus, "hit")
	el.Detach(bus)

	bus.Enqueue("hit", nil)
	_ = bus.DrainAll()

	if buf.Len() != 0 {
		t.Errorf("detached logger wrote %q", buf.String())
	}
	if el.String() != "event-logger" {
		t.Errorf("String() = %v, want event-logger", el.String())
	}
}
