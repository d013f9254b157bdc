package logging

import (
	"context"
	"fmt"
	"log/slog"

	"rpgbase-go/core/event"
	"rpgbase-go/core/eventbus"
)

// EventLoggerTag is the type tag of EventLogger receivers.
const EventLoggerTag eventbus.TypeTag = "event-logger"

// EventLogger is a bus receiver that writes every event it is subscribed to.
type EventLogger struct {
	*eventbus.Listener
	logger *slog.Logger
	level  slog.Level
}

// NewEventLogger creates an EventLogger that logs at level.
// types may be nil.
func NewEventLogger(logger *slog.Logger, level slog.Level, types eventbus.TypeHandlerSource) *EventLogger {
	if logger == nil {
		logger = L()
	}
	el := &EventLogger{
		logger: logger.With("component", "event-logger"),
		level:  level,
	}
	el.Listener = eventbus.NewListener(el, EventLoggerTag, types)
	return el
}

// Attach subscribes the logger to each of names on bus.
func (el *EventLogger) Attach(bus eventbus.Subscriber, names ...string) error {
	for _, name := range names {
		if err := el.SubscribeTo(bus, name, el.handlerFor(name)); err != nil {
			return fmt.Errorf("failed to attach event logger to %q: %w", name, err)
		}
	}
	return nil
}

func (el *EventLogger) handlerFor(name string) eventbus.Handler {
	return func(_ eventbus.Receiver, data event.Data) (eventbus.Propagation, error) {
		args := append([]any{"event", name}, el.attrs(data)...)
		el.logger.Log(context.Background(), el.level, "Event", args...)
		return eventbus.Continue, nil
	}
}

func (el *EventLogger) attrs(data event.Data) []any {
	args := make([]any, 0, len(data)*2)
	for _, key := range data.Keys() {
		args = append(args, key, describeValue(data[key]))
	}
	return args
}

// String implements fmt.Stringer.
func (el *EventLogger) String() string {
	return string(EventLoggerTag)
}

func describeValue(v any) any {
	switch x := v.(type) {
	case fmt.Stringer:
		return x.String()
	case eventbus.Receiver:
		return fmt.Sprintf("%T", x)
	default:
		return v
	}
}
