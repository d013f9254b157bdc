// Package eventbus provides the in-process event queue, the subscription
// registries and the dispatch algorithm.
//
// Producers publish named events onto the queue with Enqueue (tail) or
// Prioritize (head). DrainAll pops events in order and delivers each one to
// the receivers subscribed to its name, then to the event's source and target
// if they were not already among the subscribers. Each receiver runs its own
// instance handlers and, unless one of them stopped propagation, the handlers
// registered for its type.
//
// Dispatch is synchronous and runs on the caller's goroutine.
package eventbus

import "rpgbase-go/core/event"

// Receiver is anything the bus can deliver an event to.
// Receivers are compared by identity, so implementations should be pointers.
type Receiver interface {
	// Dispatch runs the receiver's handlers for one delivery of eventName.
	Dispatch(eventName string, data event.Data) error
}

// Propagation tells a receiver whether to run its type-level handlers after
// its instance handlers.
type Propagation int

const (
	// Continue lets type-level handlers run for this delivery.
	Continue Propagation = iota
	// StopPropagation skips type-level handlers for this receiver and this delivery only.
	StopPropagation
)

// String returns a human-readable propagation name.
func (p Propagation) String() string {
	switch p {
	case Continue:
		return "continue"
	case StopPropagation:
		return "stop"
	default:
		return "unknown"
	}
}

// TypeTag identifies a receiver type in the type-level registry.
type TypeTag string

// Handler is an instance handler. self is the receiver the event is delivered to.
type Handler func(self Receiver, data event.Data) (Propagation, error)

// TypeHandler is a handler shared by every receiver of one TypeTag.
type TypeHandler func(self Receiver, data event.Data) error

// Observe adapts a callback that never stops propagation and never fails.
func Observe(fn func(self Receiver, data event.Data)) Handler {
	return func(self Receiver, data event.Data) (Propagation, error) {
		fn(self, data)
		return Continue, nil
	}
}

// Publisher is the capability producers depend on.
type Publisher interface {
	// Enqueue appends an event to the tail of the queue.
	Enqueue(eventName string, data event.Data)

	// Prioritize inserts an event at the head of the queue so it is processed next.
	Prioritize(eventName string, data event.Data)
}

// Subscriber is the capability receivers use to register interest in event names.
type Subscriber interface {
	// Subscribe adds r to the subscribers of eventName. Subscribing twice is a no-op.
	Subscribe(eventName string, r Receiver) error

	// Unsubscribe removes r from the subscribers of eventName.
	// Unknown names or receivers are ignored.
	Unsubscribe(eventName string, r Receiver)
}

// TypeHandlerSource resolves the type-level handlers for a receiver type.
type TypeHandlerSource interface {
	TypeHandlers(tag TypeTag, eventName string) []TypeHandler
}

// TypeRegistry manages handlers shared by all receivers of a type.
type TypeRegistry interface {
	TypeHandlerSource

	// SubscribeClass appends fn to the handlers for (tag, eventName).
	SubscribeClass(tag TypeTag, eventName string, fn TypeHandler) error

	// UnsubscribeClass clears every handler registered for (tag, eventName).
	UnsubscribeClass(tag TypeTag, eventName string)
}

// EventBus is the full bus API.
type EventBus interface {
	Publisher
	Subscriber
	TypeRegistry

	// IsEmpty reports whether the queue holds no events.
	IsEmpty() bool

	// ProcessNext pops and dispatches the head event. It is a no-op on an empty queue.
	ProcessNext() error

	// DrainAll processes events until the queue is empty, including events
	// published by handlers during the drain.
	DrainAll() error
}

// Publish enqueues a prebuilt event on p.
func Publish(p Publisher, e event.Event) {
	p.Enqueue(e.Name, e.Data)
}

// Interrupt prioritizes a prebuilt event on p.
func Interrupt(p Publisher, e event.Event) {
	p.Prioritize(e.Name, e.Data)
}
