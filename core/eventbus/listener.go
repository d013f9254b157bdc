package eventbus

import (
	"sync"

	"rpgbase-go/core/event"
)

// Listener implements the receiver capability: per-instance handlers plus a
// link to the type-level handlers of its TypeTag.
//
// Domain types embed a *Listener built with themselves as owner, so the
// owner is what gets subscribed, compared and passed to handlers as self.
type Listener struct {
	owner Receiver
	tag   TypeTag
	types TypeHandlerSource

	mu         sync.RWMutex
	handlers   map[string][]Handler
	subscribed []subscription
}

// subscription records a SubscribeTo call so Detach can undo it.
type subscription struct {
	bus  Subscriber
	name string
}

// NewListener creates a listener for owner.
// If owner is nil the listener delivers to itself. types may be nil, in which
// case no type-level handlers run.
func NewListener(owner Receiver, tag TypeTag, types TypeHandlerSource) *Listener {
	l := &Listener{
		owner:    owner,
		tag:      tag,
		types:    types,
		handlers: make(map[string][]Handler),
	}
	if l.owner == nil {
		l.owner = l
	}
	return l
}

// Owner returns the receiver handlers see as self.
func (l *Listener) Owner() Receiver {
	return l.owner
}

// TypeTag returns the tag used to look up type-level handlers.
func (l *Listener) TypeTag() TypeTag {
	return l.tag
}

// AddHandler appends fn to the instance handlers of eventName.
func (l *Listener) AddHandler(eventName string, fn Handler) error {
	if fn == nil {
		return ErrNilHandler
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[eventName] = append(l.handlers[eventName], fn)
	return nil
}

// ClearHandlers removes every instance handler of eventName.
func (l *Listener) ClearHandlers(eventName string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.handlers, eventName)
}

// HandlerCount returns the number of instance handlers for eventName.
func (l *Listener) HandlerCount(eventName string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.handlers[eventName])
}

// SubscribeTo subscribes the owner to eventName on bus and adds fn as an
// instance handler for it.
func (l *Listener) SubscribeTo(bus Subscriber, eventName string, fn Handler) error {
	if fn == nil {
		return ErrNilHandler
	}
	if err := bus.Subscribe(eventName, l.owner); err != nil {
		return err
	}

	l.mu.Lock()
	l.handlers[eventName] = append(l.handlers[eventName], fn)
	if !l.hasSubscriptionLocked(bus, eventName) {
		l.subscribed = append(l.subscribed, subscription{bus: bus, name: eventName})
	}
	l.mu.Unlock()
	return nil
}

func (l *Listener) hasSubscriptionLocked(bus Subscriber, eventName string) bool {
	for _, s := range l.subscribed {
		if s.bus == bus && s.name == eventName {
			return true
		}
	}
	return false
}

// Detach unsubscribes the owner from every event name it subscribed to on
// bus through SubscribeTo. Instance handlers are kept.
func (l *Listener) Detach(bus Subscriber) {
	l.mu.Lock()
	var names []string
	kept := l.subscribed[:0]
	for _, s := range l.subscribed {
		if s.bus == bus {
			names = append(names, s.name)
			continue
		}
		kept = append(kept, s)
	}
	l.subscribed = kept
	l.mu.Unlock()

	for _, name := range names {
		bus.Unsubscribe(name, l.owner)
	}
}

// Dispatch runs the instance handlers for eventName, then the type-level
// handlers unless an instance handler returned StopPropagation.
//
// Every instance handler runs even after one stops propagation. A handler
// error aborts the rest of the delivery and is returned as *HandlerError.
func (l *Listener) Dispatch(eventName string, data event.Data) error {
	l.mu.RLock()
	handlers := l.handlers[eventName]
	l.mu.RUnlock()

	propagate := true
	for i, h := range handlers {
		p, err := h(l.owner, data)
		if err != nil {
			return &HandlerError{Event: eventName, Receiver: l.owner, Phase: PhaseInstance, Index: i, Err: err}
		}
		if p == StopPropagation {
			propagate = false
		}
	}

	if !propagate || l.types == nil {
		return nil
	}

	for i, h := range l.types.TypeHandlers(l.tag, eventName) {
		if err := h(l.owner, data); err != nil {
			return &HandlerError{Event: eventName, Receiver: l.owner, Phase: PhaseType, Index: i, Err: err}
		}
	}
	return nil
}
