package eventbus

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"

	"rpgbase-go/core/event"
)

// typeKey indexes the type-level handler registry.
type typeKey struct {
	tag  TypeTag
	name string
}

// Stats contains event bus counters.
type Stats struct {
	// EventsPublished is the number of events enqueued or prioritized.
	EventsPublished uint64

	// EventsProcessed is the number of events popped from the queue.
	EventsProcessed uint64

	// Deliveries is the number of Receiver.Dispatch calls made.
	Deliveries uint64

	// HandlerErrors is the number of deliveries that returned an error.
	HandlerErrors uint64

	// QueueDepth is the current queue length.
	QueueDepth int

	// Subscriptions is the number of (event name, receiver) pairs.
	Subscriptions int
}

// Bus is the queue-backed EventBus implementation.
// Publishing and (un)subscribing are safe from any goroutine, including from
// inside handlers. Dispatch runs on the goroutine that calls ProcessNext or
// DrainAll and never holds the internal lock while a handler runs.
type Bus struct {
	mu            sync.Mutex
	queue         *queue
	subscriptions map[string][]Receiver
	typeHandlers  map[typeKey][]TypeHandler

	dispatching atomic.Bool
	config      busConfig
	logger      *slog.Logger

	published  atomic.Uint64
	processed  atomic.Uint64
	deliveries atomic.Uint64
	failures   atomic.Uint64
}

var _ EventBus = (*Bus)(nil)

// New creates an empty bus.
func New(opts ...Option) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}

	logger := config.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Bus{
		queue:         newQueue(config.queueCapacity),
		subscriptions: make(map[string][]Receiver),
		typeHandlers:  make(map[typeKey][]TypeHandler),
		config:        config,
		logger:        logger.With("component", "eventbus"),
	}
}

// Subscribe adds r to the subscribers of eventName.
func (b *Bus) Subscribe(eventName string, r Receiver) error {
	if r == nil {
		return ErrNilReceiver
	}
	if !isComparable(r) {
		return fmt.Errorf("subscribe %q to %T: %w", eventName, r, ErrUncomparableReceiver)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscriptions[eventName]
	if indexOf(subs, r) >= 0 {
		return nil
	}
	b.subscriptions[eventName] = append(subs, r)
	return nil
}

// Unsubscribe removes r from the subscribers of eventName.
func (b *Bus) Unsubscribe(eventName string, r Receiver) {
	if r == nil || !isComparable(r) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(eventName, r)
}

// UnsubscribeAll removes r from every event name it is subscribed to.
func (b *Bus) UnsubscribeAll(r Receiver) {
	if r == nil || !isComparable(r) {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for name := range b.subscriptions {
		b.removeLocked(name, r)
	}
}

func (b *Bus) removeLocked(eventName string, r Receiver) {
	subs, ok := b.subscriptions[eventName]
	if !ok {
		return
	}
	i := indexOf(subs, r)
	if i < 0 {
		return
	}

	// Build a fresh slice so snapshots handed out earlier stay intact.
	next := make([]Receiver, 0, len(subs)-1)
	next = append(next, subs[:i]...)
	next = append(next, subs[i+1:]...)
	if len(next) == 0 {
		delete(b.subscriptions, eventName)
		return
	}
	b.subscriptions[eventName] = next
}

// Subscribers returns a copy of the ordered subscriber set of eventName.
func (b *Bus) Subscribers(eventName string) []Receiver {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshotLocked(eventName)
}

func (b *Bus) snapshotLocked(eventName string) []Receiver {
	subs := b.subscriptions[eventName]
	if len(subs) == 0 {
		return nil
	}
	out := make([]Receiver, len(subs))
	copy(out, subs)
	return out
}

// Enqueue appends an event to the tail of the queue.
func (b *Bus) Enqueue(eventName string, data event.Data) {
	b.mu.Lock()
	b.queue.pushBack(event.New(eventName, data))
	b.mu.Unlock()
	b.published.Add(1)
}

// Prioritize inserts an event at the head of the queue.
func (b *Bus) Prioritize(eventName string, data event.Data) {
	b.mu.Lock()
	b.queue.pushFront(event.New(eventName, data))
	b.mu.Unlock()
	b.published.Add(1)
}

// IsEmpty reports whether the queue holds no events.
func (b *Bus) IsEmpty() bool {
	return b.Len() == 0
}

// Len returns the number of queued events.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.len()
}

// Pending returns the names of the queued events, head first.
func (b *Bus) Pending() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queue.names()
}

// ProcessNext pops the head event and delivers it.
// It is a no-op on an empty queue.
func (b *Bus) ProcessNext() error {
	if !b.dispatching.CompareAndSwap(false, true) {
		return ErrReentrantDispatch
	}
	defer b.dispatching.Store(false)

	_, err := b.processNext()
	return err
}

// DrainAll processes events until the queue is empty.
// It stops at the first handler error; the events still queued stay queued.
func (b *Bus) DrainAll() error {
	if !b.dispatching.CompareAndSwap(false, true) {
		return ErrReentrantDispatch
	}
	defer b.dispatching.Store(false)

	count := 0
	for {
		if limit := b.config.drainLimit; limit > 0 && count >= limit && !b.IsEmpty() {
			b.logger.Warn("Drain limit reached", "limit", limit, "pending", b.Len())
			return fmt.Errorf("%w after %d events", ErrDrainLimit, count)
		}

		ok, err := b.processNext()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		count++
	}
}

// processNext pops and delivers one event. ok is false when the queue was empty.
func (b *Bus) processNext() (ok bool, err error) {
	b.mu.Lock()
	e, ok := b.queue.popFront()
	if !ok {
		b.mu.Unlock()
		return false, nil
	}
	// Handlers may subscribe or unsubscribe while this event is in flight;
	// delivery always works on the set captured here.
	snapshot := b.snapshotLocked(e.Name)
	b.mu.Unlock()

	b.processed.Add(1)

	for _, r := range snapshot {
		if err := b.deliver(r, e); err != nil {
			return true, err
		}
	}

	// Source and target are each checked against the original snapshot only.
	for _, ref := range []any{e.Data.Source(), e.Data.Target()} {
		r, isReceiver := ref.(Receiver)
		if !isReceiver || indexOf(snapshot, r) >= 0 {
			continue
		}
		if err := b.deliver(r, e); err != nil {
			return true, err
		}
	}

	return true, nil
}

func (b *Bus) deliver(r Receiver, e event.Event) error {
	b.deliveries.Add(1)
	if b.config.traceDelivery {
		b.logger.Debug("Delivering event", "event", e.Name, "receiver", describe(r))
	}

	err := r.Dispatch(e.Name, e.Data)
	if err == nil {
		return nil
	}

	b.failures.Add(1)
	var he *HandlerError
	if errors.As(err, &he) {
		if he.Receiver == nil {
			he.Receiver = r
		}
	} else {
		he = &HandlerError{Event: e.Name, Receiver: r, Phase: PhaseDispatch, Err: err}
	}
	b.logger.Error("Event handler failed",
		"event", e.Name,
		"receiver", describe(r),
		"phase", he.Phase.String(),
		"error", he.Err)
	return he
}

// SubscribeClass appends fn to the handlers shared by every receiver tagged tag.
func (b *Bus) SubscribeClass(tag TypeTag, eventName string, fn TypeHandler) error {
	if fn == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := typeKey{tag: tag, name: eventName}
	b.typeHandlers[key] = append(b.typeHandlers[key], fn)
	return nil
}

// UnsubscribeClass clears every handler registered for (tag, eventName).
func (b *Bus) UnsubscribeClass(tag TypeTag, eventName string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.typeHandlers, typeKey{tag: tag, name: eventName})
}

// TypeHandlers returns a copy of the handlers registered for (tag, eventName).
func (b *Bus) TypeHandlers(tag TypeTag, eventName string) []TypeHandler {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.typeHandlers[typeKey{tag: tag, name: eventName}]
	if len(handlers) == 0 {
		return nil
	}
	out := make([]TypeHandler, len(handlers))
	copy(out, handlers)
	return out
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	depth := b.queue.len()
	subs := 0
	for _, list := range b.subscriptions {
		subs += len(list)
	}
	b.mu.Unlock()

	return Stats{
		EventsPublished: b.published.Load(),
		EventsProcessed: b.processed.Load(),
		Deliveries:      b.deliveries.Load(),
		HandlerErrors:   b.failures.Load(),
		QueueDepth:      depth,
		Subscriptions:   subs,
	}
}

func indexOf(subs []Receiver, r Receiver) int {
	if !isComparable(r) {
		return -1
	}
	for i, s := range subs {
		if s == r {
			return i
		}
	}
	return -1
}

func isComparable(r Receiver) bool {
	t := reflect.TypeOf(r)
	return t != nil && t.Comparable()
}
