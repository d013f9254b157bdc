package trigger

import (
	"fmt"
	"log/slog"
	"sync"

	"rpgbase-go/core/event"
	"rpgbase-go/core/eventbus"
)

// TagSet is the type tag of trigger sets.
const TagSet eventbus.TypeTag = "trigger-set"

// Bus is the part of the event bus a Set needs.
type Bus interface {
	eventbus.Publisher
	eventbus.Subscriber
	eventbus.TypeHandlerSource
}

// ScriptRunner executes the source of a lua action against one event.
// Returning StopPropagation skips the remaining triggers of the delivery.
type ScriptRunner interface {
	Run(source string, e event.Event, pub eventbus.Publisher) (eventbus.Propagation, error)
}

// Set is a bus receiver that runs the triggers of a Registry.
// It subscribes to every event name the registry has triggers for.
type Set struct {
	*eventbus.Listener

	bus      Bus
	registry *Registry
	runner   ScriptRunner
	logger   *slog.Logger

	mu     sync.Mutex
	names  []string
	fired  map[string]bool
	counts map[string]int
}

// SetConfig holds configuration for a Set.
type SetConfig struct {
	Bus      Bus
	Registry *Registry
	Runner   ScriptRunner
	Logger   *slog.Logger
}

// NewSet creates a trigger set. Call Sync to subscribe it to the bus.
func NewSet(cfg *SetConfig) *Set {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}

	s := &Set{
		bus:      cfg.Bus,
		registry: cfg.Registry,
		runner:   cfg.Runner,
		logger:   cfg.Logger.With("component", "triggers"),
		fired:    make(map[string]bool),
		counts:   make(map[string]int),
	}
	s.Listener = eventbus.NewListener(s, TagSet, cfg.Bus)
	return s
}

// String implements fmt.Stringer.
func (s *Set) String() string { return string(TagSet) }

// Registry returns the registry the set runs.
func (s *Set) Registry() *Registry { return s.registry }

// Sync resubscribes the set to the event names currently in the registry.
// Once triggers that already fired stay disabled until Reset.
func (s *Set) Sync() error {
	s.mu.Lock()
	old := s.names
	s.names = nil
	s.mu.Unlock()

	s.Detach(s.bus)
	for _, name := range old {
		s.ClearHandlers(name)
	}

	names := s.registry.Events()
	for _, name := range names {
		if err := s.SubscribeTo(s.bus, name, s.handlerFor(name)); err != nil {
			return fmt.Errorf("failed to subscribe triggers to %s: %w", name, err)
		}
	}

	s.mu.Lock()
	s.names = names
	s.mu.Unlock()

	s.logger.Info("Triggers synced", "triggers", s.registry.Count(), "events", len(names))
	return nil
}

// Reset re-enables Once triggers and clears the fire counts.
func (s *Set) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fired = make(map[string]bool)
	s.counts = make(map[string]int)
}

// FireCount returns how many times the named trigger fired successfully.
func (s *Set) FireCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[name]
}

// Close unsubscribes the set from the bus.
func (s *Set) Close() {
	s.Detach(s.bus)
}

func (s *Set) handlerFor(eventName string) eventbus.Handler {
	return func(_ eventbus.Receiver, data event.Data) (eventbus.Propagation, error) {
		for _, t := range s.registry.ForEvent(eventName) {
			if !s.claim(t, data) {
				continue
			}

			prop, err := s.run(t, event.New(eventName, data))
			if err != nil {
				s.release(t)
				return eventbus.Continue, fmt.Errorf("trigger %s: %w", t.Name, err)
			}
			s.record(t)
			if t.Stop || prop == eventbus.StopPropagation {
				return eventbus.StopPropagation, nil
			}
		}
		return eventbus.Continue, nil
	}
}

// claim returns true if t should fire for data and reserves a Once trigger
// until the firing completes.
func (s *Set) claim(t *Trigger, data event.Data) bool {
	if !t.Matches(data) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if t.Once && s.fired[t.Name] {
		return false
	}
	s.fired[t.Name] = true
	return true
}

// record counts a firing whose actions all succeeded.
func (s *Set) record(t *Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[t.Name]++
}

// release re-arms t after its actions failed. Actions that ran before the
// failure are not undone.
func (s *Set) release(t *Trigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fired, t.Name)
}

func (s *Set) run(t *Trigger, e event.Event) (eventbus.Propagation, error) {
	result := eventbus.Continue
	for i := range t.Actions {
		a := &t.Actions[i]
		switch a.Type {
		case ActionTypeEnqueue:
			s.bus.Enqueue(a.Event, a.Payload(e.Data))
		case ActionTypePrioritize:
			s.bus.Prioritize(a.Event, a.Payload(e.Data))
		case ActionTypeLog:
			s.logger.Info(a.Message, "trigger", t.Name, "event", e.Name)
		case ActionTypeLua:
			if s.runner == nil {
				return eventbus.Continue, ErrNoScriptRunner
			}
			prop, err := s.runner.Run(a.Script, e, s.bus)
			if err != nil {
				return eventbus.Continue, fmt.Errorf("action %d: %w", i, err)
			}
			if prop == eventbus.StopPropagation {
				result = eventbus.StopPropagation
			}
		default:
			return eventbus.Continue, fmt.Errorf("action %d: unknown type %q", i, a.Type)
		}
	}
	return result, nil
}
