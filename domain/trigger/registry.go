package trigger

import (
	"sort"
	"sync"
)

// Registry manages trigger definitions and indexes them by event name.
type Registry struct {
	triggers map[string]*Trigger
	mu       sync.RWMutex
}

// NewRegistry creates a new empty trigger registry.
func NewRegistry() *Registry {
	return &Registry{
		triggers: make(map[string]*Trigger),
	}
}

// Register adds a trigger to the registry.
// If a trigger with the same name exists, it will be replaced.
func (r *Registry) Register(t *Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers[t.Name] = t
}

// Replace swaps the whole content of the registry.
func (r *Registry) Replace(triggers []*Trigger) {
	next := make(map[string]*Trigger, len(triggers))
	for _, t := range triggers {
		next[t.Name] = t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = next
}

// Get retrieves a trigger by name.
// Returns nil if not found.
func (r *Registry) Get(name string) *Trigger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.triggers[name]
}

// Remove deletes a trigger by name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.triggers, name)
}

// List returns all registered trigger names, sorted alphabetically.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.triggers))
	for name := range r.triggers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForEvent returns the triggers listening to eventName, sorted by name.
func (r *Registry) ForEvent(eventName string) []*Trigger {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Trigger
	for _, t := range r.triggers {
		if t.On == eventName {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Events returns the distinct event names with at least one trigger, sorted.
func (r *Registry) Events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, t := range r.triggers {
		seen[t.On] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered triggers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.triggers)
}
