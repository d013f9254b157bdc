// Package battle implements turn-based combat on top of the event bus.
// Combat resolution only publishes events; battlers react to them through
// their own instance handlers and the handlers shared by the battler type.
package battle

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"rpgbase-go/core/event"
	"rpgbase-go/core/eventbus"
	"rpgbase-go/core/state"
)

// TagBattler is the type tag shared by every battler.
const TagBattler eventbus.TypeTag = "battler"

// Common errors for battle operations.
var (
	ErrInvalidBattler = errors.New("invalid battler")
	ErrNotStanding    = errors.New("battler is knocked out")
)

// Stats are a battler's fixed combat attributes.
type Stats struct {
	MaxHP   int
	Attack  int
	Defense int
}

// Battler is a combatant. It embeds a Listener, so it is a bus receiver
// in its own right and can be used as an event source or target.
type Battler struct {
	*eventbus.Listener

	id    string
	name  string
	side  string
	stats Stats

	mu       sync.RWMutex
	hp       int
	state    state.CombatState
	guarding *Battler
	covering bool

	publisher eventbus.Publisher
}

// BattlerConfig holds configuration for creating a Battler.
type BattlerConfig struct {
	Name  string
	Side  string
	Stats Stats

	// Publisher receives the state-changed, knocked-out and healed events.
	Publisher eventbus.Publisher

	// Types resolves handlers registered for TagBattler. Usually the bus.
	Types eventbus.TypeHandlerSource
}

// Validate checks the configuration for missing or out-of-range values.
func (c *BattlerConfig) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidBattler)
	case c.Side == "":
		return fmt.Errorf("%w: %s has no side", ErrInvalidBattler, c.Name)
	case c.Stats.MaxHP <= 0:
		return fmt.Errorf("%w: %s max hp must be positive", ErrInvalidBattler, c.Name)
	case c.Stats.Attack < 0 || c.Stats.Defense < 0:
		return fmt.Errorf("%w: %s attack and defense cannot be negative", ErrInvalidBattler, c.Name)
	case c.Publisher == nil:
		return fmt.Errorf("%w: %s has no publisher", ErrInvalidBattler, c.Name)
	}
	return nil
}

// NewBattler creates a battler at full hit points in the Ready state.
func NewBattler(cfg *BattlerConfig) (*Battler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Battler{
		id:        uuid.New().String(),
		name:      cfg.Name,
		side:      cfg.Side,
		stats:     cfg.Stats,
		hp:        cfg.Stats.MaxHP,
		state:     state.StateReady,
		publisher: cfg.Publisher,
	}
	b.Listener = eventbus.NewListener(b, TagBattler, cfg.Types)
	return b, nil
}

// ID returns the battler's unique identifier.
func (b *Battler) ID() string { return b.id }

// Name returns the display name.
func (b *Battler) Name() string { return b.name }

// Side returns the party the battler fights for.
func (b *Battler) Side() string { return b.side }

// Stats returns the fixed combat attributes.
func (b *Battler) Stats() Stats { return b.stats }

// String implements fmt.Stringer.
func (b *Battler) String() string { return b.name }

// HP returns the current hit points.
func (b *Battler) HP() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.hp
}

// State returns the current combat state.
func (b *Battler) State() state.CombatState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// IsStanding returns true until the battler is knocked out.
func (b *Battler) IsStanding() bool {
	return b.State().IsStanding()
}

// Guarding returns the ally this battler covers, or nil.
func (b *Battler) Guarding() *Battler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.guarding
}

// transitionTo changes state and enqueues a state-changed event.
// Staying in the current state publishes nothing.
func (b *Battler) transitionTo(to state.CombatState) error {
	b.mu.Lock()
	from := b.state
	if from == to {
		b.mu.Unlock()
		return nil
	}
	if !from.CanTransitionTo(to) {
		b.mu.Unlock()
		return state.NewTransitionError(from, to, b.name)
	}
	b.state = to
	b.mu.Unlock()

	eventbus.Publish(b.publisher, event.NewStateChanged(b, from, to))
	return nil
}

// BeginTurn moves the battler into the Acting state.
func (b *Battler) BeginTurn() error {
	if !b.State().CanAct() {
		return fmt.Errorf("%s cannot act: %w", b.name, state.NewTransitionError(b.State(), state.StateActing, "not ready"))
	}
	return b.transitionTo(state.StateActing)
}

// EndTurn returns the battler to Guarding when it covers an ally, Ready otherwise.
// It is a no-op for a knocked out battler.
func (b *Battler) EndTurn() error {
	if !b.IsStanding() {
		return nil
	}
	if b.Guarding() != nil {
		return b.transitionTo(state.StateGuarding)
	}
	return b.transitionTo(state.StateReady)
}

// TakeDamage subtracts amount from the hit points and returns what is left.
// Reaching zero knocks the battler out and prioritizes a knocked-out event.
func (b *Battler) TakeDamage(source any, amount int) (int, error) {
	b.mu.Lock()
	if !b.state.IsStanding() {
		b.mu.Unlock()
		return 0, fmt.Errorf("%s: %w", b.name, ErrNotStanding)
	}
	if amount < 0 {
		amount = 0
	}
	b.hp -= amount
	if b.hp < 0 {
		b.hp = 0
	}
	remaining := b.hp
	b.mu.Unlock()

	if remaining == 0 {
		if err := b.transitionTo(state.StateKnockedOut); err != nil {
			return 0, err
		}
		b.StopGuarding()
		eventbus.Interrupt(b.publisher, event.NewKnockedOut(source, b))
	}
	return remaining, nil
}

// Heal restores up to amount hit points and enqueues a healed event.
func (b *Battler) Heal(source any, amount int) (int, error) {
	b.mu.Lock()
	if !b.state.IsStanding() {
		b.mu.Unlock()
		return 0, fmt.Errorf("%s: %w", b.name, ErrNotStanding)
	}
	before := b.hp
	b.hp += amount
	if b.hp > b.stats.MaxHP {
		b.hp = b.stats.MaxHP
	}
	restored, hp := b.hp-before, b.hp
	b.mu.Unlock()

	if source == any(b) {
		source = nil
	}
	eventbus.Publish(b.publisher, event.NewHealed(source, b, restored, hp))
	return restored, nil
}

// Guard makes the battler cover ally: attacks targeted at ally are
// redirected to the guard while it stays in the Guarding state.
func (b *Battler) Guard(bus eventbus.Subscriber, ally *Battler) error {
	if ally == nil || ally == b {
		return fmt.Errorf("%w: %s cannot guard itself", ErrInvalidBattler, b.name)
	}
	if err := b.transitionTo(state.StateGuarding); err != nil {
		return err
	}

	b.mu.Lock()
	b.guarding = ally
	install := !b.covering
	b.covering = true
	b.mu.Unlock()

	if install {
		return b.SubscribeTo(bus, event.NameAttackTargeted, b.cover)
	}
	return nil
}

// StopGuarding releases the covered ally.
func (b *Battler) StopGuarding() {
	b.mu.Lock()
	b.guarding = nil
	b.mu.Unlock()
}

// cover redirects an attack aimed at the guarded ally.
// The redirect stops propagation so battler-wide attack-targeted handlers
// do not run for the guard on this delivery.
func (b *Battler) cover(_ eventbus.Receiver, data event.Data) (eventbus.Propagation, error) {
	a, ok := data[event.KeyAttack].(*Attack)
	if !ok {
		return eventbus.Continue, nil
	}

	ally := b.Guarding()
	if ally == nil || a.Target != ally || !b.State().CanCover() || a.Attacker == b {
		return eventbus.Continue, nil
	}

	a.Target = b
	a.CoveredBy = b
	return eventbus.StopPropagation, nil
}
