package battle

import (
	"fmt"
	"log/slog"

	"rpgbase-go/core/event"
	"rpgbase-go/core/eventbus"
)

// Attack is shared by every event of one attack sequence, so a handler that
// rewrites Target during attack-targeted changes where the attack lands.
type Attack struct {
	Name     string
	Attacker *Battler
	Target   *Battler
	Power    int

	// Damage is filled in when the attack lands.
	Damage int

	// CoveredBy is set when a guard took the attack for its ally.
	CoveredBy *Battler
}

// Resolver turns attacks into bus events and installs the battler-wide
// handlers that apply them.
type Resolver struct {
	bus    eventbus.EventBus
	logger *slog.Logger
}

// NewResolver creates a resolver publishing on bus.
func NewResolver(bus eventbus.EventBus, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		bus:    bus,
		logger: logger.With("component", "resolver"),
	}
}

// Install registers the battler-wide handlers for attack, hit and heal.
func (r *Resolver) Install() error {
	handlers := map[string]eventbus.TypeHandler{
		event.NameAttack: r.onAttack,
		event.NameHit:    r.onHit,
		event.NameHeal:   r.onHeal,
	}
	for _, name := range []string{event.NameAttack, event.NameHit, event.NameHeal} {
		if err := r.bus.SubscribeClass(TagBattler, name, handlers[name]); err != nil {
			return fmt.Errorf("failed to install %s handler: %w", name, err)
		}
	}
	return nil
}

// Uninstall clears every battler-wide handler for the events Install covers.
func (r *Resolver) Uninstall() {
	for _, name := range []string{event.NameAttack, event.NameHit, event.NameHeal} {
		r.bus.UnsubscribeClass(TagBattler, name)
	}
}

func (a *Attack) validate() error {
	if a == nil || a.Attacker == nil || a.Target == nil {
		return fmt.Errorf("%w: attack needs an attacker and a target", ErrInvalidBattler)
	}
	if a.Attacker == a.Target {
		return fmt.Errorf("%w: %s cannot attack itself", ErrInvalidBattler, a.Attacker.Name())
	}
	if !a.Attacker.IsStanding() {
		return fmt.Errorf("%s: %w", a.Attacker.Name(), ErrNotStanding)
	}
	return nil
}

// Turn plays a.Attacker's turn around one attack. The turn is ended even
// when the attack fails, so the attacker can act again afterwards.
func (r *Resolver) Turn(a *Attack) (err error) {
	if err := a.validate(); err != nil {
		return err
	}
	if err := a.Attacker.BeginTurn(); err != nil {
		return err
	}
	defer func() {
		if endErr := a.Attacker.EndTurn(); endErr != nil {
			if err == nil {
				err = endErr
				return
			}
			r.logger.Warn("Failed to end turn after a failed attack",
				"attacker", a.Attacker.Name(), "error", endErr)
		}
	}()
	return r.Execute(a)
}

// Execute runs one attack: attack-targeted is drained first so handlers can
// redirect it, then attack and attack-resolved are drained together. The hit
// raised while handling attack is prioritized and lands before attack-resolved.
func (r *Resolver) Execute(a *Attack) error {
	if err := a.validate(); err != nil {
		return err
	}

	eventbus.Publish(r.bus, event.NewAttackTargeted(a.Attacker, a.Target, a))
	if err := r.bus.DrainAll(); err != nil {
		return fmt.Errorf("attack-targeted: %w", err)
	}

	source := sourceFor(a.Attacker, a.Target)
	if a.Target.IsStanding() {
		eventbus.Publish(r.bus, event.NewAttack(source, a.Target, a))
	} else {
		r.logger.Debug("Attack target already down", "attacker", a.Attacker.Name(), "target", a.Target.Name())
	}
	eventbus.Publish(r.bus, event.NewAttackResolved(source, a.Target, a))
	if err := r.bus.DrainAll(); err != nil {
		return fmt.Errorf("attack: %w", err)
	}
	return nil
}

// Heal publishes a heal from healer to target. A battler may heal itself.
func (r *Resolver) Heal(healer, target *Battler, amount int) error {
	if healer == nil || target == nil {
		return fmt.Errorf("%w: heal needs a healer and a target", ErrInvalidBattler)
	}
	if !healer.IsStanding() {
		return fmt.Errorf("%s: %w", healer.Name(), ErrNotStanding)
	}
	eventbus.Publish(r.bus, event.NewHeal(sourceFor(healer, target), target, amount))
	return nil
}

// sourceFor returns the source for an event from source aimed at target.
// It is nil when both are the same battler, which is then delivered the
// event once as target.
func sourceFor(source, target *Battler) any {
	if source == target {
		return nil
	}
	return source
}

// onAttack computes damage when self is the attack's target.
func (r *Resolver) onAttack(self eventbus.Receiver, data event.Data) error {
	b, ok := self.(*Battler)
	if !ok || data.Target() != self {
		return nil
	}
	a, ok := data[event.KeyAttack].(*Attack)
	if !ok {
		return nil
	}

	damage := a.Power + a.Attacker.Stats().Attack - b.Stats().Defense
	if damage < 1 {
		damage = 1
	}
	a.Damage = damage

	eventbus.Interrupt(r.bus, event.NewHit(sourceFor(a.Attacker, b), b, damage))
	return nil
}

// onHit applies damage when self is the hit's target.
func (r *Resolver) onHit(self eventbus.Receiver, data event.Data) error {
	b, ok := self.(*Battler)
	if !ok || data.Target() != self || !b.IsStanding() {
		return nil
	}
	amount, ok := data.Int(event.KeyAmount)
	if !ok {
		return fmt.Errorf("hit on %s has no amount", b.Name())
	}

	remaining, err := b.TakeDamage(data.Source(), amount)
	if err != nil {
		return err
	}
	r.logger.Debug("Hit applied", "target", b.Name(), "amount", amount, "hp", remaining)
	return nil
}

// onHeal restores hit points when self is the heal's target.
func (r *Resolver) onHeal(self eventbus.Receiver, data event.Data) error {
	b, ok := self.(*Battler)
	if !ok || data.Target() != self || !b.IsStanding() {
		return nil
	}
	amount, ok := data.Int(event.KeyAmount)
	if !ok || amount <= 0 {
		return nil
	}
	_, err := b.Heal(data.Source(), amount)
	return err
}
