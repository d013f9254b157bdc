package battle

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"rpgbase-go/core/event"
	"rpgbase-go/core/eventbus"
)

// TagBattle is the type tag of Battle receivers.
const TagBattle eventbus.TypeTag = "battle"

// ErrNoOpponents is returned when a battle is run with fewer than two sides.
var ErrNoOpponents = errors.New("battle needs at least two sides")

// Outcome summarizes a finished battle.
type Outcome struct {
	// Winner is the surviving side, empty on a draw.
	Winner string
	// Rounds is the number of rounds played.
	Rounds int
	// KnockedOut lists battler names in the order they fell.
	KnockedOut []string
}

// Battle runs rounds between the sides of its battlers. Each standing
// battler attacks the first standing opponent in join order.
type Battle struct {
	*eventbus.Listener

	bus       eventbus.EventBus
	resolver  *Resolver
	logger    *slog.Logger
	maxRounds int

	mu         sync.Mutex
	battlers   []*Battler
	knockedOut []string
}

// Config holds configuration for a Battle.
type Config struct {
	Bus       eventbus.EventBus
	Resolver  *Resolver
	Logger    *slog.Logger
	MaxRounds int
}

// New creates a battle and subscribes it to knocked-out events.
func New(cfg *Config) (*Battle, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 50
	}
	if cfg.Resolver == nil {
		cfg.Resolver = NewResolver(cfg.Bus, cfg.Logger)
	}

	bt := &Battle{
		bus:       cfg.Bus,
		resolver:  cfg.Resolver,
		logger:    cfg.Logger.With("component", "battle"),
		maxRounds: cfg.MaxRounds,
	}
	bt.Listener = eventbus.NewListener(bt, TagBattle, cfg.Bus)

	if err := bt.SubscribeTo(cfg.Bus, event.NameKnockedOut, eventbus.Observe(bt.onKnockedOut)); err != nil {
		return nil, err
	}
	return bt, nil
}

// String implements fmt.Stringer.
func (bt *Battle) String() string { return string(TagBattle) }

// Join adds a battler to the battle.
func (bt *Battle) Join(b *Battler) {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	bt.battlers = append(bt.battlers, b)
}

// Battlers returns the battlers in join order.
func (bt *Battle) Battlers() []*Battler {
	bt.mu.Lock()
	defer bt.mu.Unlock()
	out := make([]*Battler, len(bt.battlers))
	copy(out, bt.battlers)
	return out
}

func (bt *Battle) onKnockedOut(_ eventbus.Receiver, data event.Data) {
	b, ok := data.Target().(*Battler)
	if !ok {
		return
	}
	bt.mu.Lock()
	bt.knockedOut = append(bt.knockedOut, b.Name())
	bt.mu.Unlock()
	bt.logger.Info("Battler knocked out", "battler", b.Name(), "side", b.Side())
}

// standingSides returns the sides that still have a standing battler, in join order.
func (bt *Battle) standingSides() []string {
	var sides []string
	seen := map[string]bool{}
	for _, b := range bt.Battlers() {
		if b.IsStanding() && !seen[b.Side()] {
			seen[b.Side()] = true
			sides = append(sides, b.Side())
		}
	}
	return sides
}

func (bt *Battle) opponentOf(attacker *Battler) *Battler {
	for _, b := range bt.Battlers() {
		if b.Side() != attacker.Side() && b.IsStanding() {
			return b
		}
	}
	return nil
}

// Run plays rounds until one side is left standing or MaxRounds is reached.
func (bt *Battle) Run() (*Outcome, error) {
	if len(bt.standingSides()) < 2 {
		return nil, ErrNoOpponents
	}

	eventbus.Publish(bt.bus, event.NewBattleStarted(1))
	if err := bt.bus.DrainAll(); err != nil {
		return nil, err
	}

	round := 0
	for round < bt.maxRounds && len(bt.standingSides()) > 1 {
		round++
		if err := bt.playRound(round); err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
	}

	outcome := &Outcome{Rounds: round}
	if sides := bt.standingSides(); len(sides) == 1 {
		outcome.Winner = sides[0]
	}
	bt.mu.Lock()
	outcome.KnockedOut = append([]string(nil), bt.knockedOut...)
	bt.mu.Unlock()

	eventbus.Publish(bt.bus, event.NewBattleEnded(outcome.Winner, round))
	if err := bt.bus.DrainAll(); err != nil {
		return outcome, err
	}

	bt.logger.Info("Battle finished", "winner", outcome.Winner, "rounds", round)
	return outcome, nil
}

func (bt *Battle) playRound(round int) error {
	for _, b := range bt.Battlers() {
		if !b.State().CanAct() {
			continue
		}
		target := bt.opponentOf(b)
		if target == nil {
			return nil
		}

		attack := &Attack{Name: "strike", Attacker: b, Target: target}
		if err := bt.resolver.Turn(attack); err != nil {
			return err
		}
		if err := bt.bus.DrainAll(); err != nil {
			return err
		}

		bt.logger.Debug("Turn played",
			"round", round,
			"attacker", b.Name(),
			"target", attack.Target.Name(),
			"damage", attack.Damage)
	}
	return nil
}

// Close detaches the battle and every battler from the bus.
func (bt *Battle) Close() {
	bt.Detach(bt.bus)
	for _, b := range bt.Battlers() {
		b.Detach(bt.bus)
	}
}
