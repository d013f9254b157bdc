package application

import (
	"fmt"

	"rpgbase-go/core/command"
	"rpgbase-go/domain/battle"
)

func (w *World) handlePublish(cmd *command.Publish) error {
	if cmd.Event == "" {
		return fmt.Errorf("%w: publish needs an event name", ErrUnknownCommand)
	}
	if cmd.Priority {
		w.bus.Prioritize(cmd.Event, cmd.Data)
	} else {
		w.bus.Enqueue(cmd.Event, cmd.Data)
	}
	return nil
}

func (w *World) handleSpawnBattler(cmd *command.SpawnBattler) error {
	b, err := battle.NewBattler(&battle.BattlerConfig{
		Name: cmd.Name,
		Side: cmd.Side,
		Stats: battle.Stats{
			MaxHP:   cmd.MaxHP,
			Attack:  cmd.Attack,
			Defense: cmd.Defense,
		},
		Publisher: w.bus,
		Types:     w.bus,
	})
	if err != nil {
		return err
	}

	w.battlersMu.Lock()
	defer w.battlersMu.Unlock()
	if _, exists := w.battlers[cmd.Name]; exists {
		return fmt.Errorf("%w: %s", ErrBattlerExists, cmd.Name)
	}
	w.battlers[cmd.Name] = b
	w.order = append(w.order, cmd.Name)

	w.logger.Info("Battler spawned", "battler", cmd.Name, "side", cmd.Side, "id", b.ID())
	return nil
}

// lookup resolves the named battlers, failing on the first unknown name.
func (w *World) lookup(names ...string) ([]*battle.Battler, error) {
	w.battlersMu.RLock()
	defer w.battlersMu.RUnlock()

	out := make([]*battle.Battler, len(names))
	for i, name := range names {
		b, ok := w.battlers[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrBattlerNotFound, name)
		}
		out[i] = b
	}
	return out, nil
}

func (w *World) handleAttack(cmd *command.Attack) error {
	found, err := w.lookup(cmd.BattlerName(), cmd.Target)
	if err != nil {
		return err
	}
	attacker, target := found[0], found[1]

	a := &battle.Attack{Name: "strike", Attacker: attacker, Target: target, Power: cmd.Power}
	if err := w.resolver.Turn(a); err != nil {
		return err
	}
	return w.Step()
}

func (w *World) handleGuard(cmd *command.Guard) error {
	found, err := w.lookup(cmd.BattlerName(), cmd.Ally)
	if err != nil {
		return err
	}
	if err := found[0].Guard(w.bus, found[1]); err != nil {
		return err
	}
	return w.Step()
}

func (w *World) handleHeal(cmd *command.Heal) error {
	found, err := w.lookup(cmd.BattlerName(), cmd.Target)
	if err != nil {
		return err
	}
	if err := w.resolver.Heal(found[0], found[1], cmd.Amount); err != nil {
		return err
	}
	return w.Step()
}

func (w *World) handleRunBattle(cmd *command.RunBattle) error {
	bt, err := battle.New(&battle.Config{
		Bus:       w.bus,
		Resolver:  w.resolver,
		Logger:    w.logger,
		MaxRounds: cmd.MaxRounds,
	})
	if err != nil {
		return err
	}
	defer bt.Detach(w.bus)

	for _, b := range w.Battlers() {
		if b.IsStanding() {
			bt.Join(b)
		}
	}

	outcome, err := bt.Run()
	if outcome != nil {
		w.outcomeMu.Lock()
		w.lastOutcome = outcome
		w.outcomeMu.Unlock()
	}
	return err
}
