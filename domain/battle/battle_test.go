package battle

import (
	"errors"
	"testing"

	"rpgbase-go/core/event"
	"rpgbase-go/core/eventbus"
)

func newTestBattle(t *testing.T, bus *eventbus.Bus, maxRounds int) *Battle {
	t.Helper()
	r := NewResolver(bus, nil)
	if err := r.Install(); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	bt, err := New(&Config{Bus: bus, Resolver: r, MaxRounds: maxRounds})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return bt
}

func TestBattle_RunNeedsTwoSides(t *testing.T) {
	bus := eventbus.New()
	bt := newTestBattle(t, bus, 10)
	bt.Join(newTestBattler(t, bus, "hero", "party", Stats{MaxHP: 10}))

	if _, err := bt.Run(); !errors.Is(err, ErrNoOpponents) {
		t.Errorf("Run() error = %v, want ErrNoOpponents", err)
	}
}

func TestBattle_RunToVictory(t *testing.T) {
	bus := eventbus.New()
	bt := newTestBattle(t, bus, 20)

	hero := newTestBattler(t, bus, "hero", "party", Stats{MaxHP: 30, Attack: 6})
	slimeA := newTestBattler(t, bus, "slime-a", "monsters", Stats{MaxHP: 6, Attack: 1})
	slimeB := newTestBattler(t, bus, "slime-b", "monsters", Stats{MaxHP: 6, Attack: 1})
	bt.Join(hero)
	bt.Join(slimeA)
	bt.Join(slimeB)

	var ended event.Data
	observer := newTestBattler(t, bus, "observer", "crowd", Stats{MaxHP: 1})
	if err := observer.SubscribeTo(bus, event.NameBattleEnded, eventbus.Observe(func(_ eventbus.Receiver, data event.Data) {
		ended = data
	})); err != nil {
		t.Fatalf("SubscribeTo() error = %v", err)
	}

	outcome, err := bt.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if outcome.Winner != "party" {
		t.Errorf("Winner = %q, want party", outcome.Winner)
	}
	if outcome.Rounds != 2 {
		t.Errorf("Rounds = %d, want 2", outcome.Rounds)
	}
	want := []string{"slime-a", "slime-b"}
	if len(outcome.KnockedOut) != len(want) {
		t.Fatalf("KnockedOut = %v, want %v", outcome.KnockedOut, want)
	}
	for i := range want {
		if outcome.KnockedOut[i] != want[i] {
			t.Errorf("KnockedOut[%d] = %s, want %s", i, outcome.KnockedOut[i], want[i])
		}
	}
	if hero.HP() != 29 {
		t.Errorf("hero HP() = %d, want 29", hero.HP())
	}
	if winner, _ := ended.String(event.KeyWinner); winner != "party" {
		t.Errorf("battle-ended winner = %q, want party", winner)
	}
	if !bus.IsEmpty() {
		t.Errorf("Queue should be drained, pending %v", bus.Pending())
	}
}

func TestBattle_MaxRoundsDraw(t *testing.T) {
	bus := eventbus.New()
	bt := newTestBattle(t, bus, 3)

	bt.Join(newTestBattler(t, bus, "wall-a", "north", Stats{MaxHP: 100}))
	bt.Join(newTestBattler(t, bus, "wall-b", "south", Stats{MaxHP: 100}))

	outcome, err := bt.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.Winner != "" {
		t.Errorf("Winner = %q, want draw", outcome.Winner)
	}
	if outcome.Rounds != 3 {
		t.Errorf("Rounds = %d, want 3", outcome.Rounds)
	}
}

func TestBattle_GuardProtectsAlly(t *testing.T) {
	bus := eventbus.New()
	bt := newTestBattle(t, bus, 1)

	mage := newTestBattler(t, bus, "mage", "party", Stats{MaxHP: 5})
	zaan := newTestBattler(t, bus, "zaan", "party", Stats{MaxHP: 50, Defense: 2})
	orc := newTestBattler(t, bus, "orc", "monsters", Stats{MaxHP: 100, Attack: 8})
	bt.Join(mage)
	bt.Join(zaan)
	bt.Join(orc)

	if err := zaan.Guard(bus, mage); err != nil {
		t.Fatalf("Guard() error = %v", err)
	}

	if _, err := bt.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !mage.IsStanding() || mage.HP() != 5 {
		t.Errorf("mage HP() = %d, want 5 and standing", mage.HP())
	}
	if zaan.HP() != 44 {
		t.Errorf("zaan HP() = %d, want 44", zaan.HP())
	}
}

func TestBattle_Close(t *testing.T) {
	bus := eventbus.New()
	bt := newTestBattle(t, bus, 1)

	zaan := newTestBattler(t, bus, "zaan", "party", Stats{MaxHP: 50})
	mage := newTestBattler(t, bus, "mage", "party", Stats{MaxHP: 5})
	bt.Join(zaan)
	bt.Join(mage)
	if err := zaan.Guard(bus, mage); err != nil {
		t.Fatalf("Guard() error = %v", err)
	}

	bt.Close()

	if got := len(bus.Subscribers(event.NameKnockedOut)); got != 0 {
		t.Errorf("Subscribers(knocked-out) = %d, want 0", got)
	}
	if got := len(bus.Subscribers(event.NameAttackTargeted)); got != 0 {
		t.Errorf("Subscribers(attack-targeted) = %d, want 0", got)
	}
}
