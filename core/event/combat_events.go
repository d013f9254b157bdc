package event

import "rpgbase-go/core/state"

// Names of the events published during combat resolution.
const (
	NameBattleStarted  = "battle-started"
	NameBattleEnded    = "battle-ended"
	NameAttackTargeted = "attack-targeted"
	NameAttack         = "attack"
	NameHit            = "hit"
	NameAttackResolved = "attack-resolved"
	NameKnockedOut     = "knocked-out"
	NameStateChanged   = "state-changed"
	NameHeal           = "heal"
	NameHealed         = "healed"
)

// Payload keys used by the combat events.
const (
	KeyAttack   = "attack"
	KeyAmount   = "amount"
	KeyHP       = "hp"
	KeyOldState = "old_state"
	KeyNewState = "new_state"
	KeyWinner   = "winner"
	KeyRound    = "round"
)

// NewBattleStarted is published once before the first round.
func NewBattleStarted(round int) Event {
	return New(NameBattleStarted, Data{KeyRound: round})
}

// NewBattleEnded is published when one side has no standing battlers.
func NewBattleEnded(winner string, round int) Event {
	return New(NameBattleEnded, Data{KeyWinner: winner, KeyRound: round})
}

// NewAttackTargeted announces an attack before it lands.
// Handlers may rewrite the target on the shared attack value to redirect it.
func NewAttackTargeted(source, target any, attack any) Event {
	return New(NameAttackTargeted, Data{KeySource: source, KeyTarget: target, KeyAttack: attack})
}

// NewAttack is published when the attack executes.
func NewAttack(source, target any, attack any) Event {
	return New(NameAttack, Data{KeySource: source, KeyTarget: target, KeyAttack: attack})
}

// NewHit is published when damage is applied to target.
func NewHit(source, target any, amount int) Event {
	return New(NameHit, Data{KeySource: source, KeyTarget: target, KeyAmount: amount})
}

// NewAttackResolved closes the attack sequence.
func NewAttackResolved(source, target any, attack any) Event {
	return New(NameAttackResolved, Data{KeySource: source, KeyTarget: target, KeyAttack: attack})
}

// NewKnockedOut is published when target's hit points reach zero.
func NewKnockedOut(source, target any) Event {
	return New(NameKnockedOut, Data{KeySource: source, KeyTarget: target})
}

// NewHeal asks target to restore amount hit points.
func NewHeal(source, target any, amount int) Event {
	return New(NameHeal, Data{KeySource: source, KeyTarget: target, KeyAmount: amount})
}

// NewHealed is published when hit points are restored.
func NewHealed(source, target any, amount, hp int) Event {
	return New(NameHealed, Data{KeySource: source, KeyTarget: target, KeyAmount: amount, KeyHP: hp})
}

// NewStateChanged is published when a battler's combat state changes.
func NewStateChanged(target any, oldState, newState state.CombatState) Event {
	return New(NameStateChanged, Data{KeyTarget: target, KeyOldState: oldState, KeyNewState: newState})
}
