package command

// SpawnBattler adds a battler to the world.
type SpawnBattler struct {
	Name    string
	Side    string
	MaxHP   int
	Attack  int
	Defense int
}

func (c *SpawnBattler) CommandName() string {
	return "SpawnBattler"
}

// Attack makes a battler attack a target.
type Attack struct {
	baseBattlerCommand
	Target string
	Power  int
}

func NewAttack(battler, target string, power int) *Attack {
	return &Attack{
		baseBattlerCommand: baseBattlerCommand{battler: battler},
		Target:             target,
		Power:              power,
	}
}

func (c *Attack) CommandName() string {
	return "Attack"
}

// Guard makes a battler cover an ally.
type Guard struct {
	baseBattlerCommand
	Ally string
}

func NewGuard(battler, ally string) *Guard {
	return &Guard{
		baseBattlerCommand: baseBattlerCommand{battler: battler},
		Ally:               ally,
	}
}

func (c *Guard) CommandName() string {
	return "Guard"
}

// Heal makes a battler restore a target's hit points.
type Heal struct {
	baseBattlerCommand
	Target string
	Amount int
}

func NewHeal(battler, target string, amount int) *Heal {
	return &Heal{
		baseBattlerCommand: baseBattlerCommand{battler: battler},
		Target:             target,
		Amount:             amount,
	}
}

func (c *Heal) CommandName() string {
	return "Heal"
}

// RunBattle plays rounds between every standing battler until one side is left.
type RunBattle struct {
	MaxRounds int
}

func (c *RunBattle) CommandName() string {
	return "RunBattle"
}
