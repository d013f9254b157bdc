package command

import "testing"

func TestCommand_Names(t *testing.T) {
	tests := []struct {
		cmd      Command
		expected string
	}{
		{&Publish{Event: "hit"}, "Publish"},
		{&Step{}, "Step"},
		{&ReloadTriggers{}, "ReloadTriggers"},
		{&SpawnBattler{Name: "hero"}, "SpawnBattler"},
		{NewAttack("hero", "slime", 1), "Attack"},
		{NewGuard("zaan", "mage"), "Guard"},
		{NewHeal("priest", "hero", 5), "Heal"},
		{&RunBattle{}, "RunBattle"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.cmd.CommandName(); got != tt.expected {
				t.Errorf("CommandName() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBattlerCommand_BattlerName(t *testing.T) {
	tests := []struct {
		name     string
		cmd      BattlerCommand
		expected string
	}{
		{"Attack", NewAttack("hero", "slime", 1), "hero"},
		{"Guard", NewGuard("zaan", "mage"), "zaan"},
		{"Heal", NewHeal("priest", "hero", 5), "priest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cmd.BattlerName(); got != tt.expected {
				t.Errorf("BattlerName() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewAttack(t *testing.T) {
	cmd := NewAttack("hero", "slime", 4)

	if cmd.Target != "slime" {
		t.Errorf("Target = %v, want slime", cmd.Target)
	}
	if cmd.Power != 4 {
		t.Errorf("Power = %d, want 4", cmd.Power)
	}
}
