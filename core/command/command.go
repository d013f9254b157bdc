// Package command defines all commands that can be sent to the application.
// Commands represent user intentions and are processed by the application layer.
package command

import "rpgbase-go/core/event"

// Command is the base interface for all commands.
type Command interface {
	// CommandName returns the name of the command for logging/debugging
	CommandName() string
}

// BattlerCommand is a command issued by a specific battler.
type BattlerCommand interface {
	Command
	// BattlerName returns the acting battler
	BattlerName() string
}

// baseBattlerCommand provides common implementation for battler commands.
type baseBattlerCommand struct {
	battler string
}

func (c *baseBattlerCommand) BattlerName() string {
	return c.battler
}

// Publish queues an event. Priority puts it at the head of the queue.
type Publish struct {
	Event    string
	Data     event.Data
	Priority bool
}

func (c *Publish) CommandName() string {
	return "Publish"
}

// Step drains the event queue.
type Step struct{}

func (c *Step) CommandName() string {
	return "Step"
}

// ReloadTriggers reloads trigger definitions from their source.
type ReloadTriggers struct{}

func (c *ReloadTriggers) CommandName() string {
	return "ReloadTriggers"
}
