package commands

import (
	"github.com/SscSPs/command_ledger/internal/core/domain"
)

// CompositeCommand runs an ordered list of commands as a unit without any
// failure policy: every child executes, and Undo reverses every child in
// reverse order, leaving it to each child's own guard to skip the ones that
// did not succeed. Partial effects are possible.
type CompositeCommand struct {
	commands []Command
	status   domain.CommandStatus
}

// NewCompositeCommand creates a composite over cmds. The slice is copied.
func NewCompositeCommand(cmds ...Command) *CompositeCommand {
	return &CompositeCommand{
		commands: append([]Command(nil), cmds...),
		status:   domain.StatusPending,
	}
}

// Add appends a command to the end of the sequence.
func (c *CompositeCommand) Add(cmd Command) {
	c.commands = append(c.commands, cmd)
}

// Commands returns the children in execution order.
func (c *CompositeCommand) Commands() []Command {
	return append([]Command(nil), c.commands...)
}

// Execute runs every child in order. The resulting status is SUCCEEDED only if
// every child succeeded; it is informational and does not gate Undo.
func (c *CompositeCommand) Execute() {
	ok := true
	for _, cmd := range c.commands {
		cmd.Execute()
		ok = ok && cmd.Succeeded()
	}
	c.status = statusOf(ok)
}

// Undo reverses every child in reverse order.
func (c *CompositeCommand) Undo() {
	c.undoFrom(len(c.commands) - 1)
}

func (c *CompositeCommand) undoFrom(last int) {
	for i := last; i >= 0; i-- {
		c.commands[i].Undo()
	}
}

func (c *CompositeCommand) Status() domain.CommandStatus { return c.status }

func (c *CompositeCommand) Succeeded() bool { return c.status == domain.StatusSucceeded }

func (c *CompositeCommand) restore(status domain.CommandStatus) { c.status = status }

// DependentCompositeCommand is an all-or-nothing composite. Execution stops at
// the first child that does not succeed; children after it stay PENDING and
// the ones already run are undone, so a failed run leaves no effects behind.
type DependentCompositeCommand struct {
	CompositeCommand
}

// NewDependentCompositeCommand creates a fail-fast composite over cmds.
func NewDependentCompositeCommand(cmds ...Command) *DependentCompositeCommand {
	return &DependentCompositeCommand{CompositeCommand: *NewCompositeCommand(cmds...)}
}

// Execute runs the children in order until one fails. An empty composite succeeds.
func (c *DependentCompositeCommand) Execute() {
	for i, cmd := range c.commands {
		cmd.Execute()
		if !cmd.Succeeded() {
			// the failing child is included: a nested unconditional composite
			// may have applied part of its work
			c.undoFrom(i)
			c.status = domain.StatusFailed
			return
		}
	}
	c.status = domain.StatusSucceeded
}

// Undo reverses all children, but only after a successful Execute.
func (c *DependentCompositeCommand) Undo() {
	if !c.Succeeded() {
		return
	}
	c.CompositeCommand.Undo()
}
