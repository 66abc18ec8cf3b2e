// Package commands implements reversible balance operations.
//
// A Command executes once and may be undone once. Failures are never errors:
// they are recorded in the command's status, and Undo of a command that did not
// succeed is a no-op. Composite commands build on that guard.
package commands

import (
	"fmt"

	"github.com/SscSPs/command_ledger/internal/apperrors"
	"github.com/SscSPs/command_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Command is a reversible operation.
type Command interface {
	Execute()
	Undo()
	Status() domain.CommandStatus
	Succeeded() bool
}

// Target is the account a leaf command operates on. *domain.Account satisfies it.
// Commands hold the reference; the caller keeps the target alive.
type Target interface {
	Deposit(amount decimal.Decimal)
	Withdraw(amount decimal.Decimal) bool
}

// restorer is implemented by every command in this package so persisted
// statuses can be put back on a rebuilt tree.
type restorer interface {
	restore(status domain.CommandStatus)
}

// AccountCommand deposits to or withdraws from a single target.
type AccountCommand struct {
	target Target
	action domain.CommandKind
	amount decimal.Decimal
	status domain.CommandStatus
}

// NewAccountCommand creates a deposit or withdraw command.
func NewAccountCommand(target Target, action domain.CommandKind, amount decimal.Decimal) (*AccountCommand, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: command target is required", apperrors.ErrValidation)
	}
	if action != domain.Deposit && action != domain.Withdraw {
		return nil, fmt.Errorf("%w: '%s' is not an account action", apperrors.ErrValidation, action)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative, got %s", apperrors.ErrValidation, amount)
	}
	return &AccountCommand{
		target: target,
		action: action,
		amount: amount,
		status: domain.StatusPending,
	}, nil
}

// NewDeposit is shorthand for NewAccountCommand(target, domain.Deposit, amount).
func NewDeposit(target Target, amount decimal.Decimal) (*AccountCommand, error) {
	return NewAccountCommand(target, domain.Deposit, amount)
}

// NewWithdraw is shorthand for NewAccountCommand(target, domain.Withdraw, amount).
func NewWithdraw(target Target, amount decimal.Decimal) (*AccountCommand, error) {
	return NewAccountCommand(target, domain.Withdraw, amount)
}

func (c *AccountCommand) Execute() {
	switch c.action {
	case domain.Deposit:
		c.target.Deposit(c.amount)
		c.status = domain.StatusSucceeded
	case domain.Withdraw:
		c.status = statusOf(c.target.Withdraw(c.amount))
	}
}

// Undo reverses a successful Execute. The reversing withdrawal of a deposit
// ignores its own result.
func (c *AccountCommand) Undo() {
	if !c.Succeeded() {
		return
	}
	switch c.action {
	case domain.Deposit:
		c.target.Withdraw(c.amount)
	case domain.Withdraw:
		c.target.Deposit(c.amount)
	}
}

func (c *AccountCommand) Status() domain.CommandStatus { return c.status }

func (c *AccountCommand) Succeeded() bool { return c.status == domain.StatusSucceeded }

// Action returns DEPOSIT or WITHDRAW.
func (c *AccountCommand) Action() domain.CommandKind { return c.action }

// Amount returns the amount moved by the command.
func (c *AccountCommand) Amount() decimal.Decimal { return c.amount }

func (c *AccountCommand) restore(status domain.CommandStatus) { c.status = status }

func statusOf(ok bool) domain.CommandStatus {
	if ok {
		return domain.StatusSucceeded
	}
	return domain.StatusFailed
}
