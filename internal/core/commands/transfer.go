package commands

import (
	"fmt"

	"github.com/SscSPs/command_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransferCommand moves amount from one target to another: a withdrawal from
// the source followed by a deposit to the destination, run as a dependent
// composite. If the withdrawal fails the deposit never runs.
type TransferCommand struct {
	inner *DependentCompositeCommand
}

// NewTransferCommand builds a transfer of amount from -> to.
func NewTransferCommand(from, to Target, amount decimal.Decimal) (*TransferCommand, error) {
	withdraw, err := NewWithdraw(from, amount)
	if err != nil {
		return nil, fmt.Errorf("transfer source: %w", err)
	}
	deposit, err := NewDeposit(to, amount)
	if err != nil {
		return nil, fmt.Errorf("transfer destination: %w", err)
	}
	return &TransferCommand{inner: NewDependentCompositeCommand(withdraw, deposit)}, nil
}

func (t *TransferCommand) Execute() { t.inner.Execute() }

func (t *TransferCommand) Undo() { t.inner.Undo() }

func (t *TransferCommand) Status() domain.CommandStatus { return t.inner.Status() }

func (t *TransferCommand) Succeeded() bool { return t.inner.Succeeded() }

// Commands returns the withdrawal and the deposit legs.
func (t *TransferCommand) Commands() []Command { return t.inner.Commands() }

func (t *TransferCommand) restore(status domain.CommandStatus) { t.inner.restore(status) }
