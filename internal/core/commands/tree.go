package commands

import (
	"fmt"

	"github.com/SscSPs/command_ledger/internal/apperrors"
	"github.com/SscSPs/command_ledger/internal/core/domain"
)

// parent is implemented by commands that contain other commands.
type parent interface {
	Commands() []Command
}

// Walk visits cmd and its descendants pre-order. A transfer is visited once,
// followed by its two legs.
func Walk(cmd Command, fn func(Command)) {
	fn(cmd)
	if p, ok := cmd.(parent); ok {
		for _, child := range p.Commands() {
			Walk(child, fn)
		}
	}
}

// Statuses returns the status of every node in Walk order.
func Statuses(cmd Command) []domain.CommandStatus {
	var out []domain.CommandStatus
	Walk(cmd, func(c Command) {
		out = append(out, c.Status())
	})
	return out
}

// RestoreStatuses puts statuses captured by Statuses back onto a tree of the
// same shape, so that a rebuilt command can be undone.
func RestoreStatuses(cmd Command, statuses []domain.CommandStatus) error {
	i := 0
	var err error
	Walk(cmd, func(c Command) {
		if err != nil {
			return
		}
		if i >= len(statuses) {
			err = fmt.Errorf("%w: status list shorter than command tree", apperrors.ErrValidation)
			return
		}
		r, ok := c.(restorer)
		if !ok {
			err = fmt.Errorf("%w: command %T cannot be restored", apperrors.ErrValidation, c)
			return
		}
		r.restore(statuses[i])
		i++
	})
	if err != nil {
		return err
	}
	if i != len(statuses) {
		return fmt.Errorf("%w: status list longer than command tree (%d > %d)", apperrors.ErrValidation, len(statuses), i)
	}
	return nil
}

// Build turns a spec tree into commands bound to targets, keyed by account ID.
func Build(spec domain.CommandSpec, targets map[string]Target) (Command, error) {
	switch spec.Kind {
	case domain.Deposit, domain.Withdraw:
		target, err := lookup(targets, spec.AccountID)
		if err != nil {
			return nil, err
		}
		return NewAccountCommand(target, spec.Kind, spec.Amount)
	case domain.Transfer:
		from, err := lookup(targets, spec.AccountID)
		if err != nil {
			return nil, err
		}
		to, err := lookup(targets, spec.ToAccountID)
		if err != nil {
			return nil, err
		}
		return NewTransferCommand(from, to, spec.Amount)
	case domain.Composite, domain.Dependent:
		children := make([]Command, 0, len(spec.Children))
		for i, childSpec := range spec.Children {
			child, err := Build(childSpec, targets)
			if err != nil {
				return nil, fmt.Errorf("child %d: %w", i, err)
			}
			children = append(children, child)
		}
		if spec.Kind == domain.Dependent {
			return NewDependentCompositeCommand(children...), nil
		}
		return NewCompositeCommand(children...), nil
	default:
		return nil, fmt.Errorf("%w: unknown command kind '%s'", apperrors.ErrValidation, spec.Kind)
	}
}

func lookup(targets map[string]Target, accountID string) (Target, error) {
	target, ok := targets[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return target, nil
}
