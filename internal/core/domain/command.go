package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/command_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// CommandKind identifies the shape of a command node.
type CommandKind string

const (
	Deposit   CommandKind = "DEPOSIT"
	Withdraw  CommandKind = "WITHDRAW"
	Transfer  CommandKind = "TRANSFER"
	Composite CommandKind = "COMPOSITE" // runs every child regardless of failures
	Dependent CommandKind = "DEPENDENT" // stops and rolls back on the first failure
)

// CommandStatus records the outcome of the last Execute of a command.
type CommandStatus string

const (
	StatusPending   CommandStatus = "PENDING"
	StatusSucceeded CommandStatus = "SUCCEEDED"
	StatusFailed    CommandStatus = "FAILED"
)

// CommandSpec is the serialisable description of a command tree.
// Leaf kinds use AccountID and Amount; TRANSFER also uses ToAccountID;
// COMPOSITE and DEPENDENT use Children only.
type CommandSpec struct {
	Kind        CommandKind     `json:"kind"`
	AccountID   string          `json:"accountID,omitempty"`
	ToAccountID string          `json:"toAccountID,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Children    []CommandSpec   `json:"children,omitempty"`
}

// MaxCommandDepth bounds how deeply composites may nest. A leaf at the root
// has depth 1.
const MaxCommandDepth = 8

// Validate checks the spec tree for structural errors.
func (s CommandSpec) Validate() error {
	return s.validate(1)
}

func (s CommandSpec) validate(depth int) error {
	if depth > MaxCommandDepth {
		return fmt.Errorf("%w: commands nest deeper than %d levels", apperrors.ErrValidation, MaxCommandDepth)
	}
	switch s.Kind {
	case Deposit, Withdraw:
		if s.AccountID == "" {
			return fmt.Errorf("%w: %s command requires accountID", apperrors.ErrValidation, s.Kind)
		}
	case Transfer:
		if s.AccountID == "" || s.ToAccountID == "" {
			return fmt.Errorf("%w: transfer requires accountID and toAccountID", apperrors.ErrValidation)
		}
		if s.AccountID == s.ToAccountID {
			return fmt.Errorf("%w: transfer source and destination must differ", apperrors.ErrValidation)
		}
	case Composite, Dependent:
		for i, child := range s.Children {
			if err := child.validate(depth + 1); err != nil {
				return fmt.Errorf("child %d: %w", i, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown command kind '%s'", apperrors.ErrValidation, s.Kind)
	}
	if s.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must not be negative", apperrors.ErrValidation)
	}
	return nil
}

// AccountIDs returns every account referenced by the tree, in first-seen order.
func (s CommandSpec) AccountIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	var visit func(CommandSpec)
	visit = func(n CommandSpec) {
		for _, id := range []string{n.AccountID, n.ToAccountID} {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(s)
	return ids
}

// CommandRecord is the persisted history entry of an executed command tree.
type CommandRecord struct {
	CommandID    string                     `json:"commandID"`
	Spec         CommandSpec                `json:"spec"`
	Status       CommandStatus              `json:"status"`
	NodeStatuses []CommandStatus            `json:"nodeStatuses"` // pre-order, see commands.Statuses
	Undone       bool                       `json:"undone"`
	UndoneAt     *time.Time                 `json:"undoneAt,omitempty"`
	UndoneBy     *string                    `json:"undoneBy,omitempty"`
	Balances     map[string]decimal.Decimal `json:"balances"` // account balances after the last operation
	AuditFields
}
