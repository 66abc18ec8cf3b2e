package dto

import (
	"time"

	"github.com/SscSPs/command_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CommandRequest describes a command tree to execute.
// Leaf kinds (DEPOSIT, WITHDRAW, TRANSFER) need accountID and amount, TRANSFER
// also toAccountID; COMPOSITE and DEPENDENT take nested commands.
type CommandRequest struct {
	Kind        domain.CommandKind `json:"kind" binding:"required,oneof=DEPOSIT WITHDRAW TRANSFER COMPOSITE DEPENDENT"`
	AccountID   string             `json:"accountID,omitempty"`
	ToAccountID string             `json:"toAccountID,omitempty"`
	Amount      *decimal.Decimal   `json:"amount,omitempty"`
	Commands    []CommandRequest   `json:"commands,omitempty" binding:"omitempty,max=100,dive"`
}

// ToSpec converts the request tree into a domain.CommandSpec.
func (r CommandRequest) ToSpec() domain.CommandSpec {
	spec := domain.CommandSpec{
		Kind:        r.Kind,
		AccountID:   r.AccountID,
		ToAccountID: r.ToAccountID,
	}
	if r.Amount != nil {
		spec.Amount = *r.Amount
	}
	if len(r.Commands) > 0 {
		spec.Children = make([]domain.CommandSpec, len(r.Commands))
		for i, c := range r.Commands {
			spec.Children[i] = c.ToSpec()
		}
	}
	return spec
}

// CommandResponse defines the data returned for an executed command.
type CommandResponse struct {
	CommandID    string                     `json:"commandID"`
	Kind         domain.CommandKind         `json:"kind"`
	Status       domain.CommandStatus       `json:"status"`
	Succeeded    bool                       `json:"succeeded"`
	Undone       bool                       `json:"undone"`
	UndoneAt     *time.Time                 `json:"undoneAt,omitempty"`
	UndoneBy     *string                    `json:"undoneBy,omitempty"`
	Spec         domain.CommandSpec         `json:"spec"`
	NodeStatuses []domain.CommandStatus     `json:"nodeStatuses"`
	Balances     map[string]decimal.Decimal `json:"balances"`
	CreatedAt    time.Time                  `json:"createdAt"`
	CreatedBy    string                     `json:"createdBy"`
}

// ToCommandResponse converts a domain.CommandRecord to CommandResponse DTO
func ToCommandResponse(rec *domain.CommandRecord) CommandResponse {
	return CommandResponse{
		CommandID:    rec.CommandID,
		Kind:         rec.Spec.Kind,
		Status:       rec.Status,
		Succeeded:    rec.Status == domain.StatusSucceeded,
		Undone:       rec.Undone,
		UndoneAt:     rec.UndoneAt,
		UndoneBy:     rec.UndoneBy,
		Spec:         rec.Spec,
		NodeStatuses: rec.NodeStatuses,
		Balances:     rec.Balances,
		CreatedAt:    rec.CreatedAt,
		CreatedBy:    rec.CreatedBy,
	}
}

// ListCommandsParams defines query parameters for listing command history.
type ListCommandsParams struct {
	Limit     int    `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken string `form:"nextToken"` // Token from the previous page
}

// ListCommandsResponse wraps a page of command history.
type ListCommandsResponse struct {
	Commands  []CommandResponse `json:"commands"`
	NextToken *string           `json:"nextToken,omitempty"` // Absent on the last page
}
