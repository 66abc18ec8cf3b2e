package services

import (
	"context"

	"github.com/SscSPs/command_ledger/internal/core/domain"
	"github.com/SscSPs/command_ledger/internal/dto"
)

// CommandExecutorSvc runs and reverses command trees against stored accounts.
type CommandExecutorSvc interface {
	// ExecuteCommand builds the tree described by spec, executes it and records
	// the outcome. A command that fails on funds is returned with status FAILED
	// and a nil error.
	ExecuteCommand(ctx context.Context, spec domain.CommandSpec, userID string) (*domain.CommandRecord, error)

	// UndoCommand reverses a previously executed command. Each command can be
	// undone once. If a reversing withdrawal would breach an overdraft limit
	// because the funds were spent since, nothing changes and ErrConflict is
	// returned.
	UndoCommand(ctx context.Context, commandID string, userID string) (*domain.CommandRecord, error)
}

// CommandHistorySvc defines read operations over executed commands
type CommandHistorySvc interface {
	GetCommand(ctx context.Context, commandID string) (*domain.CommandRecord, error)
	ListCommands(ctx context.Context, params dto.ListCommandsParams) (*dto.ListCommandsResponse, error)
}

// LedgerSvcFacade combines all ledger-related service interfaces
type LedgerSvcFacade interface {
	CommandExecutorSvc
	CommandHistorySvc
}
