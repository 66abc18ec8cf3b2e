package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/command_ledger/internal/core/domain"
)

// CommandCursor marks a position in the newest-first command history.
type CommandCursor struct {
	CreatedAt time.Time
	CommandID string
}

// CommandReader defines read operations for command history
type CommandReader interface {
	// FindCommandByID retrieves a command record by ID.
	FindCommandByID(ctx context.Context, commandID string) (*domain.CommandRecord, error)

	// ListCommands returns up to limit records, newest first, strictly older
	// than the cursor when one is given.
	ListCommands(ctx context.Context, limit int, before *CommandCursor) ([]domain.CommandRecord, error)
}

// CommandWriter defines write operations for command history
type CommandWriter interface {
	// SaveCommandResult upserts the record and writes record.Balances onto the
	// accounts in a single atomic step.
	SaveCommandResult(ctx context.Context, record domain.CommandRecord, userID string, now time.Time) error
}

// CommandRepositoryFacade combines all command-related repository interfaces
type CommandRepositoryFacade interface {
	CommandReader
	CommandWriter
}
