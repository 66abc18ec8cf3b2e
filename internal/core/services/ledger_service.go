package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/SscSPs/command_ledger/internal/apperrors"
	"github.com/SscSPs/command_ledger/internal/core/commands"
	"github.com/SscSPs/command_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/command_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/command_ledger/internal/core/ports/services"
	"github.com/SscSPs/command_ledger/internal/dto"
	"github.com/SscSPs/command_ledger/internal/utils/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ledgerService executes command trees against stored accounts and keeps the
// command history needed to undo them later.
type ledgerService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	commandRepo portsrepo.CommandRepositoryFacade

	// mu serialises execute and undo: commands mutate loaded accounts in place
	// and the balances are written back afterwards.
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// LedgerOption is a functional option for configuring the ledger service
type LedgerOption func(*ledgerService)

// WithClock overrides the time source used for audit fields.
func WithClock(now func() time.Time) LedgerOption {
	return func(s *ledgerService) {
		s.now = now
	}
}

// WithIDGenerator overrides the command ID generator.
func WithIDGenerator(newID func() string) LedgerOption {
	return func(s *ledgerService) {
		s.newID = newID
	}
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(accountRepo portsrepo.AccountReader, commandRepo portsrepo.CommandRepositoryFacade, options ...LedgerOption) portssvc.LedgerSvcFacade {
	svc := &ledgerService{
		accountRepo: accountRepo,
		commandRepo: commandRepo,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) ExecuteCommand(ctx context.Context, spec domain.CommandSpec, userID string) (*domain.CommandRecord, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.loadAccounts(ctx, spec.AccountIDs(), true)
	if err != nil {
		return nil, err
	}

	cmd, err := commands.Build(spec, targetsOf(accounts))
	if err != nil {
		return nil, fmt.Errorf("failed to build command: %w", err)
	}

	cmd.Execute()

	now := s.now()
	record := domain.CommandRecord{
		CommandID:    s.newID(),
		Spec:         spec,
		Status:       cmd.Status(),
		NodeStatuses: commands.Statuses(cmd),
		Balances:     balancesOf(accounts),
		AuditFields:  domain.NewAuditFields(userID, now),
	}

	if err := s.commandRepo.SaveCommandResult(ctx, record, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to save command result", slog.String("command_id", record.CommandID))
		return nil, fmt.Errorf("failed to save command result: %w", err)
	}

	s.LogInfo(ctx, "Command executed",
		slog.String("command_id", record.CommandID),
		slog.String("kind", string(spec.Kind)),
		slog.String("status", string(record.Status)))
	return &record, nil
}

func (s *ledgerService) UndoCommand(ctx context.Context, commandID string, userID string) (*domain.CommandRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.commandRepo.FindCommandByID(ctx, commandID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find command", slog.String("command_id", commandID))
		}
		return nil, err
	}
	if record.Undone {
		return nil, fmt.Errorf("%w: command %s has already been undone", apperrors.ErrConflict, commandID)
	}

	// undo is allowed on accounts deactivated since the command ran
	accounts, err := s.loadAccounts(ctx, record.Spec.AccountIDs(), false)
	if err != nil {
		return nil, err
	}

	// The loaded accounts are working copies, so a refused reversal can be
	// abandoned without touching stored balances.
	refusals := &reversalLog{}
	cmd, err := commands.Build(record.Spec, reversalTargetsOf(accounts, refusals))
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild command %s: %w", commandID, err)
	}
	if err := commands.RestoreStatuses(cmd, record.NodeStatuses); err != nil {
		return nil, fmt.Errorf("failed to restore command %s: %w", commandID, err)
	}

	cmd.Undo()
	if len(refusals.accountIDs) > 0 {
		s.LogInfo(ctx, "Undo refused, funds already spent",
			slog.String("command_id", commandID),
			slog.Any("account_ids", refusals.accountIDs))
		return nil, fmt.Errorf("%w: command %s cannot be undone: account(s) %s no longer hold the funds to reverse it",
			apperrors.ErrConflict, commandID, strings.Join(refusals.accountIDs, ", "))
	}

	now := s.now()
	record.Undone = true
	record.UndoneAt = &now
	record.UndoneBy = &userID
	record.Balances = balancesOf(accounts)
	record.Touch(userID, now)

	if err := s.commandRepo.SaveCommandResult(ctx, *record, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to save undo result", slog.String("command_id", commandID))
		return nil, fmt.Errorf("failed to save undo result: %w", err)
	}

	s.LogInfo(ctx, "Command undone",
		slog.String("command_id", commandID),
		slog.String("status", string(record.Status)))
	return record, nil
}

func (s *ledgerService) GetCommand(ctx context.Context, commandID string) (*domain.CommandRecord, error) {
	record, err := s.commandRepo.FindCommandByID(ctx, commandID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find command", slog.String("command_id", commandID))
		}
		return nil, err
	}
	return record, nil
}

func (s *ledgerService) ListCommands(ctx context.Context, params dto.ListCommandsParams) (*dto.ListCommandsResponse, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	var cursor *portsrepo.CommandCursor
	if params.NextToken != "" {
		createdAt, id, err := pagination.DecodeToken(params.NextToken)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursor = &portsrepo.CommandCursor{CreatedAt: createdAt, CommandID: id}
	}

	// one extra row tells us whether another page exists
	records, err := s.commandRepo.ListCommands(ctx, limit+1, cursor)
	if err != nil {
		s.LogError(ctx, err, "Failed to list commands", slog.Int("limit", limit))
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}

	resp := &dto.ListCommandsResponse{Commands: []dto.CommandResponse{}}
	if len(records) > limit {
		last := records[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.CommandID)
		resp.NextToken = &token
		records = records[:limit]
	}
	for i := range records {
		resp.Commands = append(resp.Commands, dto.ToCommandResponse(&records[i]))
	}

	s.LogDebug(ctx, "Commands listed", slog.Int("count", len(resp.Commands)))
	return resp, nil
}

// loadAccounts fetches every referenced account as a working copy the
// commands can mutate.
func (s *ledgerService) loadAccounts(ctx context.Context, ids []string, requireActive bool) (map[string]*domain.Account, error) {
	found, err := s.accountRepo.FindAccountsByIDs(ctx, ids)
	if err != nil {
		s.LogError(ctx, err, "Failed to load accounts for command")
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	accounts := make(map[string]*domain.Account, len(ids))
	for _, id := range ids {
		acc, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
		if requireActive && !acc.IsActive {
			return nil, fmt.Errorf("%w: account %s is inactive", apperrors.ErrValidation, id)
		}
		accounts[id] = &acc
	}
	return accounts, nil
}

func targetsOf(accounts map[string]*domain.Account) map[string]commands.Target {
	targets := make(map[string]commands.Target, len(accounts))
	for id, acc := range accounts {
		targets[id] = acc
	}
	return targets
}

// reversalLog collects the accounts whose reversing withdrawal was refused.
type reversalLog struct {
	accountIDs []string
}

// reversalTarget records refused withdrawals instead of letting Undo drop them.
type reversalTarget struct {
	*domain.Account
	log *reversalLog
}

func (t reversalTarget) Withdraw(amount decimal.Decimal) bool {
	if t.Account.Withdraw(amount) {
		return true
	}
	for _, id := range t.log.accountIDs {
		if id == t.AccountID {
			return false
		}
	}
	t.log.accountIDs = append(t.log.accountIDs, t.AccountID)
	return false
}

func reversalTargetsOf(accounts map[string]*domain.Account, log *reversalLog) map[string]commands.Target {
	targets := make(map[string]commands.Target, len(accounts))
	for id, acc := range accounts {
		targets[id] = reversalTarget{Account: acc, log: log}
	}
	return targets
}

func balancesOf(accounts map[string]*domain.Account) map[string]decimal.Decimal {
	balances := make(map[string]decimal.Decimal, len(accounts))
	for id, acc := range accounts {
		balances[id] = acc.Balance
	}
	return balances
}
