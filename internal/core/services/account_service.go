package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/command_ledger/internal/apperrors"
	"github.com/SscSPs/command_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/command_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/command_ledger/internal/core/ports/services"
	"github.com/SscSPs/command_ledger/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// accountService implements the AccountSvcFacade interface
type accountService struct {
	BaseService
	accountRepo      portsrepo.AccountRepositoryFacade
	executor         portssvc.CommandExecutorSvc
	defaultOverdraft decimal.Decimal
}

// ServiceOption is a functional option for configuring the account service
type ServiceOption func(*accountService)

// WithCommandExecutor lets CreateAccount apply initial deposits as recorded commands.
func WithCommandExecutor(executor portssvc.CommandExecutorSvc) ServiceOption {
	return func(s *accountService) {
		s.executor = executor
	}
}

// WithDefaultOverdraftLimit sets the limit used when a request does not carry one.
func WithDefaultOverdraftLimit(limit decimal.Decimal) ServiceOption {
	return func(s *accountService) {
		s.defaultOverdraft = limit
	}
}

// NewAccountService creates a new account service with the provided options
func NewAccountService(repo portsrepo.AccountRepositoryFacade, options ...ServiceOption) portssvc.AccountSvcFacade {
	svc := &accountService{
		accountRepo:      repo,
		defaultOverdraft: domain.DefaultOverdraftLimit,
	}

	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure accountService implements the AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	overdraft := s.defaultOverdraft
	if req.OverdraftLimit != nil {
		if req.OverdraftLimit.IsPositive() {
			return nil, fmt.Errorf("%w: overdraft limit must be zero or negative", apperrors.ErrValidation)
		}
		overdraft = *req.OverdraftLimit
	}
	if req.InitialDeposit != nil && req.InitialDeposit.IsNegative() {
		return nil, fmt.Errorf("%w: initial deposit must not be negative", apperrors.ErrValidation)
	}
	deposit := req.InitialDeposit != nil && req.InitialDeposit.IsPositive()
	if deposit && s.executor == nil {
		return nil, errors.New("initial deposit requested but no command executor is configured")
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:      uuid.NewString(),
		Name:           req.Name,
		Balance:        decimal.Zero,
		OverdraftLimit: overdraft,
		IsActive:       true,
		AuditFields:    domain.NewAuditFields(userID, now),
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account in repository", slog.String("account_id", account.AccountID))
		return nil, err
	}
	s.LogInfo(ctx, "Account created successfully in service", slog.String("account_id", account.AccountID))

	if !deposit {
		return &account, nil
	}

	spec := domain.CommandSpec{Kind: domain.Deposit, AccountID: account.AccountID, Amount: *req.InitialDeposit}
	if _, err := s.executor.ExecuteCommand(ctx, spec, userID); err != nil {
		s.LogError(ctx, err, "Failed to apply initial deposit", slog.String("account_id", account.AccountID))
		return nil, fmt.Errorf("account %s created but initial deposit failed: %w", account.AccountID, err)
	}

	return s.accountRepo.FindAccountByID(ctx, account.AccountID)
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		// Don't log if error is ErrNotFound, as it's an expected outcome
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by ID in repository", slog.String("account_id", accountID))
		}
		return nil, err
	}
	s.LogDebug(ctx, "Account retrieved successfully from service", slog.String("account_id", account.AccountID))
	return account, nil
}

// ListAccounts retrieves a paginated list of accounts.
func (s *accountService) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts from repository", slog.Int("limit", limit), slog.Int("offset", offset))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	if accounts == nil {
		return []domain.Account{}, nil
	}

	s.LogDebug(ctx, "Accounts listed successfully from service", slog.Int("count", len(accounts)))
	return accounts, nil
}

// DeactivateAccount marks an account as inactive. Commands already executed
// against it can still be undone.
func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	err := s.accountRepo.DeactivateAccount(ctx, accountID, userID, time.Now().UTC())
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to deactivate account in repository", slog.String("account_id", accountID))
		}
		return err
	}

	s.LogInfo(ctx, "Account deactivated successfully in service", slog.String("account_id", accountID))
	return nil
}
