package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/command_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/command_ledger/internal/apperrors"
	"github.com/SscSPs/command_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/command_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/command_ledger/internal/core/services"
	"github.com/SscSPs/command_ledger/internal/dto"
	"github.com/SscSPs/command_ledger/internal/platform/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mock AccountRepository ---
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	args := m.Called(ctx, accountID, userID, now)
	return args.Error(0)
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func TestCreateAccount_Defaults(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAccountRepository)
	repo.On("SaveAccount", ctx, mock.MatchedBy(func(a domain.Account) bool {
		return a.Name == "Checking" && a.IsActive && a.Balance.IsZero() &&
			a.OverdraftLimit.Equal(decimal.NewFromInt(-250)) && a.CreatedBy == "u1" && a.AccountID != ""
	})).Return(nil).Once()

	svc := services.NewAccountService(repo, services.WithDefaultOverdraftLimit(decimal.NewFromInt(-250)))
	acc, err := svc.CreateAccount(ctx, dto.CreateAccountRequest{Name: "Checking"}, "u1")

	require.NoError(t, err)
	assert.Equal(t, "Checking", acc.Name)
	repo.AssertExpectations(t)
}

func TestCreateAccount_Validation(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAccountRepository)
	svc := services.NewAccountService(repo)

	_, err := svc.CreateAccount(ctx, dto.CreateAccountRequest{Name: "X", OverdraftLimit: decimalPtr(decimal.NewFromInt(1))}, "u1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreateAccount(ctx, dto.CreateAccountRequest{Name: "X", InitialDeposit: decimalPtr(decimal.NewFromInt(-1))}, "u1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreateAccount(ctx, dto.CreateAccountRequest{Name: "X", InitialDeposit: decimalPtr(decimal.NewFromInt(5))}, "u1")
	assert.Error(t, err, "a deposit needs a command executor")

	repo.AssertNotCalled(t, "SaveAccount", mock.Anything, mock.Anything)
}

func TestCreateAccount_RepositoryError(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAccountRepository)
	repo.On("SaveAccount", ctx, mock.Anything).Return(apperrors.ErrDuplicate).Once()

	_, err := services.NewAccountService(repo).CreateAccount(ctx, dto.CreateAccountRequest{Name: "X"}, "u1")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
}

func TestCreateAccount_InitialDepositIsRecorded(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	cfg := &config.Config{DefaultOverdraftLimit: domain.DefaultOverdraftLimit}
	container := services.NewServiceContainer(cfg, store.Provider())

	acc, err := container.Account.CreateAccount(ctx, dto.CreateAccountRequest{Name: "Wallet", InitialDeposit: decimalPtr(decimal.NewFromInt(75))}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "75", acc.Balance.String())

	page, err := container.Ledger.ListCommands(ctx, dto.ListCommandsParams{})
	require.NoError(t, err)
	require.Len(t, page.Commands, 1)
	assert.Equal(t, domain.Deposit, page.Commands[0].Kind)

	_, err = container.Ledger.UndoCommand(ctx, page.Commands[0].CommandID, "u1")
	require.NoError(t, err)
	again, err := container.Account.GetAccountByID(ctx, acc.AccountID)
	require.NoError(t, err)
	assert.True(t, again.Balance.IsZero())
}

func TestGetAccountByID(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAccountRepository)
	repo.On("FindAccountByID", ctx, "a").Return(&domain.Account{AccountID: "a"}, nil).Once()
	repo.On("FindAccountByID", ctx, "b").Return(nil, apperrors.ErrNotFound).Once()
	svc := services.NewAccountService(repo)

	acc, err := svc.GetAccountByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", acc.AccountID)

	_, err = svc.GetAccountByID(ctx, "b")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListAccounts(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAccountRepository)
	repo.On("ListAccounts", ctx, 10, 0).Return(nil, nil).Once()
	repo.On("ListAccounts", ctx, 10, 10).Return(nil, errors.New("db down")).Once()
	svc := services.NewAccountService(repo)

	accounts, err := svc.ListAccounts(ctx, 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, accounts)
	assert.Empty(t, accounts)

	_, err = svc.ListAccounts(ctx, 10, 10)
	assert.Error(t, err)
}

func TestDeactivateAccount(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAccountRepository)
	repo.On("DeactivateAccount", ctx, "a", "u1", mock.AnythingOfType("time.Time")).Return(nil).Once()

	require.NoError(t, services.NewAccountService(repo).DeactivateAccount(ctx, "a", "u1"))
	repo.AssertExpectations(t)
}
