package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/command_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/command_ledger/internal/apperrors"
	"github.com/SscSPs/command_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/command_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/command_ledger/internal/core/ports/services"
	"github.com/SscSPs/command_ledger/internal/core/services"
	"github.com/SscSPs/command_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type ledgerFixture struct {
	ctx    context.Context
	store  *memory.Store
	ledger portssvc.LedgerSvcFacade
}

// newLedgerFixture seeds the store with accounts at the given balances and a
// clock that advances one second per call.
func newLedgerFixture(t *testing.T, balances map[string]string) *ledgerFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for id, b := range balances {
		require.NoError(t, store.SaveAccount(ctx, domain.Account{
			AccountID:      id,
			Name:           id,
			Balance:        dec(b),
			OverdraftLimit: domain.DefaultOverdraftLimit,
			IsActive:       true,
			AuditFields:    domain.AuditFields{CreatedAt: base},
		}))
	}

	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	seq := 0
	ids := func() string {
		seq++
		return fmt.Sprintf("cmd-%03d", seq)
	}

	return &ledgerFixture{
		ctx:    ctx,
		store:  store,
		ledger: services.NewLedgerService(store, store, services.WithClock(clock), services.WithIDGenerator(ids)),
	}
}

func (f *ledgerFixture) balance(t *testing.T, id string) string {
	t.Helper()
	acc, err := f.store.FindAccountByID(f.ctx, id)
	require.NoError(t, err)
	return acc.Balance.String()
}

func transfer(from, to, amount string) domain.CommandSpec {
	return domain.CommandSpec{Kind: domain.Transfer, AccountID: from, ToAccountID: to, Amount: dec(amount)}
}

func TestExecuteCommand_Transfer(t *testing.T) {
	f := newLedgerFixture(t, map[string]string{"a": "100", "b": "0"})

	rec, err := f.ledger.ExecuteCommand(f.ctx, transfer("a", "b", "30"), "u1")
	require.NoError(t, err)

	assert.Equal(t, "cmd-001", rec.CommandID)
	assert.Equal(t, domain.StatusSucceeded, rec.Status)
	assert.Equal(t, []domain.CommandStatus{domain.StatusSucceeded, domain.StatusSucceeded, domain.StatusSucceeded}, rec.NodeStatuses)
	assert.Equal(t, "70", f.balance(t, "a"))
	assert.Equal(t, "30", f.balance(t, "b"))
	assert.Equal(t, "70", rec.Balances["a"].String())
	assert.Equal(t, "u1", rec.CreatedBy)
}

func TestExecuteCommand_FailedTransferLeavesBalances(t *testing.T) {
	f := newLedgerFixture(t, map[string]string{"a": "100", "b": "0"})

	rec, err := f.ledger.ExecuteCommand(f.ctx, transfer("a", "b", "601"), "u1")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.Equal(t, "100", f.balance(t, "a"))
	assert.Equal(t, "0", f.balance(t, "b"))

	stored, err := f.ledger.GetCommand(f.ctx, rec.CommandID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.Status)
}

func TestExecuteCommand_CompositeKeepsGoing(t *testing.T) {
	f := newLedgerFixture(t, map[string]string{"a": "0", "b": "0"})

	spec := domain.CommandSpec{Kind: domain.Composite, Children: []domain.CommandSpec{
		{Kind: domain.Withdraw, AccountID: "a", Amount: dec("1000")},
		{Kind: domain.Deposit, AccountID: "b", Amount: dec("25")},
	}}
	rec, err := f.ledger.ExecuteCommand(f.ctx, spec, "u1")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.Equal(t, "0", f.balance(t, "a"))
	assert.Equal(t, "25", f.balance(t, "b"))
}

func TestExecuteCommand_Rejections(t *testing.T) {
	f := newLedgerFixture(t, map[string]string{"a": "10"})
	require.NoError(t, f.store.SaveAccount(f.ctx, domain.Account{AccountID: "closed"}))

	_, err := f.ledger.ExecuteCommand(f.ctx, domain.CommandSpec{Kind: "NOPE"}, "u1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.ledger.ExecuteCommand(f.ctx, transfer("a", "ghost", "1"), "u1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.ledger.ExecuteCommand(f.ctx, transfer("a", "closed", "1"), "u1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	assert.Equal(t, "10", f.balance(t, "a"))
	page, err := f.ledger.ListCommands(f.ctx, dto.ListCommandsParams{})
	require.NoError(t, err)
	assert.Empty(t, page.Commands, "rejected commands are not recorded")
}

func TestUndoCommand_RestoresBalancesOnce(t *testing.T) {
	f := newLedgerFixture(t, map[string]string{"a": "100", "b": "0"})

	rec, err := f.ledger.ExecuteCommand(f.ctx, transfer("a", "b", "40"), "u1")
	require.NoError(t, err)

	undone, err := f.ledger.UndoCommand(f.ctx, rec.CommandID, "u2")
	require.NoError(t, err)
	assert.True(t, undone.Undone)
	require.NotNil(t, undone.UndoneBy)
	assert.Equal(t, "u2", *undone.UndoneBy)
	assert.Equal(t, domain.StatusSucceeded, undone.Status, "undo keeps the execution status")
	assert.Equal(t, "100", f.balance(t, "a"))
	assert.Equal(t, "0", f.balance(t, "b"))

	_, err = f.ledger.UndoCommand(f.ctx, rec.CommandID, "u2")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, "100", f.balance(t, "a"))

	_, err = f.ledger.UndoCommand(f.ctx, "missing", "u2")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUndoCommand_FailedLeavesAreSkipped(t *testing.T) {
	f := newLedgerFixture(t, map[string]string{"a": "0", "b": "0"})

	spec := domain.CommandSpec{Kind: domain.Composite, Children: []domain.CommandSpec{
		{Kind: domain.Deposit, AccountID: "a", Amount: dec("50")},
		{Kind: domain.Withdraw, AccountID: "b", Amount: dec("600")},
		{Kind: domain.Withdraw, AccountID: "b", Amount: dec("20")},
	}}
	rec, err := f.ledger.ExecuteCommand(f.ctx, spec, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.Equal(t, "50", f.balance(t, "a"))
	assert.Equal(t, "-20", f.balance(t, "b"))

	_, err = f.ledger.UndoCommand(f.ctx, rec.CommandID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "0", f.balance(t, "a"))
	assert.Equal(t, "0", f.balance(t, "b"))
}

func TestUndoCommand_AfterLaterActivity(t *testing.T) {
	f := newLedgerFixture(t, map[string]string{"a": "0"})

	first, err := f.ledger.ExecuteCommand(f.ctx, domain.CommandSpec{Kind: domain.Deposit, AccountID: "a", Amount: dec("80")}, "u1")
	require.NoError(t, err)
	_, err = f.ledger.ExecuteCommand(f.ctx, domain.CommandSpec{Kind: domain.Deposit, AccountID: "a", Amount: dec("5")}, "u1")
	require.NoError(t, err)

	_, err = f.ledger.UndoCommand(f.ctx, first.CommandID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "5", f.balance(t, "a"))
}

func TestUndoCommand_TransferWhoseDestinationWasDrained(t *testing.T) {
	f := newLedgerFixture(t, map[string]string{"a": "1000", "b": "0"})

	moved, err := f.ledger.ExecuteCommand(f.ctx, transfer("a", "b", "300"), "u1")
	require.NoError(t, err)
	spent, err := f.ledger.ExecuteCommand(f.ctx, domain.CommandSpec{Kind: domain.Withdraw, AccountID: "b", Amount: dec("800")}, "u1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusSucceeded, spent.Status)

	_, err = f.ledger.UndoCommand(f.ctx, moved.CommandID, "u1")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Equal(t, "700", f.balance(t, "a"))
	assert.Equal(t, "-500", f.balance(t, "b"))

	stored, err := f.ledger.GetCommand(f.ctx, moved.CommandID)
	require.NoError(t, err)
	assert.False(t, stored.Undone)
	assert.Nil(t, stored.UndoneAt)

	// once the spending is reversed the transfer can be undone
	_, err = f.ledger.UndoCommand(f.ctx, spent.CommandID, "u1")
	require.NoError(t, err)
	_, err = f.ledger.UndoCommand(f.ctx, moved.CommandID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "1000", f.balance(t, "a"))
	assert.Equal(t, "0", f.balance(t, "b"))
}

func TestUndoCommand_DepositAlreadySpent(t *testing.T) {
	f := newLedgerFixture(t, map[string]string{"a": "0", "b": "0"})

	spec := domain.CommandSpec{Kind: domain.Composite, Children: []domain.CommandSpec{
		{Kind: domain.Deposit, AccountID: "a", Amount: dec("100")},
		{Kind: domain.Withdraw, AccountID: "b", Amount: dec("100")},
	}}
	rec, err := f.ledger.ExecuteCommand(f.ctx, spec, "u1")
	require.NoError(t, err)
	_, err = f.ledger.ExecuteCommand(f.ctx, domain.CommandSpec{Kind: domain.Withdraw, AccountID: "a", Amount: dec("600")}, "u1")
	require.NoError(t, err)
	require.Equal(t, "-500", f.balance(t, "a"))

	_, err = f.ledger.UndoCommand(f.ctx, rec.CommandID, "u1")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Contains(t, err.Error(), "account(s) a no longer")
	assert.Equal(t, "-500", f.balance(t, "a"))
	assert.Equal(t, "-100", f.balance(t, "b"), "the other leg is not reversed either")

	stored, err := f.ledger.GetCommand(f.ctx, rec.CommandID)
	require.NoError(t, err)
	assert.False(t, stored.Undone)
}

func TestUndoCommand_DeactivatedAccount(t *testing.T) {
	f := newLedgerFixture(t, map[string]string{"a": "0"})

	rec, err := f.ledger.ExecuteCommand(f.ctx, domain.CommandSpec{Kind: domain.Deposit, AccountID: "a", Amount: dec("10")}, "u1")
	require.NoError(t, err)
	require.NoError(t, f.store.DeactivateAccount(f.ctx, "a", "u1", time.Now()))

	_, err = f.ledger.UndoCommand(f.ctx, rec.CommandID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "0", f.balance(t, "a"))
}

func TestListCommands_Pagination(t *testing.T) {
	f := newLedgerFixture(t, map[string]string{"a": "0"})
	for i := 0; i < 5; i++ {
		_, err := f.ledger.ExecuteCommand(f.ctx, domain.CommandSpec{Kind: domain.Deposit, AccountID: "a", Amount: dec("1")}, "u1")
		require.NoError(t, err)
	}

	first, err := f.ledger.ListCommands(f.ctx, dto.ListCommandsParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Commands, 2)
	assert.Equal(t, "cmd-005", first.Commands[0].CommandID)
	require.NotNil(t, first.NextToken)

	second, err := f.ledger.ListCommands(f.ctx, dto.ListCommandsParams{Limit: 2, NextToken: *first.NextToken})
	require.NoError(t, err)
	require.Len(t, second.Commands, 2)
	assert.Equal(t, "cmd-003", second.Commands[0].CommandID)

	last, err := f.ledger.ListCommands(f.ctx, dto.ListCommandsParams{Limit: 2, NextToken: *second.NextToken})
	require.NoError(t, err)
	require.Len(t, last.Commands, 1)
	assert.Equal(t, "cmd-001", last.Commands[0].CommandID)
	assert.Nil(t, last.NextToken)

	_, err = f.ledger.ListCommands(f.ctx, dto.ListCommandsParams{NextToken: "%%%"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

// --- Mock CommandRepository ---
type MockCommandRepository struct {
	mock.Mock
}

func (m *MockCommandRepository) FindCommandByID(ctx context.Context, commandID string) (*domain.CommandRecord, error) {
	args := m.Called(ctx, commandID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommandRecord), args.Error(1)
}

func (m *MockCommandRepository) ListCommands(ctx context.Context, limit int, before *portsrepo.CommandCursor) ([]domain.CommandRecord, error) {
	args := m.Called(ctx, limit, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CommandRecord), args.Error(1)
}

func (m *MockCommandRepository) SaveCommandResult(ctx context.Context, record domain.CommandRecord, userID string, now time.Time) error {
	args := m.Called(ctx, record, userID, now)
	return args.Error(0)
}

var _ portsrepo.CommandRepositoryFacade = (*MockCommandRepository)(nil)

func TestExecuteCommand_SaveFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.SaveAccount(ctx, domain.Account{AccountID: "a", IsActive: true, OverdraftLimit: domain.DefaultOverdraftLimit}))

	repo := new(MockCommandRepository)
	dbErr := errors.New("connection reset")
	repo.On("SaveCommandResult", mock.Anything, mock.Anything, "u1", mock.Anything).Return(dbErr).Once()

	ledger := services.NewLedgerService(store, repo)
	_, err := ledger.ExecuteCommand(ctx, domain.CommandSpec{Kind: domain.Deposit, AccountID: "a", Amount: dec("10")}, "u1")

	assert.ErrorIs(t, err, dbErr)
	acc, _ := store.FindAccountByID(ctx, "a")
	assert.True(t, acc.Balance.IsZero(), "balances are only written through SaveCommandResult")
	repo.AssertExpectations(t)
}

func TestListCommands_RepositoryError(t *testing.T) {
	repo := new(MockCommandRepository)
	repo.On("ListCommands", mock.Anything, 21, (*portsrepo.CommandCursor)(nil)).Return(nil, errors.New("boom")).Once()

	ledger := services.NewLedgerService(memory.NewStore(), repo)
	_, err := ledger.ListCommands(context.Background(), dto.ListCommandsParams{})

	assert.Error(t, err)
	repo.AssertExpectations(t)
}
