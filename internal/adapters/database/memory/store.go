// Package memory provides process-local repositories. It is the default store
// when no database URL is configured and backs the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/command_ledger/internal/apperrors"
	"github.com/SscSPs/command_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/command_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// Store keeps accounts and command records in maps guarded by one mutex, so a
// command result and its balances are written together.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	commands map[string]domain.CommandRecord
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]domain.Account),
		commands: make(map[string]domain.CommandRecord),
	}
}

var (
	_ portsrepo.AccountRepositoryFacade = (*Store)(nil)
	_ portsrepo.CommandRepositoryFacade = (*Store)(nil)
)

// Provider returns a RepositoryProvider backed by this store.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{AccountRepo: s, CommandRepo: s}
}

func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[account.AccountID]; exists {
		return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, account.AccountID)
	}
	s.accounts[account.AccountID] = account
	return nil
}

func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return &account, nil
}

func (s *Store) FindAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.Account, len(accountIDs))
	for _, id := range accountIDs {
		if account, ok := s.accounts[id]; ok {
			out[id] = account
		}
	}
	return out, nil
}

func (s *Store) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	s.mu.RLock()
	all := make([]domain.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		all = append(all, account)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].AccountID < all[j].AccountID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	return window(all, limit, offset), nil
}

func (s *Store) DeactivateAccount(ctx context.Context, accountID string, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[accountID]
	if !ok {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	if !account.IsActive {
		return fmt.Errorf("%w: account %s is already inactive", apperrors.ErrValidation, accountID)
	}
	account.IsActive = false
	account.Touch(userID, now)
	s.accounts[accountID] = account
	return nil
}

func (s *Store) SaveCommandResult(ctx context.Context, record domain.CommandRecord, userID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range record.Balances {
		if _, ok := s.accounts[id]; !ok {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
	}
	for id, balance := range record.Balances {
		account := s.accounts[id]
		if account.Balance.Equal(balance) {
			continue
		}
		account.Balance = balance
		account.Touch(userID, now)
		s.accounts[id] = account
	}
	s.commands[record.CommandID] = cloneRecord(record)
	return nil
}

func (s *Store) FindCommandByID(ctx context.Context, commandID string) (*domain.CommandRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.commands[commandID]
	if !ok {
		return nil, fmt.Errorf("%w: command %s", apperrors.ErrNotFound, commandID)
	}
	record = cloneRecord(record)
	return &record, nil
}

func (s *Store) ListCommands(ctx context.Context, limit int, before *portsrepo.CommandCursor) ([]domain.CommandRecord, error) {
	s.mu.RLock()
	all := make([]domain.CommandRecord, 0, len(s.commands))
	for _, record := range s.commands {
		if before != nil && !olderThan(record, *before) {
			continue
		}
		all = append(all, cloneRecord(record))
	}
	s.mu.RUnlock()

	// newest first, ID descending as tie-breaker
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CommandID > all[j].CommandID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return window(all, limit, 0), nil
}

func olderThan(record domain.CommandRecord, cursor portsrepo.CommandCursor) bool {
	if record.CreatedAt.Equal(cursor.CreatedAt) {
		return record.CommandID < cursor.CommandID
	}
	return record.CreatedAt.Before(cursor.CreatedAt)
}

func window[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// cloneRecord copies the map and slices so callers cannot mutate stored state.
func cloneRecord(r domain.CommandRecord) domain.CommandRecord {
	balances := make(map[string]decimal.Decimal, len(r.Balances))
	for id, b := range r.Balances {
		balances[id] = b
	}
	r.Balances = balances
	r.NodeStatuses = append([]domain.CommandStatus(nil), r.NodeStatuses...)
	return r
}
