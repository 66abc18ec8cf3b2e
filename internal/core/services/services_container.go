package services

import (
	portsrepo "github.com/SscSPs/command_ledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/command_ledger/internal/core/ports/services"
	"github.com/SscSPs/command_ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The ledger comes first: account creation runs initial deposits through it.
	container.Ledger = NewLedgerService(repos.AccountRepo, repos.CommandRepo)

	container.Account = NewAccountService(
		repos.AccountRepo,
		WithCommandExecutor(container.Ledger),
		WithDefaultOverdraftLimit(cfg.DefaultOverdraftLimit),
	)

	return container
}
