// Command ledger_demo runs a few command trees against an in-memory ledger and
// logs the balances after each step.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/SscSPs/command_ledger/internal/adapters/database/memory"
	"github.com/SscSPs/command_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/command_ledger/internal/core/ports/services"
	"github.com/SscSPs/command_ledger/internal/core/services"
	"github.com/SscSPs/command_ledger/internal/dto"
	"github.com/SscSPs/command_ledger/internal/platform/config"
	"github.com/shopspring/decimal"
)

const demoUser = "demo"

func main() {
	verbose := flag.Bool("v", false, "log at debug level")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := run(context.Background(), services.NewServiceContainer(cfg, memory.NewStore().Provider()), logger); err != nil {
		logger.Error("Demo failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *portssvc.ServiceContainer, logger *slog.Logger) error {
	alice, err := openAccount(ctx, svc, "alice", 100)
	if err != nil {
		return err
	}
	bob, err := openAccount(ctx, svc, "bob", 50)
	if err != nil {
		return err
	}

	amount := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
	steps := []struct {
		name string
		spec domain.CommandSpec
	}{
		{"transfer 30 alice->bob", domain.CommandSpec{Kind: domain.Transfer, AccountID: alice, ToAccountID: bob, Amount: amount(30)}},
		{"transfer 1000 bob->alice (over the overdraft limit)", domain.CommandSpec{Kind: domain.Transfer, AccountID: bob, ToAccountID: alice, Amount: amount(1000)}},
		{"composite: withdraw 600 from bob, deposit 10 to alice", domain.CommandSpec{Kind: domain.Composite, Children: []domain.CommandSpec{
			{Kind: domain.Withdraw, AccountID: bob, Amount: amount(600)},
			{Kind: domain.Deposit, AccountID: alice, Amount: amount(10)},
		}}},
		{"dependent: deposit 5 to bob, withdraw 700 from alice", domain.CommandSpec{Kind: domain.Dependent, Children: []domain.CommandSpec{
			{Kind: domain.Deposit, AccountID: bob, Amount: amount(5)},
			{Kind: domain.Withdraw, AccountID: alice, Amount: amount(700)},
		}}},
	}

	var executed []string
	for _, step := range steps {
		rec, err := svc.Ledger.ExecuteCommand(ctx, step.spec, demoUser)
		if err != nil {
			return err
		}
		executed = append(executed, rec.CommandID)
		logger.Info(step.name, slog.String("status", string(rec.Status)), balanceAttrs(rec.Balances, alice, bob))
	}

	// unwind everything, newest first
	for i := len(executed) - 1; i >= 0; i-- {
		rec, err := svc.Ledger.UndoCommand(ctx, executed[i], demoUser)
		if err != nil {
			return err
		}
		logger.Info("undo "+steps[i].name, balanceAttrs(rec.Balances, alice, bob))
	}

	page, err := svc.Ledger.ListCommands(ctx, dto.ListCommandsParams{Limit: 100})
	if err != nil {
		return err
	}
	logger.Info("history", slog.Int("commands", len(page.Commands)))
	return nil
}

func openAccount(ctx context.Context, svc *portssvc.ServiceContainer, name string, deposit int64) (string, error) {
	d := decimal.NewFromInt(deposit)
	acc, err := svc.Account.CreateAccount(ctx, dto.CreateAccountRequest{Name: name, InitialDeposit: &d}, demoUser)
	if err != nil {
		return "", err
	}
	slog.Info("opened account", slog.String("name", name), slog.String("id", acc.AccountID), slog.String("balance", acc.Balance.String()))
	return acc.AccountID, nil
}

func balanceAttrs(balances map[string]decimal.Decimal, alice, bob string) slog.Attr {
	return slog.Group("balances",
		slog.String("alice", balances[alice].String()),
		slog.String("bob", balances[bob].String()),
	)
}
