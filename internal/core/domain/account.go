package domain

import (
	"github.com/shopspring/decimal"
)

// DefaultOverdraftLimit is the floor applied to accounts created without an explicit limit.
var DefaultOverdraftLimit = decimal.NewFromInt(-500)

// Account represents a ledger account holding a single mutable balance.
// Balances only change through commands; see package commands.
type Account struct {
	AccountID      string          `json:"accountID"`      // Primary Key (UUID)
	Name           string          `json:"name"`           // User-defined name
	Balance        decimal.Decimal `json:"balance"`        // Current balance, never below OverdraftLimit
	OverdraftLimit decimal.Decimal `json:"overdraftLimit"` // Lowest balance a withdrawal may reach
	IsActive       bool            `json:"isActive"`       // Inactive accounts reject new commands
	AuditFields
}

// Deposit adds amount to the balance. Deposits always succeed.
func (a *Account) Deposit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
}

// Withdraw removes amount from the balance if the result stays at or above the
// overdraft limit. It reports whether the withdrawal happened; on false the
// balance is untouched.
func (a *Account) Withdraw(amount decimal.Decimal) bool {
	if !a.CanWithdraw(amount) {
		return false
	}
	a.Balance = a.Balance.Sub(amount)
	return true
}

// CanWithdraw reports whether Withdraw(amount) would succeed.
func (a *Account) CanWithdraw(amount decimal.Decimal) bool {
	return a.Balance.Sub(amount).GreaterThanOrEqual(a.OverdraftLimit)
}
