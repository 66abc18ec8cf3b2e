package mapping

import (
	"github.com/SscSPs/command_ledger/internal/core/domain"
	"github.com/SscSPs/command_ledger/internal/models"
)

// ToModelAccount converts a domain Account to a model Account
func ToModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:      d.AccountID,
		Name:           d.Name,
		Balance:        d.Balance,
		OverdraftLimit: d.OverdraftLimit,
		IsActive:       d.IsActive,
		AuditFields:    modelAudit(d.AuditFields),
	}
}

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:      m.AccountID,
		Name:           m.Name,
		Balance:        m.Balance,
		OverdraftLimit: m.OverdraftLimit,
		IsActive:       m.IsActive,
		AuditFields:    domainAudit(m.AuditFields),
	}
}

// ToDomainAccountSlice converts a slice of model Accounts to a slice of domain Accounts
func ToDomainAccountSlice(ms []models.Account) []domain.Account {
	ds := make([]domain.Account, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainAccount(m)
	}
	return ds
}

// modelAudit and domainAudit convert the audit columns shared by accounts and
// commands.
func modelAudit(a domain.AuditFields) models.AuditFields {
	return models.AuditFields(a)
}

func domainAudit(a models.AuditFields) domain.AuditFields {
	return domain.AuditFields(a)
}
