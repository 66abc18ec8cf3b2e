package handlers

import (
	"sync"

	"github.com/SscSPs/command_ledger/internal/core/domain"
	"github.com/SscSPs/command_ledger/internal/dto"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerValidatorsOnce sync.Once

// registerValidators installs the struct-level rules gin's binder runs on
// request bodies.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterStructValidation(commandRequestStructLevel, dto.CommandRequest{})
		}
	})
}

// commandRequestStructLevel checks the fields each command kind needs.
func commandRequestStructLevel(sl validator.StructLevel) {
	req := sl.Current().Interface().(dto.CommandRequest)

	switch req.Kind {
	case domain.Deposit, domain.Withdraw, domain.Transfer:
		if req.AccountID == "" {
			sl.ReportError(req.AccountID, "AccountID", "accountID", "required_for_kind", string(req.Kind))
		}
		if req.Amount == nil {
			sl.ReportError(req.Amount, "Amount", "amount", "required_for_kind", string(req.Kind))
		} else if req.Amount.IsNegative() {
			sl.ReportError(req.Amount, "Amount", "amount", "gte", "0")
		}
		if req.Kind == domain.Transfer && req.ToAccountID == "" {
			sl.ReportError(req.ToAccountID, "ToAccountID", "toAccountID", "required_for_kind", string(req.Kind))
		}
		if len(req.Commands) > 0 {
			sl.ReportError(req.Commands, "Commands", "commands", "excluded_for_kind", string(req.Kind))
		}
	case domain.Composite, domain.Dependent:
		if req.AccountID != "" || req.ToAccountID != "" || req.Amount != nil {
			sl.ReportError(req.AccountID, "AccountID", "accountID", "excluded_for_kind", string(req.Kind))
		}
	}
}
