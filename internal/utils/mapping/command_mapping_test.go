package mapping

import (
	"testing"
	"time"

	"github.com/SscSPs/command_ledger/internal/core/domain"
	"github.com/SscSPs/command_ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandMapping(t *testing.T) {
	undoneAt := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	undoneBy := "u2"
	rec := domain.CommandRecord{
		CommandID: "c1",
		Spec: domain.CommandSpec{Kind: domain.Dependent, Children: []domain.CommandSpec{
			{Kind: domain.Transfer, AccountID: "a", ToAccountID: "b", Amount: decimal.RequireFromString("12.5")},
		}},
		Status:       domain.StatusSucceeded,
		NodeStatuses: []domain.CommandStatus{domain.StatusSucceeded, domain.StatusSucceeded, domain.StatusSucceeded, domain.StatusSucceeded},
		Undone:       true,
		UndoneAt:     &undoneAt,
		UndoneBy:     &undoneBy,
		Balances:     map[string]decimal.Decimal{"a": decimal.RequireFromString("-12.5")},
		AuditFields:  domain.AuditFields{CreatedBy: "u1"},
	}

	m, err := ToModelCommand(rec)
	require.NoError(t, err)
	assert.Equal(t, "DEPENDENT", m.Kind)
	assert.Equal(t, "SUCCEEDED", m.Status)

	back, err := ToDomainCommand(m)
	require.NoError(t, err)
	assert.Equal(t, rec.Spec.Children[0].ToAccountID, back.Spec.Children[0].ToAccountID)
	assert.True(t, rec.Spec.Children[0].Amount.Equal(back.Spec.Children[0].Amount))
	assert.Equal(t, rec.NodeStatuses, back.NodeStatuses)
	assert.Equal(t, "-12.5", back.Balances["a"].String())
	assert.Equal(t, "u2", *back.UndoneBy)
	assert.Equal(t, rec.AuditFields, back.AuditFields)
}

func TestToDomainCommand_BadJSON(t *testing.T) {
	_, err := ToDomainCommand(models.Command{CommandID: "c1", Spec: []byte("{"), NodeStatuses: []byte("[]")})
	assert.Error(t, err)

	rec, err := ToDomainCommand(models.Command{CommandID: "c2", Spec: []byte(`{"kind":"DEPOSIT","accountID":"a","amount":"1"}`), NodeStatuses: []byte(`["PENDING"]`)})
	require.NoError(t, err)
	assert.NotNil(t, rec.Balances)
}
