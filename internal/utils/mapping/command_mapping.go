package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/command_ledger/internal/core/domain"
	"github.com/SscSPs/command_ledger/internal/models"
	"github.com/shopspring/decimal"
)

// ToModelCommand converts a domain CommandRecord to a model Command, encoding
// the JSONB columns.
func ToModelCommand(d domain.CommandRecord) (models.Command, error) {
	spec, err := json.Marshal(d.Spec)
	if err != nil {
		return models.Command{}, fmt.Errorf("encode spec: %w", err)
	}
	statuses, err := json.Marshal(d.NodeStatuses)
	if err != nil {
		return models.Command{}, fmt.Errorf("encode node statuses: %w", err)
	}
	balances, err := json.Marshal(d.Balances)
	if err != nil {
		return models.Command{}, fmt.Errorf("encode balances: %w", err)
	}
	return models.Command{
		CommandID:    d.CommandID,
		Kind:         string(d.Spec.Kind),
		Status:       string(d.Status),
		Spec:         spec,
		NodeStatuses: statuses,
		Balances:     balances,
		Undone:       d.Undone,
		UndoneAt:     d.UndoneAt,
		UndoneBy:     d.UndoneBy,
		AuditFields:  modelAudit(d.AuditFields),
	}, nil
}

// ToDomainCommand converts a model Command back to a domain CommandRecord.
func ToDomainCommand(m models.Command) (domain.CommandRecord, error) {
	rec := domain.CommandRecord{
		CommandID:   m.CommandID,
		Status:      domain.CommandStatus(m.Status),
		Undone:      m.Undone,
		UndoneAt:    m.UndoneAt,
		UndoneBy:    m.UndoneBy,
		AuditFields: domainAudit(m.AuditFields),
	}
	if err := json.Unmarshal(m.Spec, &rec.Spec); err != nil {
		return domain.CommandRecord{}, fmt.Errorf("decode spec of command %s: %w", m.CommandID, err)
	}
	if err := json.Unmarshal(m.NodeStatuses, &rec.NodeStatuses); err != nil {
		return domain.CommandRecord{}, fmt.Errorf("decode node statuses of command %s: %w", m.CommandID, err)
	}
	rec.Balances = map[string]decimal.Decimal{}
	if len(m.Balances) > 0 {
		if err := json.Unmarshal(m.Balances, &rec.Balances); err != nil {
			return domain.CommandRecord{}, fmt.Errorf("decode balances of command %s: %w", m.CommandID, err)
		}
	}
	return rec, nil
}
