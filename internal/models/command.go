package models

import (
	"time"
)

// Command is a row of the commands table. Spec, node statuses and balances are
// stored as JSONB documents.
type Command struct {
	CommandID    string     `db:"command_id"`
	Kind         string     `db:"kind"`
	Status       string     `db:"status"`
	Spec         []byte     `db:"spec"`
	NodeStatuses []byte     `db:"node_statuses"`
	Balances     []byte     `db:"balances"`
	Undone       bool       `db:"undone"`
	UndoneAt     *time.Time `db:"undone_at"`
	UndoneBy     *string    `db:"undone_by"`
	AuditFields
}
