package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/command_ledger/internal/apperrors"
	"github.com/SscSPs/command_ledger/internal/core/domain"
	portsrepo "github.com/SscSPs/command_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/command_ledger/internal/models"
	"github.com/SscSPs/command_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const commandColumns = `command_id, kind, status, spec, node_statuses, balances, undone, undone_at, undone_by, created_at, created_by, last_updated_at, last_updated_by`

type PgxCommandRepository struct {
	BaseRepository
}

func newPgxCommandRepository(pool *pgxpool.Pool) *PgxCommandRepository {
	return &PgxCommandRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CommandRepositoryFacade = (*PgxCommandRepository)(nil)

func scanCommand(row pgx.Row) (domain.CommandRecord, error) {
	var m models.Command
	err := row.Scan(
		&m.CommandID,
		&m.Kind,
		&m.Status,
		&m.Spec,
		&m.NodeStatuses,
		&m.Balances,
		&m.Undone,
		&m.UndoneAt,
		&m.UndoneBy,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return domain.CommandRecord{}, err
	}
	return mapping.ToDomainCommand(m)
}

// SaveCommandResult upserts the command row and applies the resulting balances
// in one transaction.
func (r *PgxCommandRepository) SaveCommandResult(ctx context.Context, record domain.CommandRecord, userID string, now time.Time) error {
	m, err := mapping.ToModelCommand(record)
	if err != nil {
		return err
	}

	return r.WithTx(ctx, func(tx pgx.Tx) error {
		for id, balance := range record.Balances {
			if err := applyBalance(ctx, tx, id, balance, userID, now); err != nil {
				return err
			}
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO commands (`+commandColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (command_id) DO UPDATE SET
				status = EXCLUDED.status,
				node_statuses = EXCLUDED.node_statuses,
				balances = EXCLUDED.balances,
				undone = EXCLUDED.undone,
				undone_at = EXCLUDED.undone_at,
				undone_by = EXCLUDED.undone_by,
				last_updated_at = EXCLUDED.last_updated_at,
				last_updated_by = EXCLUDED.last_updated_by;`,
			m.CommandID,
			m.Kind,
			m.Status,
			m.Spec,
			m.NodeStatuses,
			m.Balances,
			m.Undone,
			m.UndoneAt,
			m.UndoneBy,
			m.CreatedAt,
			m.CreatedBy,
			m.LastUpdatedAt,
			m.LastUpdatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to save command %s: %w", m.CommandID, err)
		}
		return nil
	})
}

// applyBalance writes a changed balance; an unchanged one is left alone but the
// account must still exist.
func applyBalance(ctx context.Context, tx pgx.Tx, accountID string, balance decimal.Decimal, userID string, now time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE accounts
		SET balance = $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1 AND balance <> $2;`,
		accountID, balance, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update balance of account %s: %w", accountID, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_id = $1);`, accountID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check account %s: %w", accountID, err)
	}
	if !exists {
		return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return nil
}

// FindCommandByID retrieves a command record by ID.
func (r *PgxCommandRepository) FindCommandByID(ctx context.Context, commandID string) (*domain.CommandRecord, error) {
	query := `SELECT ` + commandColumns + ` FROM commands WHERE command_id = $1;`
	record, err := scanCommand(r.Pool.QueryRow(ctx, query, commandID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: command %s", apperrors.ErrNotFound, commandID)
		}
		return nil, fmt.Errorf("failed to find command by ID %s: %w", commandID, err)
	}
	return &record, nil
}

// ListCommands returns records newest first using keyset pagination.
func (r *PgxCommandRepository) ListCommands(ctx context.Context, limit int, before *portsrepo.CommandCursor) ([]domain.CommandRecord, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if before == nil {
		rows, err = r.Pool.Query(ctx, `
			SELECT `+commandColumns+` FROM commands
			ORDER BY created_at DESC, command_id DESC
			LIMIT $1;`, limit)
	} else {
		rows, err = r.Pool.Query(ctx, `
			SELECT `+commandColumns+` FROM commands
			WHERE (created_at, command_id) < ($2, $3)
			ORDER BY created_at DESC, command_id DESC
			LIMIT $1;`, limit, before.CreatedAt, before.CommandID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list commands: %w", err)
	}
	defer rows.Close()

	records := []domain.CommandRecord{}
	for rows.Next() {
		record, err := scanCommand(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan command row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating command rows: %w", err)
	}
	return records, nil
}
