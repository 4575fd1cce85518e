package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"bloodlink/internal/domain"
	dErrors "bloodlink/pkg/domain-errors"
)

// PostgresStore persists ledgers in PostgreSQL. Debit takes row locks on the
// chosen buckets so concurrent allocations against one bank serialize
// instead of both validating against stale stock.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the ledger table when missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS bank_inventory (
			bank_id    TEXT NOT NULL,
			blood_type TEXT NOT NULL,
			units      INTEGER NOT NULL CHECK (units >= 0),
			PRIMARY KEY (bank_id, blood_type)
		)`)
	if err != nil {
		return fmt.Errorf("migrate bank_inventory: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLedger(ctx context.Context, bankID string) (map[domain.BloodType]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT blood_type, units FROM bank_inventory WHERE bank_id = $1`, bankID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeTransient, "load ledger", err)
	}
	defer rows.Close()

	ledger := make(map[domain.BloodType]int)
	for rows.Next() {
		var bt string
		var units int
		if err := rows.Scan(&bt, &units); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		ledger[domain.BloodType(bt)] = units
	}
	if err := rows.Err(); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeTransient, "iterate ledger", err)
	}
	return ledger, nil
}

func (s *PostgresStore) SetStock(ctx context.Context, bankID string, bloodType domain.BloodType, units int) error {
	if units < 0 {
		return dErrors.New(dErrors.CodeValidation, "units must be non-negative")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bank_inventory (bank_id, blood_type, units)
		VALUES ($1, $2, $3)
		ON CONFLICT (bank_id, blood_type) DO UPDATE SET units = EXCLUDED.units`,
		bankID, string(bloodType), units)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeTransient, "set stock", err)
	}
	return nil
}

func (s *PostgresStore) Debit(ctx context.Context, bankID string, breakdown map[domain.BloodType]int) error {
	types := make([]string, 0, len(breakdown))
	for bt := range breakdown {
		types = append(types, string(bt))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeTransient, "begin debit tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT blood_type, units FROM bank_inventory
		WHERE bank_id = $1 AND blood_type = ANY($2)
		FOR UPDATE`,
		bankID, pq.Array(types))
	if err != nil {
		return dErrors.Wrap(dErrors.CodeTransient, "lock ledger rows", err)
	}
	stock := make(map[domain.BloodType]int, len(breakdown))
	for rows.Next() {
		var bt string
		var units int
		if err := rows.Scan(&bt, &units); err != nil {
			rows.Close()
			return fmt.Errorf("scan locked row: %w", err)
		}
		stock[domain.BloodType(bt)] = units
	}
	if err := rows.Close(); err != nil {
		return dErrors.Wrap(dErrors.CodeTransient, "close locked rows", err)
	}

	for bt, units := range breakdown {
		if stock[bt] < units {
			return dErrors.Newf(dErrors.CodeConflict,
				"insufficient stock of %s: have %d, need %d", bt, stock[bt], units)
		}
	}
	for bt, units := range breakdown {
		if _, err := tx.ExecContext(ctx, `
			UPDATE bank_inventory SET units = units - $3
			WHERE bank_id = $1 AND blood_type = $2`,
			bankID, string(bt), units); err != nil {
			return dErrors.Wrap(dErrors.CodeTransient, "debit bucket", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(dErrors.CodeTransient, "commit debit tx", err)
	}
	return nil
}

func (s *PostgresStore) Credit(ctx context.Context, bankID string, breakdown map[domain.BloodType]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeTransient, "begin credit tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for bt, units := range breakdown {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bank_inventory (bank_id, blood_type, units)
			VALUES ($1, $2, $3)
			ON CONFLICT (bank_id, blood_type)
			DO UPDATE SET units = bank_inventory.units + EXCLUDED.units`,
			bankID, string(bt), units); err != nil {
			return dErrors.Wrap(dErrors.CodeTransient, "credit bucket", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(dErrors.CodeTransient, "commit credit tx", err)
	}
	return nil
}
