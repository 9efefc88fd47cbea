package migration

import (
	"context"
	"fmt"

	"github.com/gobkc/pgmigrations/dialect"
	"github.com/gobkc/pgmigrations/types"
)

func ensureLockTable(ctx context.Context, conn execer, d dialect.Dialect, schema string) error {
	if _, err := conn.Exec(ctx, d.CreateLockTable(schema)); err != nil {
		return fmt.Errorf("create lock table: %w", err)
	}
	return nil
}

func ledgerExists(ctx context.Context, conn querier, d dialect.Dialect, schema string) (bool, error) {
	var exists bool
	if err := conn.QueryRow(ctx, d.TableExists(), dialect.LedgerTable, schema).Scan(&exists); err != nil {
		return false, fmt.Errorf("check migrations table: %w", err)
	}
	return exists, nil
}

func getApplied(ctx context.Context, conn querier, d dialect.Dialect, schema string) (map[int]types.LedgerRecord, error) {
	rows, err := conn.Query(ctx, d.SelectLedger(schema))
	if err != nil {
		return nil, fmt.Errorf("read migrations table: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]types.LedgerRecord)
	for rows.Next() {
		var r types.LedgerRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Hash, &r.RunOn); err != nil {
			return nil, fmt.Errorf("read migrations table: %w", err)
		}
		applied[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read migrations table: %w", err)
	}
	return applied, nil
}
