package migration

import (
	"context"
	"fmt"

	"github.com/gobkc/pgmigrations/dialect"
	"github.com/gobkc/pgmigrations/types"
)

// runMigration applies one unit and appends its ledger row. Transactional
// units either commit both or leave nothing behind; non-transactional units
// run directly on the session and keep whatever they did before failing.
func runMigration(ctx context.Context, conn Conn, d dialect.Dialect, schema string, mig types.Migration) error {
	if !mig.Directives.Transactional {
		if err := apply(ctx, conn, d, schema, mig); err != nil {
			return fmt.Errorf("%w: an error occurred running '%s'. No further migrations were run. Reason: %w",
				types.ErrExecution, mig.Name, err)
		}
		return nil
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: could not start a transaction for '%s'. No further migrations were run. Reason: %w",
			types.ErrExecution, mig.Name, err)
	}

	if err := apply(ctx, tx, d, schema, mig); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return rolledBack(mig, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return rolledBack(mig, err)
	}
	return nil
}

func apply(ctx context.Context, q execer, d dialect.Dialect, schema string, mig types.Migration) error {
	if _, err := q.Exec(ctx, mig.SQL); err != nil {
		return err
	}
	if _, err := q.Exec(ctx, d.InsertLedger(schema), mig.ID, mig.Name, mig.Hash); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return nil
}

func rolledBack(mig types.Migration, err error) error {
	return fmt.Errorf("%w: an error occurred running '%s'. Rolled back this migration. No further migrations were run. Reason: %w",
		types.ErrExecution, mig.Name, err)
}
