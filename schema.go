package migration

import (
	"context"
	"fmt"

	"github.com/gobkc/pgmigrations/dialect"
)

func ensureSchema(ctx context.Context, conn execer, d dialect.Dialect, schema string) error {
	if schema == "" || schema == DefaultSchema {
		return nil
	}
	if _, err := conn.Exec(ctx, d.CreateSchema(schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}
	return nil
}

// bindSchema points search_path (and app.schema) at schema for the rest of
// the session, so unqualified names in scripts resolve inside it.
func bindSchema(ctx context.Context, conn execer, d dialect.Dialect, schema string) error {
	if _, err := conn.Exec(ctx, d.BindSchema(), schema, d.QuoteIdent(schema)); err != nil {
		return fmt.Errorf("set schema %s: %w", schema, err)
	}
	return nil
}
