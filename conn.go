package migration

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gobkc/pgmigrations/dbutil"
)

// execer is the part of a session a single script runs against: the
// connection itself, or a transaction opened on it.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type querier interface {
	execer
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Conn is the single session that drives one run. *pgx.Conn satisfies it.
type Conn interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Close(ctx context.Context) error
}

type dialFunc func(ctx context.Context, c dbutil.ConnectionConfig) (Conn, error)

func dialPgx(ctx context.Context, c dbutil.ConnectionConfig) (Conn, error) {
	conn, err := dbutil.Connect(ctx, c)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
