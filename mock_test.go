package migration

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/gobkc/pgmigrations/dbutil"
	"github.com/gobkc/pgmigrations/dialect"
	"github.com/gobkc/pgmigrations/source"
	"github.com/gobkc/pgmigrations/types"
)

const (
	testAppID = int64(42)
	testPID   = int32(4242)
)

var pg = dialect.Postgres{}

var testConn = dbutil.ConnectionConfig{
	Database: "app",
	User:     "postgres",
	Password: "postgres",
	Host:     "localhost",
	Port:     5432,
}

type staticSource []types.Migration

func (s staticSource) Migrations() ([]types.Migration, error) { return s, nil }

func newMock(t *testing.T) pgxmock.PgxConnIface {
	t.Helper()
	mock, err := pgxmock.NewConn(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherEqual))
	require.NoError(t, err)
	return mock
}

func mustMigration(t *testing.T, name, sql string) types.Migration {
	t.Helper()
	mig, err := source.NewMigration(name, sql)
	require.NoError(t, err)
	return mig
}

func newTestMigrator(t *testing.T, mock pgxmock.PgxConnIface, src source.Source, cfg Config) *Migrator {
	t.Helper()
	id := testAppID
	cfg.ApplicationID = &id

	m, err := New(testConn, src, cfg)
	require.NoError(t, err)
	m.dial = func(context.Context, dbutil.ConnectionConfig) (Conn, error) { return mock, nil }
	m.cancel = func(context.Context, dbutil.ConnectionConfig, int32) error {
		t.Error("unexpected backend cancellation")
		return nil
	}
	return m
}

func expectSetup(mock pgxmock.PgxConnIface, schema string) {
	mock.ExpectQuery(pg.TryAdvisoryLock()).WithArgs(testAppID).
		WillReturnRows(pgxmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	if schema != DefaultSchema {
		mock.ExpectExec(pg.CreateSchema(schema)).WillReturnResult(pgxmock.NewResult("CREATE SCHEMA", 0))
	}
	mock.ExpectExec(pg.BindSchema()).WithArgs(schema, pg.QuoteIdent(schema)).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(pg.BackendPID()).
		WillReturnRows(pgxmock.NewRows([]string{"pg_backend_pid"}).AddRow(testPID))
	mock.ExpectExec(pg.CreateLockTable(schema)).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
}

func expectLedger(mock pgxmock.PgxConnIface, schema string, records ...types.LedgerRecord) {
	if records == nil {
		mock.ExpectQuery(pg.TableExists()).WithArgs(dialect.LedgerTable, schema).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		return
	}
	mock.ExpectQuery(pg.TableExists()).WithArgs(dialect.LedgerTable, schema).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	rows := pgxmock.NewRows([]string{"id", "name", "hash", "run_on"})
	for _, r := range records {
		rows.AddRow(r.ID, r.Name, r.Hash, r.RunOn)
	}
	mock.ExpectQuery(pg.SelectLedger(schema)).WillReturnRows(rows)
}

func expectBatchLock(mock pgxmock.PgxConnIface, schema, hash string) {
	mock.ExpectQuery(pg.SelectLock(schema)).WithArgs(hash).
		WillReturnRows(pgxmock.NewRows([]string{"hash"}))
	mock.ExpectExec(pg.InsertLock(schema)).WithArgs(hash).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func expectApply(mock pgxmock.PgxConnIface, schema string, mig types.Migration) {
	mock.ExpectBegin()
	mock.ExpectExec(mig.SQL).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectExec(pg.InsertLedger(schema)).WithArgs(mig.ID, mig.Name, mig.Hash).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
}

func expectCleanup(mock pgxmock.PgxConnIface) {
	mock.ExpectQuery(pg.AdvisoryUnlock()).WithArgs(testAppID).
		WillReturnRows(pgxmock.NewRows([]string{"pg_advisory_unlock"}).AddRow(true))
	mock.ExpectClose()
}

func ledgerOf(migs ...types.Migration) []types.LedgerRecord {
	out := make([]types.LedgerRecord, 0, len(migs))
	for _, m := range migs {
		out = append(out, types.LedgerRecord{ID: m.ID, Name: m.Name, Hash: m.Hash})
	}
	return out
}
