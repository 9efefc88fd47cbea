package dialect

import "strings"

const (
	LedgerTable = "migrations"
	LockTable   = "migration_locks"
)

type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

// QuoteIdent is the only place identifiers are spliced into statement text.
// Embedded double quotes are doubled and NUL bytes, which PostgreSQL rejects
// in identifiers, are dropped.
func (Postgres) QuoteIdent(name string) string {
	name = strings.ReplaceAll(name, "\x00", "")
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (p Postgres) table(schema, table string) string {
	return p.QuoteIdent(schema) + "." + p.QuoteIdent(table)
}

func (Postgres) BackendPID() string { return `SELECT pg_backend_pid()` }

func (Postgres) CancelBackend() string { return `SELECT pg_cancel_backend($1)` }

func (Postgres) AdvisoryLock() string { return `SELECT pg_advisory_lock($1)` }

func (Postgres) TryAdvisoryLock() string { return `SELECT pg_try_advisory_lock($1)` }

func (Postgres) AdvisoryUnlock() string { return `SELECT pg_advisory_unlock($1)` }

func (p Postgres) CreateSchema(schema string) string {
	return `CREATE SCHEMA IF NOT EXISTS ` + p.QuoteIdent(schema)
}

// BindSchema takes the raw schema name and its quoted form as $1 and $2.
func (Postgres) BindSchema() string {
	return `SELECT set_config('app.schema', $1, false), set_config('search_path', $2, false)`
}

func (Postgres) TableExists() string {
	return `
SELECT EXISTS (
    SELECT 1
    FROM pg_catalog.pg_class c
    JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
    WHERE c.relname = $1
      AND c.relkind = 'r'
      AND n.nspname = $2
)`
}

func (p Postgres) SelectLedger(schema string) string {
	return `SELECT id, name, hash, run_on FROM ` + p.table(schema, LedgerTable) + ` ORDER BY id ASC`
}

func (p Postgres) InsertLedger(schema string) string {
	return `INSERT INTO ` + p.table(schema, LedgerTable) + ` (id, name, hash) VALUES ($1, $2, $3)`
}

func (p Postgres) CreateLockTable(schema string) string {
	return `
CREATE TABLE IF NOT EXISTS ` + p.table(schema, LockTable) + ` (
    hash varchar(40) NOT NULL PRIMARY KEY
)`
}

func (p Postgres) SelectLock(schema string) string {
	return `SELECT hash FROM ` + p.table(schema, LockTable) + ` WHERE hash = $1`
}

func (p Postgres) InsertLock(schema string) string {
	return `INSERT INTO ` + p.table(schema, LockTable) + ` (hash) VALUES ($1)`
}

func (p Postgres) DeleteLock(schema string) string {
	return `DELETE FROM ` + p.table(schema, LockTable) + ` WHERE hash = $1`
}
