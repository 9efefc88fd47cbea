package dialect

// Dialect is the statement catalog used by the engine. Table statements take
// the target schema and return text with the schema already quoted; every
// value travels as a positional parameter.
type Dialect interface {
	Name() string
	QuoteIdent(name string) string

	BackendPID() string
	CancelBackend() string

	AdvisoryLock() string
	TryAdvisoryLock() string
	AdvisoryUnlock() string

	CreateSchema(schema string) string
	BindSchema() string

	TableExists() string
	SelectLedger(schema string) string
	InsertLedger(schema string) string

	CreateLockTable(schema string) string
	SelectLock(schema string) string
	InsertLock(schema string) string
	DeleteLock(schema string) string
}
