package types

import "time"

// Directives are the per-script switches parsed from in-band comments when
// the script is loaded. They are never re-read from the body afterwards.
type Directives struct {
	Transactional bool
	HashCheck     bool
}

// DefaultDirectives is what a script without any directive comment gets.
var DefaultDirectives = Directives{Transactional: true, HashCheck: true}

type Migration struct {
	ID         int
	Name       string
	SQL        string
	Hash       string
	Directives Directives
}

// LedgerRecord is one row of the migrations table.
type LedgerRecord struct {
	ID    int
	Name  string
	Hash  string
	RunOn time.Time
}

const (
	BootstrapID   = 0
	BootstrapName = "0_create-migrations-table.sql"
)

// IsBootstrap reports whether m is the synthetic unit that creates the ledger.
func (m Migration) IsBootstrap() bool {
	return m.ID == BootstrapID && m.Name == BootstrapName
}
