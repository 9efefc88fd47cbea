package migration

import (
	"time"

	"github.com/gobkc/pgmigrations/dialect"
	"github.com/gobkc/pgmigrations/types"
)

// ledgerRow maps the migrations table for gorm.
type ledgerRow struct {
	ID    int       `gorm:"column:id;primaryKey"`
	Name  string    `gorm:"column:name"`
	Hash  string    `gorm:"column:hash"`
	RunOn time.Time `gorm:"column:run_on"`
}

func (ledgerRow) TableName() string {
	return dialect.LedgerTable
}

func (r ledgerRow) record() types.LedgerRecord {
	return types.LedgerRecord{ID: r.ID, Name: r.Name, Hash: r.Hash, RunOn: r.RunOn}
}
