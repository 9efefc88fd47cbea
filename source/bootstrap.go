package source

import (
	_ "embed"

	"github.com/gobkc/pgmigrations/types"
)

//go:embed bootstrap/0_create-migrations-table.sql
var bootstrapSQL string

// Bootstrap is the id 0 unit that creates the ledger table. Every source
// prepends it to the files it discovers.
func Bootstrap() types.Migration {
	return types.Migration{
		ID:         types.BootstrapID,
		Name:       types.BootstrapName,
		SQL:        bootstrapSQL,
		Hash:       Checksum(types.BootstrapName, bootstrapSQL),
		Directives: ParseDirectives(bootstrapSQL),
	}
}
