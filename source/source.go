package source

import "github.com/gobkc/pgmigrations/types"

// Source produces the full set of migration units for one run, bootstrap unit
// first. Units are returned in discovery order; ordering and uniqueness of ids
// are validated by the caller.
type Source interface {
	Migrations() ([]types.Migration, error)
}
