package migration

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/gobkc/pgmigrations/types"
)

// orderMigrations sorts by id and requires the ids to be exactly 0..n-1.
// Duplicates, gaps and a missing bootstrap all fail the same way.
func orderMigrations(units []types.Migration) ([]types.Migration, error) {
	ordered := slices.Clone(units)
	slices.SortStableFunc(ordered, func(a, b types.Migration) int {
		return cmp.Compare(a.ID, b.ID)
	})

	for i, mig := range ordered {
		if mig.ID != i {
			return nil, fmt.Errorf("%w: found a non-consecutive migration ID: expected %d, got %d ('%s')",
				types.ErrOrdering, i, mig.ID, mig.Name)
		}
	}
	return ordered, nil
}

// filterApplied drops units already recorded in the ledger. A recorded unit
// whose hash changed is fatal unless it opted out of hash checking.
func filterApplied(ordered []types.Migration, applied map[int]types.LedgerRecord) ([]types.Migration, error) {
	pending := make([]types.Migration, 0, len(ordered))
	for _, mig := range ordered {
		rec, ok := applied[mig.ID]
		if !ok {
			pending = append(pending, mig)
			continue
		}
		if !mig.Directives.HashCheck {
			continue
		}
		if rec.Hash != mig.Hash {
			return nil, fmt.Errorf("%w: hashes don't match for migration '%s'. This means that the script has changed since it was applied",
				types.ErrDrift, mig.Name)
		}
	}
	return pending, nil
}
