package migration

import "github.com/gobkc/pgmigrations/types"

// Every error returned by Migrate wraps exactly one of these, so callers can
// branch with errors.Is. A timeout additionally wraps ErrExecution when the
// cancelled statement belonged to a script.
var (
	ErrConfig          = types.ErrConfig
	ErrConnectivity    = types.ErrConnectivity
	ErrDirectory       = types.ErrDirectory
	ErrNaming          = types.ErrNaming
	ErrOrdering        = types.ErrOrdering
	ErrDrift           = types.ErrDrift
	ErrLockAcquisition = types.ErrLockAcquisition
	ErrBatchLocked     = types.ErrBatchLocked
	ErrExecution       = types.ErrExecution
	ErrTimeout         = types.ErrTimeout
)
