package types

import "errors"

var (
	ErrConfig          = errors.New("invalid migration config")
	ErrConnectivity    = errors.New("database connection failed")
	ErrDirectory       = errors.New("migrations directory unreadable")
	ErrNaming          = errors.New("invalid migration file name")
	ErrOrdering        = errors.New("invalid migration order")
	ErrDrift           = errors.New("migration checksum mismatch")
	ErrLockAcquisition = errors.New("application lock unavailable")
	ErrBatchLocked     = errors.New("migration batch locked")
	ErrExecution       = errors.New("migration failed")
	ErrTimeout         = errors.New("migration timed out")
)
