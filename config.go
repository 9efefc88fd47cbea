package migration

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gobkc/pgmigrations/dbutil"
	"github.com/gobkc/pgmigrations/types"
)

const (
	DefaultMigrationTimeout = 60 * time.Second
	DefaultSchema           = "public"
)

type ConnectionConfig = dbutil.ConnectionConfig

// Config controls one run. The zero value is usable.
type Config struct {
	// Logger receives progress messages. Nil discards them.
	Logger logrus.FieldLogger
	// MigrationTimeout is the budget for the whole batch, not per script.
	MigrationTimeout time.Duration
	// Limit caps how many directory entries are considered; 0 means all.
	Limit  int
	Schema string
	// BlockOnAppLock waits for the advisory lock instead of failing fast.
	BlockOnAppLock bool
	// ApplicationID keys the advisory lock. Nil picks a random 31-bit id.
	ApplicationID *int64
}

func (c Config) validate() error {
	if c.MigrationTimeout < 0 {
		return fmt.Errorf("%w: negative migration timeout %s", types.ErrConfig, c.MigrationTimeout)
	}
	if c.Limit < 0 {
		return fmt.Errorf("%w: negative migration limit %d", types.ErrConfig, c.Limit)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = nopLogger()
	}
	if c.MigrationTimeout == 0 {
		c.MigrationTimeout = DefaultMigrationTimeout
	}
	if c.Schema == "" {
		c.Schema = DefaultSchema
	}
	if c.ApplicationID == nil {
		id := rand.Int64N(math.MaxInt32)
		c.ApplicationID = &id
	}
	return c
}

func nopLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
