package migration

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/gobkc/pgmigrations/dbutil"
)

// CreateDatabase creates name on the server described by conn, connecting
// through conn.DefaultDatabase. It succeeds when the database already exists.
func CreateDatabase(ctx context.Context, name string, conn ConnectionConfig, log logrus.FieldLogger) error {
	return dbutil.CreateDatabase(ctx, name, conn, log)
}
