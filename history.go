package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/gobkc/pgmigrations/dbutil"
	"github.com/gobkc/pgmigrations/dialect"
	"github.com/gobkc/pgmigrations/types"
)

const codeUndefinedTable = "42P01"

// History lists the ledger of schema, oldest first. It takes no locks and
// returns an empty list for a database that was never migrated.
func History(ctx context.Context, conn dbutil.ConnectionConfig, schema string, log logrus.FieldLogger) ([]types.LedgerRecord, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	if schema == "" {
		schema = DefaultSchema
	}
	if log == nil {
		log = nopLogger()
	}

	db, err := gorm.Open(postgres.Open(conn.DSN(conn.Database)), &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConnectivity, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	defer sqlDB.Close()

	var rows []ledgerRow
	err = db.WithContext(ctx).Raw(dialect.Postgres{}.SelectLedger(schema)).Scan(&rows).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeUndefinedTable {
			return []types.LedgerRecord{}, nil
		}
		return nil, fmt.Errorf("read migrations table: %w", err)
	}

	records := make([]types.LedgerRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}
