package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gobkc/pgmigrations/dbutil"
	"github.com/gobkc/pgmigrations/dialect"
	"github.com/gobkc/pgmigrations/source"
	"github.com/gobkc/pgmigrations/types"
)

type Migrator struct {
	conn    dbutil.ConnectionConfig
	source  source.Source
	dialect dialect.Dialect
	cfg     Config
	appID   int64

	dial   dialFunc
	cancel func(ctx context.Context, c dbutil.ConnectionConfig, pid int32) error
}

// New checks the configuration without touching the network. The advisory
// lock id is fixed here, once per Migrator.
func New(conn dbutil.ConnectionConfig, src source.Source, cfg Config) (*Migrator, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: must pass a migration source", types.ErrConfig)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	return &Migrator{
		conn:    conn,
		source:  src,
		dialect: dialect.Postgres{},
		cfg:     cfg,
		appID:   *cfg.ApplicationID,
		dial:    dialPgx,
		cancel:  dbutil.CancelBackend,
	}, nil
}

// Migrate applies every pending script in dir and returns the names of the
// scripts it ran, in order. The bootstrap unit is not listed.
func Migrate(ctx context.Context, conn dbutil.ConnectionConfig, dir string, cfg Config) ([]string, error) {
	m, err := New(conn, source.NewDir(dir, cfg.Limit), cfg)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, fmt.Errorf("%w: must pass migrations directory", types.ErrConfig)
	}
	return m.run(ctx)
}

// run is Up with the bootstrap unit left out of the result.
func (m *Migrator) run(ctx context.Context) ([]string, error) {
	applied, err := m.Up(ctx)
	if err != nil {
		return nil, err
	}

	ran := make([]string, 0, len(applied))
	for _, mig := range applied {
		if !mig.IsBootstrap() {
			ran = append(ran, mig.Name)
		}
	}
	return ran, nil
}

// Up runs one migration pass. Either every pending unit is applied or an
// error is returned; cleanup of the timer, the advisory lock and the
// connection happens on every path.
func (m *Migrator) Up(ctx context.Context) (applied []types.Migration, err error) {
	d, schema := m.dialect, m.cfg.Schema
	log := m.cfg.Logger.WithFields(logrus.Fields{
		"application_id": m.appID,
		"dialect":        d.Name(),
		"schema":         schema,
	})

	defer func() {
		if err == nil {
			return
		}
		reason := err.Error()
		if errors.Is(err, types.ErrTimeout) {
			reason = "timeout"
		}
		log.WithField("reason", reason).Error("migration failed")
	}()

	log.Info("attempting database migration")

	conn, err := m.dial(ctx, m.conn)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := conn.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.WithError(cerr).Warn("failed to close connection")
		}
	}()
	log.Info("connected to database")

	if err := acquireAppLock(ctx, conn, d, m.appID, m.cfg.BlockOnAppLock); err != nil {
		return nil, err
	}
	log.Info("acquired application lock")
	defer releaseAppLock(context.WithoutCancel(ctx), conn, d, m.appID, log)

	if err := ensureSchema(ctx, conn, d, schema); err != nil {
		return nil, err
	}
	if err := bindSchema(ctx, conn, d, schema); err != nil {
		return nil, err
	}
	log.Info("set schema in app.schema and search_path")

	var pid int32
	if err := conn.QueryRow(ctx, d.BackendPID()).Scan(&pid); err != nil {
		return nil, fmt.Errorf("read backend pid: %w", err)
	}
	log = log.WithField("pid", pid)
	log.Debug("retrieved backend pid")

	if err := ensureLockTable(ctx, conn, d, schema); err != nil {
		return nil, err
	}

	pending, err := m.pending(ctx, conn, log)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		log.Info("no migrations applied")
		return []types.Migration{}, nil
	}

	hash := BatchHash(pending)
	log = log.WithField("batch", hash)
	if err := verifyBatchUnlocked(ctx, conn, d, schema, hash); err != nil {
		return nil, err
	}
	if err := insertBatchLock(ctx, conn, d, schema, hash); err != nil {
		return nil, err
	}

	guard := armTimeout(m.cfg.MigrationTimeout, pid, func(ctx context.Context, pid int32) error {
		return m.cancel(ctx, m.conn, pid)
	}, log)
	defer guard.Disarm()

	applied = make([]types.Migration, 0, len(pending))
	for _, mig := range pending {
		if guard.Fired() {
			return nil, timedOut(m.cfg.MigrationTimeout, fmt.Errorf("'%s' was not started", mig.Name))
		}

		log.WithField("migration", mig.Name).Info("running migration")
		if err := runMigration(ctx, conn, d, schema, mig); err != nil {
			if guard.Fired() {
				return nil, timedOut(m.cfg.MigrationTimeout, err)
			}
			return nil, err
		}
		applied = append(applied, mig)
	}

	// On failure the batch lock row stays behind so an identical batch cannot
	// be retried until someone clears it.
	if err := removeBatchLock(ctx, conn, d, schema, hash); err != nil {
		return nil, err
	}

	log.WithField("migrations", names(applied)).Info("successfully applied migrations")
	return applied, nil
}

func (m *Migrator) pending(ctx context.Context, conn querier, log logrus.FieldLogger) ([]types.Migration, error) {
	units, err := m.source.Migrations()
	if err != nil {
		return nil, err
	}
	log.WithField("count", len(units)).Debug("loaded migration files")

	ordered, err := orderMigrations(units)
	if err != nil {
		return nil, err
	}

	exists, err := ledgerExists(ctx, conn, m.dialect, m.cfg.Schema)
	if err != nil {
		return nil, err
	}
	if !exists {
		return ordered, nil
	}

	applied, err := getApplied(ctx, conn, m.dialect, m.cfg.Schema)
	if err != nil {
		return nil, err
	}
	return filterApplied(ordered, applied)
}

func timedOut(budget time.Duration, err error) error {
	return fmt.Errorf("%w after %s: %w", types.ErrTimeout, budget, err)
}

func names(list []types.Migration) []string {
	out := make([]string, 0, len(list))
	for _, mig := range list {
		out = append(out, mig.Name)
	}
	return out
}
