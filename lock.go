package migration

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/gobkc/pgmigrations/dialect"
	"github.com/gobkc/pgmigrations/types"
)

const codeUniqueViolation = "23505"

// acquireAppLock takes the session-scoped advisory lock. Blocking mode may
// wait forever; otherwise a held lock fails immediately.
func acquireAppLock(ctx context.Context, conn querier, d dialect.Dialect, id int64, blocking bool) error {
	if blocking {
		if _, err := conn.Exec(ctx, d.AdvisoryLock(), id); err != nil {
			return fmt.Errorf("%w: failed to acquire application lock with ID: %d: %w", types.ErrLockAcquisition, id, err)
		}
		return nil
	}

	var locked bool
	if err := conn.QueryRow(ctx, d.TryAdvisoryLock(), id).Scan(&locked); err != nil {
		return fmt.Errorf("%w: failed to acquire application lock with ID: %d: %w", types.ErrLockAcquisition, id, err)
	}
	if !locked {
		return fmt.Errorf("%w: failed to acquire application lock with ID: %d", types.ErrLockAcquisition, id)
	}
	return nil
}

// releaseAppLock runs on the cleanup path and only logs failures.
func releaseAppLock(ctx context.Context, conn querier, d dialect.Dialect, id int64, log logrus.FieldLogger) {
	log = log.WithField("application_id", id)

	var released bool
	if err := conn.QueryRow(ctx, d.AdvisoryUnlock(), id).Scan(&released); err != nil {
		log.WithError(err).Warn("failed to release (may not exist) application lock")
		return
	}
	if !released {
		log.Warn("application lock was not held")
		return
	}
	log.Info("released application lock")
}

// BatchHash fingerprints a pending set. Order matters: the same scripts in a
// different order hash differently.
func BatchHash(pending []types.Migration) string {
	h := sha1.New()
	for _, mig := range pending {
		io.WriteString(h, mig.SQL)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func verifyBatchUnlocked(ctx context.Context, conn querier, d dialect.Dialect, schema, hash string) error {
	var found string
	err := conn.QueryRow(ctx, d.SelectLock(schema), hash).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check migration lock: %w", err)
	}
	return batchLocked(hash)
}

func insertBatchLock(ctx context.Context, conn execer, d dialect.Dialect, schema, hash string) error {
	_, err := conn.Exec(ctx, d.InsertLock(schema), hash)
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation {
		return batchLocked(hash)
	}
	return fmt.Errorf("insert migration lock: %w", err)
}

func removeBatchLock(ctx context.Context, conn execer, d dialect.Dialect, schema, hash string) error {
	if _, err := conn.Exec(ctx, d.DeleteLock(schema), hash); err != nil {
		return fmt.Errorf("remove migration lock %s: %w", hash, err)
	}
	return nil
}

func batchLocked(hash string) error {
	return fmt.Errorf("%w: current migration is locked: %s", types.ErrBatchLocked, hash)
}
