package dbutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/gobkc/pgmigrations/dialect"
	"github.com/gobkc/pgmigrations/types"
)

// DefaultTimeout bounds the short-lived helper connections (database
// creation, backend cancellation).
const DefaultTimeout = 10 * time.Second

const (
	codeDuplicateDatabase = "42P04"
	codeUniqueViolation   = "23505"
)

type ConnectionConfig struct {
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	// DefaultDatabase is the maintenance database CreateDatabase connects to.
	DefaultDatabase string `mapstructure:"default_database"`
	SSLMode         string `mapstructure:"sslmode"`
}

// Validate checks the fields needed to open a connection to c.Database.
func (c ConnectionConfig) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("%w: database config problem: database is required", types.ErrConfig)
	}
	return c.validateServer()
}

func (c ConnectionConfig) validateServer() error {
	var missing []string
	if c.User == "" {
		missing = append(missing, "user")
	}
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: database config problem: %s required", types.ErrConfig, strings.Join(missing, ", "))
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: database config problem: invalid port %d", types.ErrConfig, c.Port)
	}
	return nil
}

// DSN renders c as a postgres:// URL for the given database.
func (c ConnectionConfig) DSN(database string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + database,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// Connect opens a single session to c.Database. Driver errors are returned
// verbatim, wrapped in ErrConnectivity.
func Connect(ctx context.Context, c ConnectionConfig) (*pgx.Conn, error) {
	return connect(ctx, c, c.Database)
}

func connect(ctx context.Context, c ConnectionConfig, database string) (*pgx.Conn, error) {
	cfg, err := pgx.ParseConfig(c.DSN(database))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConfig, err)
	}
	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConnectivity, err)
	}
	return conn, nil
}

// CancelBackend opens a fresh connection and asks the server to cancel the
// statement currently running on backend pid.
func CancelBackend(ctx context.Context, c ConnectionConfig, pid int32) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	conn, err := Connect(ctx, c)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	var signalled bool
	if err := conn.QueryRow(ctx, dialect.Postgres{}.CancelBackend(), pid).Scan(&signalled); err != nil {
		return fmt.Errorf("cancel backend %d: %w", pid, err)
	}
	if !signalled {
		return fmt.Errorf("cancel backend %d: no such backend", pid)
	}
	return nil
}

// CreateDatabase creates name through c.DefaultDatabase ("postgres" when
// unset). An existing database is not an error.
func CreateDatabase(ctx context.Context, name string, c ConnectionConfig, log logrus.FieldLogger) error {
	if log == nil {
		log = nopLogger()
	}
	if name == "" {
		return fmt.Errorf("%w: must pass database name", types.ErrConfig)
	}
	if err := c.validateServer(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	admin := c.DefaultDatabase
	if admin == "" {
		admin = "postgres"
	}

	log.WithField("db", name).Info("attempting to create database")

	conn, err := connect(ctx, c, admin)
	if err != nil {
		return err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	var exists bool
	err = conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname=$1)`,
		name,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check database existence failed: %w", err)
	}

	if exists {
		log.WithField("db", name).Info("database already exists")
		return nil
	}

	_, err = conn.Exec(ctx, "CREATE DATABASE "+dialect.Postgres{}.QuoteIdent(name))
	if err == nil {
		log.WithField("db", name).Info("database created")
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeDuplicateDatabase, codeUniqueViolation:
			log.WithFields(logrus.Fields{"db": name, "code": pgErr.Code}).Warn("database created by another instance")
			return nil
		}
	}

	log.WithError(err).WithField("db", name).Error("create database failed")
	return fmt.Errorf("create database %q: %w", name, err)
}

func nopLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
