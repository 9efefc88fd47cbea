package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	migration "github.com/gobkc/pgmigrations"
)

const sample = `
connection:
  host: db.internal
  port: 6543
  user: deploy
  password: secret
  database: app
run:
  dir: sql
  timeout: 2m
  limit: 4
  schema: tenant
log:
  level: debug
  format: json
`

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pgmigrate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	f, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost", f.Connection.Host)
	assert.Equal(t, 5432, f.Connection.Port)
	assert.Equal(t, "postgres", f.Connection.User)
	assert.Equal(t, "postgres", f.Connection.DefaultDatabase)
	assert.Equal(t, "migrations", f.Run.Dir)
	assert.Equal(t, migration.DefaultMigrationTimeout, f.Run.Timeout)
	assert.Equal(t, migration.DefaultSchema, f.Run.Schema)
	assert.Nil(t, f.Run.ApplicationID)
	assert.Equal(t, "info", f.Log.Level)
}

func TestLoad_File(t *testing.T) {
	f, err := Load(writeFile(t, sample), nil)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", f.Connection.Host)
	assert.Equal(t, 6543, f.Connection.Port)
	assert.Equal(t, "deploy", f.Connection.User)
	assert.Equal(t, "secret", f.Connection.Password)
	assert.Equal(t, "app", f.Connection.Database)
	assert.Equal(t, "sql", f.Run.Dir)
	assert.Equal(t, 2*time.Minute, f.Run.Timeout)
	assert.Equal(t, 4, f.Run.Limit)
	assert.Equal(t, "tenant", f.Run.Schema)
	assert.Equal(t, "json", f.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("PGMIGRATE_CONNECTION_HOST", "from-env")
	t.Setenv("PGMIGRATE_RUN_TIMEOUT", "5s")
	t.Setenv("PGMIGRATE_RUN_APPLICATION_ID", "17")

	f, err := Load(writeFile(t, sample), nil)
	require.NoError(t, err)

	assert.Equal(t, "from-env", f.Connection.Host)
	assert.Equal(t, 5*time.Second, f.Run.Timeout)
	require.NotNil(t, f.Run.ApplicationID)
	assert.Equal(t, int64(17), *f.Run.ApplicationID)
	assert.Equal(t, "deploy", f.Connection.User)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("PGMIGRATE_CONNECTION_DATABASE", "from-env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse([]string{"--database", "from-flag", "--limit", "2", "--block-on-app-lock"}))

	f, err := Load(writeFile(t, sample), fs)
	require.NoError(t, err)

	assert.Equal(t, "from-flag", f.Connection.Database)
	assert.Equal(t, 2, f.Run.Limit)
	assert.True(t, f.Run.BlockOnAppLock)
	// Unset flags do not shadow the file.
	assert.Equal(t, "db.internal", f.Connection.Host)
	assert.Nil(t, f.Run.ApplicationID)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.ErrorIs(t, err, migration.ErrConfig)
}

func TestFile_Logger(t *testing.T) {
	f := &File{Log: Log{Level: "debug", Format: "json"}}
	l, err := f.Logger()
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	_, err = (&File{Log: Log{Level: "loud"}}).Logger()
	assert.ErrorIs(t, err, migration.ErrConfig)

	_, err = (&File{Log: Log{Level: "info", Format: "xml"}}).Logger()
	assert.ErrorIs(t, err, migration.ErrConfig)
}

func TestFile_MigrationConfig(t *testing.T) {
	id := int64(9)
	f := &File{Run: Run{Timeout: time.Second, Limit: 3, Schema: "s", BlockOnAppLock: true, ApplicationID: &id}}
	log := logrus.New()

	cfg := f.MigrationConfig(log)
	assert.Equal(t, time.Second, cfg.MigrationTimeout)
	assert.Equal(t, 3, cfg.Limit)
	assert.Equal(t, "s", cfg.Schema)
	assert.True(t, cfg.BlockOnAppLock)
	assert.Equal(t, &id, cfg.ApplicationID)
	assert.Same(t, log, cfg.Logger)
}
