// Package config loads pgmigrate settings from a YAML file, PGMIGRATE_*
// environment variables and command line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	migration "github.com/gobkc/pgmigrations"
	"github.com/gobkc/pgmigrations/dbutil"
	"github.com/gobkc/pgmigrations/types"
)

const EnvPrefix = "PGMIGRATE"

type File struct {
	Connection dbutil.ConnectionConfig `mapstructure:"connection"`
	Run        Run                     `mapstructure:"run"`
	Log        Log                     `mapstructure:"log"`
}

type Run struct {
	Dir            string        `mapstructure:"dir"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Limit          int           `mapstructure:"limit"`
	Schema         string        `mapstructure:"schema"`
	BlockOnAppLock bool          `mapstructure:"block_on_app_lock"`
	// ApplicationID stays nil unless set somewhere, so each process picks
	// its own random lock id.
	ApplicationID *int64 `mapstructure:"application_id"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// flagKeys maps flag names registered by Flags to their settings keys.
var flagKeys = map[string]string{
	"host":              "connection.host",
	"port":              "connection.port",
	"user":              "connection.user",
	"password":          "connection.password",
	"database":          "connection.database",
	"default-database":  "connection.default_database",
	"sslmode":           "connection.sslmode",
	"dir":               "run.dir",
	"timeout":           "run.timeout",
	"limit":             "run.limit",
	"schema":            "run.schema",
	"block-on-app-lock": "run.block_on_app_lock",
	"app-id":            "run.application_id",
	"log-level":         "log.level",
	"log-format":        "log.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("connection.host", "localhost")
	v.SetDefault("connection.port", 5432)
	v.SetDefault("connection.user", "postgres")
	v.SetDefault("connection.password", "")
	v.SetDefault("connection.database", "")
	v.SetDefault("connection.default_database", "postgres")
	v.SetDefault("connection.sslmode", "")
	v.SetDefault("run.dir", "migrations")
	v.SetDefault("run.timeout", migration.DefaultMigrationTimeout)
	v.SetDefault("run.limit", 0)
	v.SetDefault("run.schema", migration.DefaultSchema)
	v.SetDefault("run.block_on_app_lock", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Flags registers the command line overrides understood by Load.
func Flags(fs *pflag.FlagSet) {
	fs.String("host", "", "database host")
	fs.Int("port", 0, "database port")
	fs.String("user", "", "database user")
	fs.String("password", "", "database password")
	fs.String("database", "", "database to migrate")
	fs.String("default-database", "", "maintenance database used by create-db")
	fs.String("sslmode", "", "libpq sslmode")
	fs.String("dir", "", "directory holding the migration scripts")
	fs.Duration("timeout", 0, "budget for the whole batch")
	fs.Int("limit", 0, "only consider the first N directory entries")
	fs.String("schema", "", "schema holding the migrations table")
	fs.Bool("block-on-app-lock", false, "wait for the application lock instead of failing")
	fs.Int64("app-id", 0, "advisory lock id shared by cooperating processes")
	fs.String("log-level", "", "panic, fatal, error, warn, info, debug or trace")
	fs.String("log-format", "", "text or json")
}

// Load reads path (skipped when empty), then environment, then any flag in
// flags that was set explicitly. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*File, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// No default exists for the lock id, so the key has to be bound by hand.
	if err := v.BindEnv("run.application_id"); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConfig, err)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: config file %s not found", types.ErrConfig, path)
			}
			return nil, fmt.Errorf("%w: failed to read config file: %w", types.ErrConfig, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("%w: bind flag %s: %w", types.ErrConfig, name, err)
			}
		}
	}

	var file File
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %w", types.ErrConfig, err)
	}
	return &file, nil
}

// Logger builds the logger described by the log section.
func (f *File) Logger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(f.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrConfig, err)
	}

	l := logrus.New()
	l.SetLevel(level)
	switch f.Log.Format {
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", types.ErrConfig, f.Log.Format)
	}
	return l, nil
}

// MigrationConfig converts the run section for migration.Migrate.
func (f *File) MigrationConfig(log logrus.FieldLogger) migration.Config {
	return migration.Config{
		Logger:           log,
		MigrationTimeout: f.Run.Timeout,
		Limit:            f.Run.Limit,
		Schema:           f.Run.Schema,
		BlockOnAppLock:   f.Run.BlockOnAppLock,
		ApplicationID:    f.Run.ApplicationID,
	}
}
