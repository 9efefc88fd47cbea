// Package pgtest wires tests to a live PostgreSQL server. Tests using it are
// skipped unless PGMIGRATE_TEST_HOST is set.
package pgtest

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gobkc/pgmigrations/dbutil"
)

var seq atomic.Int64

// Config returns connection settings for the test server with Database left
// empty, or skips t.
func Config(t testing.TB) dbutil.ConnectionConfig {
	t.Helper()

	host := os.Getenv("PGMIGRATE_TEST_HOST")
	if host == "" {
		t.Skip("PGMIGRATE_TEST_HOST not set")
	}

	port := 5432
	if v := os.Getenv("PGMIGRATE_TEST_PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			t.Fatalf("PGMIGRATE_TEST_PORT: %v", err)
		}
		port = p
	}

	user := os.Getenv("PGMIGRATE_TEST_USER")
	if user == "" {
		user = "postgres"
	}

	return dbutil.ConnectionConfig{
		User:     user,
		Password: os.Getenv("PGMIGRATE_TEST_PASSWORD"),
		Host:     host,
		Port:     port,
		SSLMode:  "disable",
	}
}

// Database creates a uniquely named database and returns a config pointing at
// it.
func Database(t testing.TB, prefix string) dbutil.ConnectionConfig {
	t.Helper()

	cfg := Config(t)
	name := fmt.Sprintf("%s_%d_%d", strings.ToLower(prefix), time.Now().UnixNano(), seq.Add(1))
	if err := dbutil.CreateDatabase(context.Background(), name, cfg, nil); err != nil {
		t.Fatalf("create database %s: %v", name, err)
	}
	cfg.Database = name
	return cfg
}
