package source

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/gobkc/pgmigrations/types"
)

const (
	DisableTransaction = "-- postgres-migrations disable-transaction"
	DisableHashCheck   = "-- postgres-migrations disable-hash-check"
)

// NewMigration builds an immutable unit from a file name and its contents.
func NewMigration(name, sql string) (types.Migration, error) {
	id, err := parseID(name)
	if err != nil {
		return types.Migration{}, err
	}
	return types.Migration{
		ID:         id,
		Name:       name,
		SQL:        sql,
		Hash:       Checksum(name, sql),
		Directives: ParseDirectives(sql),
	}, nil
}

// parseID reads the leading integer of a file name, sign included. A
// negative id parses here and is rejected later by the ordering check.
func parseID(name string) (int, error) {
	start := 0
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, "+") {
		start = 1
	}
	end := strings.IndexFunc(name[start:], func(r rune) bool { return r < '0' || r > '9' })
	if end == -1 {
		end = len(name) - start
	}
	end += start
	if end == start {
		return 0, fmt.Errorf("%w: migration files should begin with an integer ID, offending file: '%s'", types.ErrNaming, name)
	}
	id, err := strconv.Atoi(name[:end])
	if err != nil {
		return 0, fmt.Errorf("%w: offending file: '%s': %w", types.ErrNaming, name, err)
	}
	return id, nil
}

// Checksum is the drift fingerprint stored in the ledger.
func Checksum(name, sql string) string {
	sum := sha1.Sum([]byte(name + sql))
	return hex.EncodeToString(sum[:])
}

func ParseDirectives(sql string) types.Directives {
	d := types.DefaultDirectives
	if strings.Contains(sql, DisableTransaction) {
		d.Transactional = false
	}
	if strings.Contains(sql, DisableHashCheck) {
		d.HashCheck = false
	}
	return d
}
