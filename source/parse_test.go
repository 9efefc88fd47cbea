package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobkc/pgmigrations/types"
)

func TestNewMigration(t *testing.T) {
	mig, err := NewMigration("12_create-users.sql", "CREATE TABLE users (id int);")
	require.NoError(t, err)

	assert.Equal(t, 12, mig.ID)
	assert.Equal(t, "12_create-users.sql", mig.Name)
	assert.Equal(t, "CREATE TABLE users (id int);", mig.SQL)
	assert.Len(t, mig.Hash, 40)
	assert.Equal(t, types.DefaultDirectives, mig.Directives)
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{name: "1_create-users.sql", want: 1},
		{name: "007-padded.sql", want: 7},
		{name: "42.sql", want: 42},
		{name: "3", want: 3},
		{name: "create-users.sql", wantErr: true},
		{name: "_1.sql", wantErr: true},
		{name: "-1_negative.sql", want: -1},
		{name: "+2_signed.sql", want: 2},
		{name: "-_dash.sql", wantErr: true},
		{name: "99999999999999999999999_huge.sql", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseID(tt.name)
			if tt.wantErr {
				require.ErrorIs(t, err, types.ErrNaming)
				assert.Contains(t, err.Error(), tt.name)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChecksum(t *testing.T) {
	// sha1("") is the well known empty digest; name and body are concatenated.
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", Checksum("", ""))
	assert.Equal(t, Checksum("1_a.sql", "SELECT 1"), Checksum("1_a.sql"+"SELECT", " 1"))
	assert.NotEqual(t, Checksum("1_a.sql", "SELECT 1"), Checksum("2_a.sql", "SELECT 1"))
}

func TestParseDirectives(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want types.Directives
	}{
		{
			name: "none",
			sql:  "CREATE TABLE a (id int);",
			want: types.Directives{Transactional: true, HashCheck: true},
		},
		{
			name: "disable transaction",
			sql:  DisableTransaction + "\nCREATE INDEX CONCURRENTLY a_idx ON a (id);",
			want: types.Directives{Transactional: false, HashCheck: true},
		},
		{
			name: "disable hash check anywhere in body",
			sql:  "INSERT INTO seed VALUES (1);\n" + DisableHashCheck,
			want: types.Directives{Transactional: true, HashCheck: false},
		},
		{
			name: "both",
			sql:  DisableHashCheck + "\n" + DisableTransaction,
			want: types.Directives{Transactional: false, HashCheck: false},
		},
		{
			name: "near miss is ignored",
			sql:  "-- postgres-migrations disable transaction",
			want: types.Directives{Transactional: true, HashCheck: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDirectives(tt.sql))
		})
	}
}

func TestBootstrap(t *testing.T) {
	b := Bootstrap()
	assert.Equal(t, types.BootstrapID, b.ID)
	assert.Equal(t, types.BootstrapName, b.Name)
	assert.True(t, b.IsBootstrap())
	assert.Contains(t, b.SQL, "CREATE TABLE IF NOT EXISTS migrations")
	assert.Equal(t, Checksum(b.Name, b.SQL), b.Hash)
	assert.True(t, b.Directives.Transactional)
}
