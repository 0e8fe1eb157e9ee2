package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := `SELECT id FROM events WHERE application_id=? AND id<? LIMIT ?`
	assert.Equal(t, q, Rebind(SQLite, q))
	assert.Equal(t, `SELECT id FROM events WHERE application_id=$1 AND id<$2 LIMIT $3`, Rebind(Postgres, q))
	assert.Equal(t, `SELECT 1`, Rebind(Postgres, `SELECT 1`))
}

func TestDialectOf(t *testing.T) {
	for in, want := range map[string]Dialect{"": SQLite, "sqlite3": SQLite, "PGX": Postgres, "postgresql": Postgres} {
		got, err := DialectOf(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := DialectOf("mysql")
	assert.Error(t, err)
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	_, _, err := Open(Config{Driver: "postgres"})
	assert.ErrorContains(t, err, "dsn")
}
