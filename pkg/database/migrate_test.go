package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Ordered(t *testing.T) {
	names, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_schema.sql", names[0])
	assert.IsIncreasing(t, names)
}

func TestMigrations_CreateTables(t *testing.T) {
	sql, err := migrationsFS.ReadFile("migrations/001_schema.sql")
	require.NoError(t, err)
	for _, table := range []string{"session_blocks", "discount_codes", "bookings"} {
		assert.True(t, strings.Contains(string(sql), "CREATE TABLE IF NOT EXISTS "+table), table)
	}
}
