package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryUpMigrationHasDown(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, "sql")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	for name := range names {
		if strings.HasSuffix(name, ".up.sql") {
			assert.True(t, names[strings.TrimSuffix(name, ".up.sql")+".down.sql"], "missing down for %s", name)
		}
	}
}

func TestScheduleMigrationCarriesExclusionConstraint(t *testing.T) {
	body, err := fs.ReadFile(migrationFiles, "sql/000004_create_schedule_properties.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "EXCLUDE USING gist")
	assert.Contains(t, string(body), "WHERE (status <> 'cancelled')")
}
