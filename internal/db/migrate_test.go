// internal/db/migrate_test.go
package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}
	require.Equal(t, ups, downs)
}

func TestInitialMigrationDeclaresIdempotencyKey(t *testing.T) {
	data, err := fs.ReadFile(migrationsFS, "migrations/0001_checkout_orders.up.sql")
	require.NoError(t, err)
	require.Contains(t, string(data), "idempotency_key TEXT NOT NULL UNIQUE")
}
