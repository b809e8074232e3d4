package repo_test

import (
	"os"
	"testing"

	"github.com/pkordes/tripsync/testutil"
)

// TestMain migrates the Postgres test database once for the whole package.
// Without TEST_DATABASE_URL the Postgres tests skip themselves.
func TestMain(m *testing.M) {
	if dsn := os.Getenv(testutil.EnvPostgres); dsn != "" {
		testutil.MigrateUp(dsn)
	}
	os.Exit(m.Run())
}
