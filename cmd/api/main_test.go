package main

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripsync/testutil"
)

func TestRootCommand_listsSubcommands(t *testing.T) {
	cmd := newRootCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "migrate")
}

func TestMigrateCommand_rejectsUnknownDirection(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetArgs([]string{"migrate", "sideways", "--env-file", "does-not-exist.env"})
	cmd.SetOut(&bytes.Buffer{})

	require.Error(t, cmd.Execute())
}

func TestMigrateCommand_requiresPostgres(t *testing.T) {
	t.Setenv("BACKEND", "memory")
	cmd := newRootCommand()
	cmd.SetArgs([]string{"migrate", "--env-file", "does-not-exist.env"})

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema migrations")
}

// TestMigrate_upStatusDown runs the migrations against TEST_DATABASE_URL.
func TestMigrate_upStatusDown(t *testing.T) {
	dsn := os.Getenv(testutil.EnvPostgres)
	if dsn == "" {
		t.Skipf("%s not set; skipping integration test", testutil.EnvPostgres)
	}
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, migrate(ctx, dsn, "up", &out))
	require.NoError(t, migrate(ctx, dsn, "status", &out))
	assert.Contains(t, out.String(), "applied")

	require.NoError(t, migrate(ctx, dsn, "down", &out))
	assert.Contains(t, out.String(), "rolled back")
	require.NoError(t, migrate(ctx, dsn, "up", &out))
}
