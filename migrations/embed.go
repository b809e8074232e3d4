// Package migrations embeds the SQL migrations for the Postgres document store.
// cmd/api applies them with goose; integration tests apply them in TestMain.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
