// Package migrations embeds the versioned PostgreSQL schema.
package migrations

import "embed"

// FS holds the *.up.sql / *.down.sql files applied by store.Migrate.
//
//go:embed *.sql
var FS embed.FS
