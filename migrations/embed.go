// Package migrations embeds the SQLite schema for the Nexhome integration.
//
// The files are compiled into the binary so no SQL needs to ship alongside it.
package migrations

import "embed"

// FS holds every *.sql migration at its root. Pass it to database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
