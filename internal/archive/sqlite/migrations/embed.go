package migrations

import "embed"

// FS contains embedded SQLite migrations for the archive.
//
//go:embed *.sql
var FS embed.FS
