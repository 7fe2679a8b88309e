// Package migrations holds the versioned SQLite schema for the course
// catalog, embedding records and the search_fts keyword index. Files are
// named NNN_name.up.sql and applied in version order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
