// Package migrations holds the numbered SQLite schema files for the
// embedding index and the entity tables. NewStore applies every
// NNN_name.up.sql newer than the recorded schema version.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
