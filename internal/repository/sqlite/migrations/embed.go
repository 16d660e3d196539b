// Package migrations holds the schema for the SQLite store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
