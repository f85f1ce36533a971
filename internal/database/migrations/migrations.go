package migrations

import "embed"

// Files holds the goose SQL migrations.
//
//go:embed *.sql
var Files embed.FS
