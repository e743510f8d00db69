// Package migrations embeds the SQL schema so the server can apply it
// through goose at startup and tests can apply it without a file path.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
