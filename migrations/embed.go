// Package migrations embeds the SQL migration files for the CeremoDay
// database so they can be applied through the goose programmatic API both at
// server bootstrap and from integration tests.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
// Pass this to a goose.Provider instead of relying on a filesystem
// path at runtime.
//
//go:embed *.sql
var FS embed.FS
