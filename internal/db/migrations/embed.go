// Package migrations provides the embedded SQL migration files, applied at
// startup and by the test environment.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
