// Package migrations holds the PostgreSQL schema for cases, steps and
// learner events.
package migrations

import "embed"

// FS contains the embedded migrations, applied in file name order.
//
//go:embed *.sql
var FS embed.FS
