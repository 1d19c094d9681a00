// Package migrations embeds the ordered schema migration files. Each file is
// written to be idempotent (IF NOT EXISTS guards) so a partially applied
// migration can be re-run safely.
package migrations

import "embed"

//go:embed *.up.sql
var FS embed.FS
