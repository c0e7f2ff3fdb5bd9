// Package migrations embeds the SQL schema migrations into the binary so the
// store can self-migrate on startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
