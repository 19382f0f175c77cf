// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contains the OAuth2 server schema migrations.
//
//go:embed oauth2/*.sql
var FS embed.FS

// Dir is the directory within FS where migrations live.
const Dir = "oauth2"
