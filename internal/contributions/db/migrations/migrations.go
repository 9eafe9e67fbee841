// Package migrations embeds the versioned schema migrations, one directory
// per SQL dialect.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
