// Package migrations embeds the versioned SQL schema for each supported
// server database. SQLite deployments create their schema with gorm instead.
package migrations

import "embed"

// FS holds one directory of golang-migrate files per driver
//
//go:embed postgres/*.sql mysql/*.sql
var FS embed.FS
