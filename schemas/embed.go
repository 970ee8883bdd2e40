// Package schemas provides embedded SQL migration files.
// Each file is named <version>_<name>.<dialect>.sql and must be safe to apply more than once.
package schemas

import "embed"

// Migrations contains all SQL migration files.
//
//go:embed migrations/*.sql
var Migrations embed.FS
