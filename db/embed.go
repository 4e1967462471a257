// Package db carries the SQL migrations for config revisions and audit messages.
package db

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
