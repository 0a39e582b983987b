// Package db embeds the SQL migrations for the example application so the
// compiled binary can migrate a database without access to the source tree.
package db

import "embed"

//go:embed migrations
var Migrations embed.FS
