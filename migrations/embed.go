// Package migrations embeds SQL migration files into the binary.
//
// The bridge runs its journal migrations without needing the SQL files
// present on the filesystem.
package migrations

import (
	"embed"

	"github.com/nerrad567/obs-osc-bridge/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
