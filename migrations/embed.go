// Package migrations embeds the SQL schema into the binary and registers it
// with the database package.
//
// Import it for its side effect wherever a migrated database is needed:
//
//	import _ "github.com/hstefan/energy-sensors/migrations"
package migrations

import (
	"embed"

	"github.com/hstefan/energy-sensors/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
