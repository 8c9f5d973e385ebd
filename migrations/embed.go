// Package migrations embeds the SQL schema files into the binary so the
// server can bootstrap a fresh database without shipping loose files.
package migrations

import (
	"embed"

	"github.com/nordbohus/smarthouse-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}
