package migrations

import (
	"github.com/uptrace/bun/migrate"
)

// Directory is where `db create` writes new migration files, relative to the repository root.
const Directory = "internal/database/migrations"

// Migrations holds all database migrations.
var Migrations = migrate.NewMigrations(migrate.WithMigrationsDirectory(Directory)) //nolint:gochecknoglobals // -
