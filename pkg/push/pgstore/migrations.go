package pgstore

import "embed"

// Migrations holds the goose migrations for the push schema.
// Apply them with pg.Migrate(ctx, pool, cfg, pgstore.Migrations, pgstore.MigrationsDir, log).
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations that holds the SQL files.
const MigrationsDir = "migrations"
