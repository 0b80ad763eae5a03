// Package pg bootstraps the PostgreSQL connection used by the push stores.
//
// Connect opens a *pgxpool.Pool (github.com/jackc/pgx/v5) with retries,
// Migrate applies embedded goose (github.com/pressly/goose/v3) migrations and
// Healthcheck returns a readiness probe. Config is populated from PG_*
// environment variables through github.com/caarlos0/env.
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, pgstore.Migrations, "migrations", slog.Default()); err != nil {
//	    return err
//	}
package pg
