package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tunedash/internal/repositories"
	"github.com/desertthunder/tunedash/internal/shared"
)

// SetupConfig writes the embedded default config to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", r.configPath)

	r.writePlain("✓ Config written to %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Point backend.base_url at your backend and set its FRONTEND_URL to %s\n", r.cfg().Callback.URL())
	r.writePlain("2. Run 'tunedash setup database'\n")
	r.writePlain("3. Run 'tunedash auth login'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	cfg := r.cfg()
	r.logger.Info("initializing database", "path", cfg.Database.Path)

	db, err := shared.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)

	switch {
	case cmd.Bool("status"):
		pending, err := shared.PendingMigrations(db)
		if err != nil {
			return fmt.Errorf("failed to check migrations: %w", err)
		}
		if len(pending) == 0 {
			r.writePlain("✓ Database is up to date\n")
			keys, err := repositories.NewStorageRepository(db).Keys()
			if err != nil {
				return fmt.Errorf("failed to read local storage: %w", err)
			}
			if len(keys) > 0 {
				r.writePlain("Stored keys: %s\n", strings.Join(keys, ", "))
			}
			return nil
		}
		r.writePlain("%d pending migration(s):\n", len(pending))
		for _, m := range pending {
			r.writePlain("  %04d %s\n", m.Version, m.Name)
		}
		return nil

	case cmd.Bool("rollback"):
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back: %w", err)
		}
		return r.writePlain("✓ Rolled back the latest migration\n")
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", cfg.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", cfg.Database.Path)
}
