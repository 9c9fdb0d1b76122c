package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/hifi/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml from the template when it is missing, then creates
// the login journal database and runs its migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := r.configPath
	if configPath == "" {
		configPath = defaultConfigPath
	}

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		r.logger.Info("using existing config file", "path", configPath)
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		if config, err = shared.LoadConfig(configPath); err != nil {
			return err
		}
		if err := config.ApplyEnv(os.LookupEnv); err != nil {
			return err
		}
		r.config = config
		r.writePlain("✓ Wrote %s\n", configPath)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.writePlain("✓ Database ready at %s\n", config.Database.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Put CLIENT_ID and CLIENT_SECRET in .env for the login script\n")
	r.writePlain("2. Run 'hifi login' to create %s\n", config.Credentials.TokenFile)
	r.writePlain("3. Run 'hifi serve' to start the gateway\n")
	return nil
}
