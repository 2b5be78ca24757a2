package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/roomsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the config file when missing, then initializes the database and runs migrations.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config, err := r.loadOrCreateConfig(configPath)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
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
	r.logger.Infof("setup complete for database: %v", config.Database.Path)

	r.writePlain("✓ Configuration: %s\n", configPath)
	r.writePlain("✓ Database: %s\n", config.Database.Path)
	r.writePlainln("Next: roomsync auth login --email you@example.com")
	return nil
}

func (r *Runner) loadOrCreateConfig(configPath string) (*shared.Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrMissingConfig, err)
		}
		r.logger.Info("config file created", "path", configPath)
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	config.ApplyEnv(nil)
	return config, nil
}
