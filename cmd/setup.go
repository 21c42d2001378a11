package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/desertthunder/genrestats/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlain("Set CLIENT_ID and CLIENT_SECRET in the environment or a .env file, then run 'genrestats run'.\n")
	return nil
}

// SetupDatabase initializes the run ledger and runs migrations.
//
// A missing config file is created from the template first.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if r.config == nil || cmd.IsSet("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if err := shared.CreateConfigFile(path); err != nil {
				return err
			}
			r.logger.Info("config file not found, created from template", "path", path)
		}
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", config.Database.Path)
	db, err := shared.OpenLedger(config.Database)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	if !config.Database.Enabled {
		r.writePlain("✓ Run ledger ready at %s (set [database] enabled = true to record runs)\n", config.Database.Path)
		return nil
	}
	r.writePlain("✓ Run ledger ready at %s\n", config.Database.Path)
	return nil
}
