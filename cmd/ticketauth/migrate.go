package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/ticketAuth/internal/config"
	"github.com/MrEthical07/ticketAuth/repository/postgres"
)

// migrator is the subset of postgres.Migrator the command drives.
type migrator interface {
	Up() error
	Down() error
	Version() (uint, bool, error)
	Close() error
}

var newMigrator = func(databaseURL string) (migrator, error) {
	return postgres.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var confirmDown bool

	cmd := &cobra.Command{
		Use:       "migrate [up|down|version]",
		Short:     "Run database migrations",
		Long:      `Apply, revert or report the embedded PostgreSQL schema migrations. Defaults to up.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "version"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := "up"
			if len(args) == 1 {
				action = args[0]
			}
			if action == "down" && !confirmDown {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("migrate down drops the user table; pass --yes to confirm")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runMigrate(cmd, cfg, action)
		},
	}
	cmd.Flags().BoolVar(&confirmDown, "yes", false, "confirm migrate down")
	return cmd
}

func runMigrate(cmd *cobra.Command, cfg config.Config, action string) error {
	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database.url or %s is required", config.DatabaseURLEnv)
	}

	m, err := newMigrator(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil {
			cmd.PrintErrf("closing migrator: %v\n", closeErr)
		}
	}()

	switch action {
	case "up":
		cmd.Println("Running migrations...")
		if err := m.Up(); err != nil {
			return err
		}
		cmd.Println("Migrations completed successfully")
	case "down":
		cmd.Println("Reverting migrations...")
		if err := m.Down(); err != nil {
			return err
		}
		cmd.Println("Migrations reverted")
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		cmd.Printf("version=%d dirty=%t\n", version, dirty)
	}
	return nil
}
