package main

import (
	"github.com/spf13/cobra"

	"github.com/MrEthical07/ticketAuth/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the ticketauth CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticketauth",
		Short: "ticketauth - ticket based session service",
		Long: `ticketauth issues opaque session tickets for mobile/password logins,
stores them in Redis and resolves them back to the user on each request.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewProvisionCmd())

	return cmd
}

// loadConfig reads the config file named by --config and overlays the flags
// set on cmd.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(configFile, cmd.Flags())
}
