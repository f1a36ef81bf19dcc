package main

import (
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	ticketAuth "github.com/MrEthical07/ticketAuth"
	"github.com/MrEthical07/ticketAuth/internal/app"
	"github.com/MrEthical07/ticketAuth/internal/config"
	"github.com/MrEthical07/ticketAuth/repository/postgres"
)

type provisionOptions struct {
	mobile   string
	password string
	nickname string
	salt     string
	head     string
}

// NewProvisionCmd creates the provision subcommand.
func NewProvisionCmd() *cobra.Command {
	var opts provisionOptions

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create a user",
		Long: `Create a user with a mobile number and plaintext password. The password
is stored as the two-stage salted hash; a salt is generated unless --salt is
given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runProvision(cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.mobile, "mobile", "", "mobile number identifying the user")
	cmd.Flags().StringVar(&opts.password, "password", "", "plaintext password")
	cmd.Flags().StringVar(&opts.nickname, "nickname", "", "display name (defaults to the mobile number)")
	cmd.Flags().StringVar(&opts.salt, "salt", "", "per-user salt, at least 6 characters")
	cmd.Flags().StringVar(&opts.head, "head", "", "avatar URL")
	_ = cmd.MarkFlagRequired("mobile")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runProvision(cmd *cobra.Command, cfg config.Config, opts provisionOptions) error {
	logger, err := app.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		return err
	}

	pool, err := app.ConnectPostgres(cmd.Context(), cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Provisioning never touches tickets or the throttle; the client is
	// never dialled.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer rdb.Close()

	engine, err := newProvisioningEngine(cfg, rdb, postgres.NewUsers(pool), logger)
	if err != nil {
		return err
	}
	defer engine.Close(cmd.Context())

	user, err := engine.ProvisionUser(cmd.Context(), ticketAuth.NewUser{
		Identifier: opts.mobile,
		Nickname:   opts.nickname,
		Password:   opts.password,
		Salt:       opts.salt,
		Head:       opts.head,
	})
	if err != nil {
		return err
	}

	cmd.Printf("created user %s (%s)\n", user.ID, user.Nickname)
	return nil
}

// newProvisioningEngine builds the engine from the same configuration serve
// uses, so every feature the file enables must be satisfiable here.
func newProvisioningEngine(
	cfg config.Config,
	rdb redis.UniversalClient,
	users ticketAuth.UserRepository,
	logger *slog.Logger,
) (*ticketAuth.Engine, error) {
	engine, err := ticketAuth.New().
		WithConfig(cfg.Engine()).
		WithRedis(rdb).
		WithUserRepository(users).
		WithLogger(logger).
		Build()
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "build engine").Wrap(err)
	}
	return engine, nil
}
