package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	ticketAuth "github.com/MrEthical07/ticketAuth"
	"github.com/MrEthical07/ticketAuth/internal/config"
	"github.com/MrEthical07/ticketAuth/internal/httpapi"
	promexport "github.com/MrEthical07/ticketAuth/metrics/export/prometheus"
	"github.com/MrEthical07/ticketAuth/repository/postgres"
	"github.com/MrEthical07/ticketAuth/session"
)

// App is one running ticketauth service.
type App struct {
	cfg    config.Config
	logger *slog.Logger
	server *http.Server
	engine *ticketAuth.Engine
	redis  redis.UniversalClient
	pool   *pgxpool.Pool
}

// New connects Redis and PostgreSQL and assembles the service.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	rdb, err := ConnectRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return nil, err
	}

	pool, err := ConnectPostgres(ctx, cfg.Database.URL, logger)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	a, err := assemble(cfg, logger, rdb, pool, postgres.NewUsers(pool))
	if err != nil {
		_ = rdb.Close()
		pool.Close()
		return nil, err
	}
	return a, nil
}

// assemble builds the engine and router over already open connections. pool
// may be nil when users is not PostgreSQL backed.
func assemble(
	cfg config.Config,
	logger *slog.Logger,
	rdb redis.UniversalClient,
	pool *pgxpool.Pool,
	users ticketAuth.UserRepository,
) (*App, error) {
	engineCfg := cfg.Engine()
	tickets := session.NewStore(rdb, engineCfg.Ticket.RedisPrefix)

	builder := ticketAuth.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithTicketStore(tickets).
		WithUserRepository(users).
		WithLogger(logger)
	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(ticketAuth.NewSlogSink(logger.With("stream", "audit")))
	}

	engine, err := builder.Build()
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "build engine").Wrap(err)
	}

	handler := httpapi.NewHandler(engine, logger).
		WithHealthCheck("redis", func(ctx context.Context) error {
			_, err := tickets.Ping(ctx)
			return err
		})
	if pool != nil {
		handler = handler.WithHealthCheck("postgres", pool.Ping)
	}
	if cfg.Metrics.Enabled {
		handler = handler.WithMetrics(promexport.NewCollector(engine).Handler())
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		engine: engine,
		redis:  rdb,
		pool:   pool,
		server: &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpapi.NewRouter(handler),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Engine returns the assembled engine.
func (a *App) Engine() *ticketAuth.Engine {
	return a.engine
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run listens on the configured address and serves until ctx is done.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.HTTP.Addr)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("addr", a.cfg.HTTP.Addr).Wrap(err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts everything down within
// the configured grace period.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.InfoContext(ctx, "http server listening", "addr", ln.Addr().String())
		errCh <- a.server.Serve(ln)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return errors.Join(serveErr, a.Shutdown(shutdownCtx))
}

// Shutdown stops the HTTP server, drains the engine, then closes Redis and the
// database pool. Every step runs even if an earlier one fails.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = append(errs, oops.Code("SHUTDOWN_FAILED").With("step", "http").Wrap(err))
	}
	if err := a.engine.Close(ctx); err != nil {
		errs = append(errs, oops.Code("SHUTDOWN_FAILED").With("step", "engine").Wrap(err))
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, oops.Code("SHUTDOWN_FAILED").With("step", "redis").Wrap(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}

	a.logger.InfoContext(ctx, "shutdown complete")
	return errors.Join(errs...)
}
