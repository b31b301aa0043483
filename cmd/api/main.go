// Copyright (c) 2026 SafHub. All rights reserved.

// Command api serves the SafHub identity backend: /auth/v1 sessions and
// the /rest/v1/user_roles row store that the session resolver reads.
//
// Startup order is logger, config, Postgres, Redis, migrations, token keys,
// mailer, then HTTP. SIGINT or SIGTERM drains in-flight requests before exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/safhub/safhub/internal/api"
	"github.com/safhub/safhub/internal/identity"
	"github.com/safhub/safhub/internal/platform/config"
	"github.com/safhub/safhub/internal/platform/constants"
	"github.com/safhub/safhub/internal/platform/mail"
	"github.com/safhub/safhub/internal/platform/migration"
	pgstore "github.com/safhub/safhub/internal/platform/postgres"
	redisstore "github.com/safhub/safhub/internal/platform/redis"
	"github.com/safhub/safhub/internal/platform/sec"
)

const startupTimeout = 30 * time.Second

func main() {
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("startup_failure", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("server_stopped_cleanly")
}

func run(log *slog.Logger) error {
	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
	}
	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("require_email_confirmation", cfg.RequireEmailConfirmation),
	)

	signals, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startup, cancelStartup := context.WithTimeout(signals, startupTimeout)
	defer cancelStartup()

	pool, err := pgstore.NewPool(startup, cfg.DatabaseURL, pgstore.PoolOptions{
		MaxConns: cfg.DatabaseMaxConns,
		MinConns: cfg.DatabaseMinConns,
	}, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := redisstore.NewClient(startup, cfg.RedisURL, log, redisstore.WithClientName(constants.AppName))
	if err != nil {
		return err
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn("redis_close_failed", slog.Any("error", err))
		}
	}()

	if err := migration.RunUp(startup, cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
		return err
	}

	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
		CheckCache:    func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) },
	}, log)

	mailer, err := newMailer(cfg, log)
	if err != nil {
		return err
	}

	roles := identity.NewRoleRepository(pool)
	identityService := identity.NewService(
		identity.NewUserRepository(pool),
		identity.NewSessionRepository(pool),
		roles,
		identity.NewVerificationTokenRepository(rdb),
		tokens,
		sec.NewPasswordHasher(cfg.BcryptCost),
		identity.Options{RequireEmailConfirmation: cfg.RequireEmailConfirmation, Mailer: mailer},
		log,
	)

	server := api.NewServer(signals, cfg, log, tokens, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Identity:  identity.NewHandler(identityService),
		Roles:     identity.NewRoleHandler(identity.NewRoleService(roles, log)),
	})
	return server.Run(signals, constants.ShutdownTimeout)
}

// newMailer picks SendGrid when a key is configured and the log-only mailer
// otherwise. Production must not silently drop confirmation mail.
func newMailer(cfg *config.Config, log *slog.Logger) (identity.Mailer, error) {
	if cfg.SendgridAPIKey != "" {
		return mail.NewSendgridMailer(mail.SendgridOptions{
			APIKey:    cfg.SendgridAPIKey,
			AppName:   "SafHub",
			FromEmail: cfg.MailFrom,
			VerifyURL: cfg.MailVerifyURL,
		}, log), nil
	}
	if cfg.IsProduction() && cfg.RequireEmailConfirmation {
		return nil, errors.New("config: SENDGRID_API_KEY is required when REQUIRE_EMAIL_CONFIRMATION is set in production")
	}
	log.Warn("mailer_log_only", slog.String("verify_url", cfg.MailVerifyURL))
	return mail.NewLogMailer(cfg.MailVerifyURL, log), nil
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}
