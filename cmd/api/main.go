package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/naebak/naebak-auth-service/api/routes"
	"github.com/naebak/naebak-auth-service/internal/auth"
	"github.com/naebak/naebak-auth-service/internal/profiles"
	"github.com/naebak/naebak-auth-service/internal/reference"
	"github.com/naebak/naebak-auth-service/internal/tracking"
	"github.com/naebak/naebak-auth-service/internal/users"
	"github.com/naebak/naebak-auth-service/pkg/auth/session"
	"github.com/naebak/naebak-auth-service/pkg/config"
	"github.com/naebak/naebak-auth-service/pkg/db"
	"github.com/naebak/naebak-auth-service/pkg/logger"
	"github.com/naebak/naebak-auth-service/pkg/mailer"
	"github.com/naebak/naebak-auth-service/pkg/metrics"
	"github.com/naebak/naebak-auth-service/pkg/migrate"
	"github.com/naebak/naebak-auth-service/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.FromConfig(cfg.App.ServiceName, cfg.App))

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}
	refRepo := reference.NewRepository(dbClient.DB())
	if cfg.App.IsDev() && cfg.FeatureFlags.AutoSeed {
		res, err := reference.NewLoader(refRepo, logg).Load(ctx, false)
		if err != nil {
			return err
		}
		logg.Info(logg.WithFields(ctx, map[string]any{
			"governorates": res.Governorates,
			"parties":      res.Parties,
		}), "reference data seeded")
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTPMetrics(reg)
	authMetrics := metrics.NewAuthMetrics(reg)

	sender, err := mailer.NewSender(cfg.Mail, logg)
	if err != nil {
		return err
	}
	notifier := mailer.NewNotifier(sender, logg, authMetrics, cfg.Mail.SendTimeout)
	defer notifier.Wait()

	userRepo := users.NewRepository(dbClient.DB())
	trackRepo := tracking.NewRepository(dbClient.DB())
	tracker, err := tracking.NewService(trackRepo, userRepo)
	if err != nil {
		return err
	}
	sweeper := tracking.NewSweeper(tracking.SweeperParams{
		Logger:  logg,
		Claimer: redisClient,
		Targets: tracking.RetentionTargets(trackRepo, cfg.Tracking),
		Window:  cfg.Tracking.SweepWindow,
		Timeout: cfg.Tracking.SweepTimeout,
	})
	defer sweeper.Wait()

	authService, err := auth.NewService(auth.ServiceParams{
		DB:             dbClient,
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		Resets:         redisClient,
		Tracker:        tracker,
		Notifier:       notifier,
		Metrics:        authMetrics,
		Logger:         logg,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		FeatureFlags:   cfg.FeatureFlags,
		Lockout:        cfg.Lockout,
	})
	if err != nil {
		return err
	}

	profileService, err := profiles.NewService(profiles.ServiceParams{
		DB:        dbClient.DB(),
		Tx:        dbClient,
		Reference: refRepo,
	})
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Params{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		RateLimiter:    redisClient,
		Sessions:       sessionManager,
		Auth:           authService,
		Profiles:       profileService,
		Reference:      reference.NewService(refRepo),
		Users:          userRepo,
		Tracker:        tracker,
		Sweeper:        sweeper,
		HTTPMetrics:    httpMetrics,
		AuthMetrics:    authMetrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
