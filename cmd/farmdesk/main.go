package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/farmdesk/farmdesk/internal/app"
	"github.com/farmdesk/farmdesk/internal/expenses"
	"github.com/farmdesk/farmdesk/internal/observability"
	"github.com/farmdesk/farmdesk/internal/platform/cache"
	"github.com/farmdesk/farmdesk/internal/platform/db"
	"github.com/farmdesk/farmdesk/internal/rbac"
	"github.com/farmdesk/farmdesk/internal/shared"
	"github.com/farmdesk/farmdesk/jobs"
)

const sessionCookie = "farmdesk_session"

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("farmdesk", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var pool *pgxpool.Pool
	if !cfg.UsesMemoryData() {
		pool, err = db.New(ctx, cfg.PGDSN, db.Options{})
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	expenseStore, err := app.OpenExpenseStore(cfg, pool)
	if err != nil {
		return err
	}
	directory, err := app.OpenDirectory(cfg, pool)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	sessions := shared.NewSessionManager(redisClient, sessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	authorizer := rbac.NewAuthorizer(rbac.DefaultPermissionMap())
	rbacService := rbac.NewService(directory, rbac.NewPrincipalCache(redisClient, cfg.PrincipalCacheTTL), logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessions,
		Principals:     rbacService,
		RBACMiddleware: rbac.Middleware{
			Authorizer:  authorizer,
			Logger:      logger,
			Metrics:     metrics,
			LoginPath:   cfg.LoginPath,
			LandingPath: cfg.LandingPath,
		},
		RBACHandler:     rbac.NewHandler(logger, rbacService, authorizer),
		ExpensesHandler: expenses.NewHandler(logger, expenses.NewService(expenseStore, metrics), jobClient),
		JobHandler:      jobs.NewHandler(inspector, logger),
		Metrics:         metrics,
	})

	return app.Serve(ctx, app.NewServer(cfg, router), logger)
}
