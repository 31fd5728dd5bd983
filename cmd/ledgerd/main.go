package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/openfolio/ledgerd/internal/accounts"
	"github.com/openfolio/ledgerd/internal/app"
	"github.com/openfolio/ledgerd/internal/auth"
	"github.com/openfolio/ledgerd/internal/authz"
	"github.com/openfolio/ledgerd/internal/grants"
	"github.com/openfolio/ledgerd/internal/observability"
	"github.com/openfolio/ledgerd/internal/platform/cache"
	"github.com/openfolio/ledgerd/internal/platform/db"
	"github.com/openfolio/ledgerd/internal/principals"
	"github.com/openfolio/ledgerd/internal/reports"
	"github.com/openfolio/ledgerd/internal/shared"
	"github.com/openfolio/ledgerd/internal/transactions"
	"github.com/openfolio/ledgerd/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	validate := validator.New()
	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(pool)

	store := authz.NewPGStore(pool)
	policy, err := authz.NewAccountPolicy(cfg.AccountPolicy, store)
	if err != nil {
		logger.Error("configure account policy", slog.Any("error", err))
		os.Exit(1)
	}
	evaluator := authz.NewEvaluator(store, policy, logger)
	evaluator.SetObserver(metrics)
	scope := authz.NewScope(store)

	principalsRepo := principals.NewRepository(pool)
	principalsService := principals.NewService(principalsRepo, auditLogger)
	principalsHandler := principals.NewHandler(logger, principalsService, validate)

	tokens := auth.NewTokenStore(redisClient, cfg.TokenTTL)
	authService := auth.NewService(principalsRepo, tokens)
	authMiddleware := &auth.Middleware{Service: authService, Logger: logger}
	authHandler := auth.NewHandler(logger, authService, validate)

	accountsRepo := accounts.NewRepository(pool)
	accountsService := accounts.NewService(accountsRepo, evaluator, scope)
	accountsHandler := accounts.NewHandler(logger, accountsService, validate)

	grantsRepo := grants.NewRepository(pool)
	grantsService := grants.NewService(grantsRepo, principalsRepo, evaluator, auditLogger)
	grantsHandler := grants.NewHandler(logger, grantsService, validate)

	transactionsRepo := transactions.NewRepository(pool)
	transactionsService := transactions.NewService(transactionsRepo, evaluator, scope)
	transactionsHandler := transactions.NewHandler(logger, transactionsService, validate)

	reportsRepo := reports.NewRepository(pool)
	reportsService := reports.NewService(reportsRepo)
	reportsHandler := reports.NewHandler(logger, reportsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)
	jobs.RegisterQueueDepth(metrics.Registerer(), inspector)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		AuthMiddleware:      authMiddleware,
		AuthHandler:         authHandler,
		PrincipalsHandler:   principalsHandler,
		AccountsHandler:     accountsHandler,
		GrantsHandler:       grantsHandler,
		TransactionsHandler: transactionsHandler,
		ReportsHandler:      reportsHandler,
		JobsHandler:         jobsHandler,
		Pool:                pool,
		Metrics:             metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server exited", slog.Any("error", err))
		os.Exit(1)
	}
}
