package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/het-labo/stixn-dewi/internal/api/router"
	"github.com/het-labo/stixn-dewi/internal/app/bootstrap"
	appconfig "github.com/het-labo/stixn-dewi/internal/config"
	"github.com/het-labo/stixn-dewi/internal/dewi"
	httpmiddleware "github.com/het-labo/stixn-dewi/internal/http/middleware"
	"github.com/het-labo/stixn-dewi/internal/observability/metrics"
	"github.com/het-labo/stixn-dewi/internal/proxy"
	"github.com/het-labo/stixn-dewi/internal/reconcile"
	"github.com/het-labo/stixn-dewi/internal/synclog"
	"github.com/het-labo/stixn-dewi/internal/upsert"
	"github.com/het-labo/stixn-dewi/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting stixn-dewi contact sync",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsHandler, upsertMetrics := setupMetrics()

	pool := bootstrap.BuildPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	syncLog := bootstrap.BuildSyncLog(pool)
	if pruner, ok := syncLog.(bootstrap.Pruner); ok {
		bootstrap.StartSyncLogPruner(ctx, pruner, cfg.SyncLogRetention, time.Hour, logger)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	draftOpts, err := bootstrap.BuildDraftOptions(cfg)
	if err != nil {
		logger.Error("invalid draft configuration", "error", err)
		os.Exit(1)
	}
	contactSvc, err := bootstrap.BuildUpsertService(cfg, "", upsertMetrics, syncLog, logger)
	if err != nil {
		logger.Error("invalid upsert configuration", "error", err)
		os.Exit(1)
	}
	saveUserSvc, err := bootstrap.BuildUpsertService(cfg, upsert.CreateFirst, upsertMetrics, syncLog, logger)
	if err != nil {
		logger.Error("invalid upsert configuration", "error", err)
		os.Exit(1)
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	defer limiter.Stop()

	fields := bootstrap.Fields(cfg)
	r := router.New(&router.Config{
		Logger:          logger,
		ContactHandler:  proxy.NewContactHandler(contactSvc, fields, logger),
		SaveUserHandler: proxy.NewSaveUserHandler(dewi.NewClient(cfg.DewiBaseURL, cfg.DewiAPIKey, logger), saveUserSvc, cfg.DewiClubID, logger),
		SessionHandler: proxy.NewSessionHandler(proxy.SessionConfig{
			Sessions: bootstrap.BuildSessions(redisClient),
			Upserter: bootstrap.BuildUpserter(cfg, contactSvc, logger),
			Draft:    draftOpts,
			Reconcile: reconcile.Options{
				Fields:       fields,
				ClearOnFinal: cfg.DraftClearOnFinal,
			},
			Metrics: upsertMetrics,
			Logger:  logger,
		}),
		SyncLogHandler:     synclog.NewHandler(syncLog, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		StaticDir:          cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// setupMetrics registers the contact sync metrics and the Go runtime
// collectors on a private registry.
func setupMetrics() (http.Handler, *metrics.UpsertMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewUpsertMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}
