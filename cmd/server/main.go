package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	authhandler "blkout/internal/auth/handler"
	authservice "blkout/internal/auth/service"
	contenthandler "blkout/internal/content/handler"
	contentmetrics "blkout/internal/content/metrics"
	"blkout/internal/content/normalizer"
	contentservice "blkout/internal/content/service"
	"blkout/internal/content/store"
	"blkout/internal/jwttoken"
	moderationhandler "blkout/internal/moderation/handler"
	moderationmetrics "blkout/internal/moderation/metrics"
	moderationservice "blkout/internal/moderation/service"
	"blkout/internal/notify"
	notifymetrics "blkout/internal/notify/metrics"
	"blkout/internal/platform/config"
	"blkout/internal/platform/httpserver"
	"blkout/internal/platform/logger"
	"blkout/internal/platform/metrics"
	platformredis "blkout/internal/platform/redis"
	httptransport "blkout/internal/transport/http"
)

const (
	tokenTTL    = 12 * time.Hour
	inboxSize   = 256
	serviceName = "blkout-content-api"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Submission store: PostgreSQL when configured, in-memory otherwise.
	var (
		submissions store.Store
		pool        *pgxpool.Pool
	)
	if cfg.PostgresDSN != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()

		pg := store.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		submissions = pg
		log.Info("using postgres submission store")
	} else {
		submissions = store.NewMemoryStore()
		log.Warn("POSTGRES_DSN not set, submissions are held in memory")
	}

	// Delivery log: Redis when configured, in-memory otherwise.
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	var deliveryLog notify.DeliveryLogStore
	if redisClient != nil {
		defer redisClient.Close()
		deliveryLog = notify.NewRedisDeliveryLog(redisClient.Client)
		log.Info("using redis delivery log")
	} else {
		deliveryLog = notify.NewMemoryDeliveryLog()
	}

	// Webhook fan-out worker.
	endpoints := make([]notify.Endpoint, len(cfg.WebhookEndpoints))
	for i, e := range cfg.WebhookEndpoints {
		endpoints[i] = notify.Endpoint{Platform: e.Platform, URL: e.URL}
	}
	notifyMetrics := notifymetrics.New(registry)
	dispatcher := notify.NewDispatcher(
		endpoints,
		notify.NewWebhookClient(cfg.WebhookTimeout),
		deliveryLog,
		log,
		notifyMetrics,
		cfg.WebhookTimeout,
	)
	worker := notify.NewWorker(dispatcher, inboxSize, log, notifyMetrics)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		_ = worker.Run(ctx)
	}()

	// Services and handlers.
	tokens := jwttoken.New(cfg.JWTSigningKey, serviceName, tokenTTL)
	authSvc := authservice.New(cfg.ModeratorPasswordHash, tokens, log)
	contentSvc := contentservice.New(submissions, normalizer.New(), worker, log, contentmetrics.New(registry))
	moderationSvc := moderationservice.New(submissions, worker, log, moderationmetrics.New(registry))

	checks := map[string]httptransport.HealthChecker{}
	if pool != nil {
		checks["postgres"] = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(pingCtx)
		}
	}
	if redisClient != nil {
		checks["redis"] = func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Health(pingCtx)
		}
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:       log,
		Metrics:      metrics.New(registry),
		Registry:     registry,
		Validator:    tokens,
		Auth:         authhandler.New(authSvc, log),
		Content:      contenthandler.New(contentSvc, log),
		Moderation:   moderationhandler.New(moderationSvc, log),
		HealthChecks: checks,
	})

	srv := httpserver.New(cfg.Addr, router)
	srvErr := make(chan error, 1)
	go func() {
		log.Info("starting blkout content api", "addr", cfg.Addr, "webhooks", len(endpoints))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	select {
	case err := <-srvErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	// The worker drains queued notifications after ctx cancellation.
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("notification worker did not drain in time")
	}
	return nil
}
