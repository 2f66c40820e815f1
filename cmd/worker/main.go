package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	zlog "github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-scheduler/internal/config"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/health"
	promHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/notification"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

// The worker sends patient emails for appointment events published by the
// API instances.
func main() {
	if err := run(); err != nil {
		zlog.Fatal().Err(err).Msg("worker exited")
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Redis.URL == "" {
		return errors.New("redis.url is required for the worker")
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Console:    cfg.Log.Console,
	}).With("component", "worker")
	zlog.Logger = log.Zerolog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	m := metrics.NewMetrics(reg, "clinic_scheduler_worker")

	client, err := redis.NewClient(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		return err
	}
	broker := redis.NewRedisBroker(client, log, m)
	defer broker.Close()

	mailer := notification.NewSMTPMailer(notification.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	notifier := notification.NewNotifier(mailer, cfg.Scheduling.ClinicName, cfg.Location(), log)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	metricsHandler := promHandler.New(reg, m)
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Recovery(), metricsHandler.Middleware())
	health.NewHandler(map[string]health.Check{
		"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
	}).RegisterRoutes(engine)
	engine.GET("/metrics", metricsHandler.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.WorkerPort),
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "health server stopped")
		}
	}()

	log.Info("worker started", "channel", "appointment_events", "health_addr", srv.Addr)
	runErr := notifier.Run(ctx, broker)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("health server forced to shutdown: %w", err)
	}
	if runErr != nil {
		return fmt.Errorf("notifier stopped: %w", runErr)
	}
	log.Info("worker exited properly")
	return nil
}
