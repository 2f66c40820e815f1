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
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/clinic-scheduler/internal/auth"
	"github.com/jwalitptl/clinic-scheduler/internal/cache"
	"github.com/jwalitptl/clinic-scheduler/internal/config"
	analysisHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/analysis"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/appointment"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/health"
	promHandler "github.com/jwalitptl/clinic-scheduler/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/reference"
	"github.com/jwalitptl/clinic-scheduler/internal/handler/session"
	"github.com/jwalitptl/clinic-scheduler/internal/middleware"
	"github.com/jwalitptl/clinic-scheduler/internal/repository"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/postgres"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/upstream"
	"github.com/jwalitptl/clinic-scheduler/internal/router"
	analysisService "github.com/jwalitptl/clinic-scheduler/internal/service/analysis"
	appointmentService "github.com/jwalitptl/clinic-scheduler/internal/service/appointment"
	"github.com/jwalitptl/clinic-scheduler/pkg/apiclient"
	"github.com/jwalitptl/clinic-scheduler/pkg/lock"
	"github.com/jwalitptl/clinic-scheduler/pkg/logger"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging"
	"github.com/jwalitptl/clinic-scheduler/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-scheduler/pkg/metrics"
)

const metricsNamespace = "clinic_scheduler"

type repositories struct {
	appointments repository.AppointmentRepository
	references   repository.ReferenceRepository
	comparisons  repository.ComparisonRepository
}

func main() {
	if err := run(); err != nil {
		zlog.Fatal().Err(err).Msg("api exited")
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.NewLogger(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		Console:    cfg.Log.Console,
	})
	zlog.Logger = log.Zerolog()
	zerolog.DefaultContextLogger = &zlog.Logger
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg, metricsNamespace)
	checks := map[string]health.Check{}

	repos, closeRepos, err := openRepositories(ctx, cfg, m, log, checks)
	if err != nil {
		return err
	}
	defer closeRepos()

	broker, locker, err := openBroker(cfg, m, log, checks)
	if err != nil {
		return err
	}
	defer broker.Close()

	queries := cache.NewQueryCache("appointments", cfg.Cache.QueryTTL, m)
	refs := cache.NewQueryCache("references", cfg.Cache.ReferenceTTL, m)
	invalidator := cache.NewInvalidator(cfg.Scheduling.DebounceWait, log, queries)
	go func() {
		if err := invalidator.Run(ctx, broker); err != nil && !errors.Is(err, context.Canceled) {
			log.Error(err, "cache invalidator stopped")
		}
	}()

	appointments := appointmentService.NewService(repos.appointments, repos.references,
		appointmentService.Config{
			MinLeadTime:   cfg.Scheduling.MinLeadTime,
			Location:      cfg.Location(),
			MaxPageSize:   cfg.Scheduling.MaxPageSize,
			CalendarLimit: cfg.Scheduling.CalendarLimit,
		},
		appointmentService.WithBroker(broker),
		appointmentService.WithLocker(locker),
		appointmentService.WithCaches(queries, refs),
		appointmentService.WithMetrics(m),
		appointmentService.WithLogger(log.With("component", "appointments")),
	)

	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
	})
	sessions := auth.NewSessionStore(tokens, auth.SessionDefaults{
		Currency: cfg.Scheduling.Currency,
		Timezone: cfg.Scheduling.Timezone,
	})

	handlers := router.Handlers{
		Health:      health.NewHandler(checks),
		Metrics:     promHandler.New(reg, m),
		Appointment: appointment.NewHandler(appointments),
		Reference:   reference.NewHandler(appointments),
	}
	var teardown []session.Teardown
	var analysis *analysisService.Service
	if repos.comparisons != nil {
		analysis = analysisService.NewService(repos.comparisons, analysisService.Config{
			Interval:    cfg.Analysis.Interval,
			MaxAttempts: cfg.Analysis.MaxAttempts,
			Retention:   cfg.Analysis.Retention,
		}, m, log.With("component", "analysis"))
		defer analysis.Shutdown()
		handlers.Analysis = analysisHandler.NewHandler(analysis)
		teardown = append(teardown, analysis.CancelSession)
	}
	handlers.Session = session.NewHandler(sessions, log, teardown...)

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.Security.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.Security.AllowedOrigins
	}
	r, err := router.NewRouter(middleware.NewAuthMiddleware(sessions), handlers, router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       corsConfig,
		RequestTimeout:   cfg.Server.RequestTimeout,
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
	})
	if err != nil {
		return err
	}
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "data_source", cfg.DataSource)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	invalidator.Stop()

	log.Info("server exited properly")
	return nil
}

// openRepositories connects the configured data source. The comparison
// repository exists whenever a clinic API base URL is configured.
func openRepositories(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log *logger.Logger, checks map[string]health.Check) (repositories, func(), error) {
	var repos repositories
	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var client *apiclient.Client
	if cfg.Upstream.BaseURL != "" {
		var err error
		client, err = apiclient.New(apiclient.Config{
			BaseURL:     cfg.Upstream.BaseURL,
			Timeout:     cfg.Upstream.Timeout,
			UserAgent:   "clinic-scheduler",
			MaxFailures: cfg.Upstream.MaxFailures,
			OpenTimeout: cfg.Upstream.OpenTimeout,
		}, m, log.With("component", "apiclient"))
		if err != nil {
			return repos, closeAll, fmt.Errorf("failed to create clinic API client: %w", err)
		}
		repos.comparisons = upstream.NewComparisonRepository(client)
	}

	switch cfg.DataSource {
	case config.DataSourceUpstream:
		repos.appointments = upstream.NewAppointmentRepository(client)
		repos.references = upstream.NewReferenceRepository(client)
	default:
		db, err := openDatabase(ctx, cfg.Database)
		if err != nil {
			return repos, closeAll, err
		}
		closers = append(closers, func() { _ = db.Close() })
		checks["database"] = db.PingContext
		repos.appointments = postgres.NewAppointmentRepository(db, m)
		repos.references = postgres.NewReferenceRepository(db, m)
	}
	return repos, closeAll, nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	db, err := postgres.NewDB(connectCtx, postgres.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Name:            cfg.Name,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(connectCtx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// openBroker returns the redis broker and slot lock, or in-process ones when
// no redis URL is configured.
func openBroker(cfg *config.Config, m *metrics.Metrics, log *logger.Logger, checks map[string]health.Check) (messaging.Broker, lock.Locker, error) {
	if cfg.Redis.URL == "" {
		log.Warn("redis not configured, using in-process broker")
		return messaging.NewMemoryBroker(), lock.NewLocalLocker(), nil
	}

	client, err := redis.NewClient(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   cfg.Redis.MaxRetries,
		RetryBackoff: cfg.Redis.RetryBackoff,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
	})
	if err != nil {
		return nil, nil, err
	}
	checks["redis"] = func(ctx context.Context) error { return pingRedis(ctx, client) }
	return redis.NewRedisBroker(client, log.With("component", "broker"), m),
		lock.NewRedisLocker(client, cfg.Redis.LockTTL, m), nil
}

func pingRedis(ctx context.Context, client *goredis.Client) error {
	return client.Ping(ctx).Err()
}
