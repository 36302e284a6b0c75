// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/campus-market/internal/admin"
	"github.com/carterperez-dev/templates/campus-market/internal/auth"
	"github.com/carterperez-dev/templates/campus-market/internal/config"
	"github.com/carterperez-dev/templates/campus-market/internal/core"
	"github.com/carterperez-dev/templates/campus-market/internal/course"
	"github.com/carterperez-dev/templates/campus-market/internal/events"
	"github.com/carterperez-dev/templates/campus-market/internal/health"
	"github.com/carterperez-dev/templates/campus-market/internal/listing"
	"github.com/carterperez-dev/templates/campus-market/internal/metrics"
	"github.com/carterperez-dev/templates/campus-market/internal/middleware"
	"github.com/carterperez-dev/templates/campus-market/internal/migrations"
	"github.com/carterperez-dev/templates/campus-market/internal/pricehistory"
	"github.com/carterperez-dev/templates/campus-market/internal/review"
	"github.com/carterperez-dev/templates/campus-market/internal/server"
	"github.com/carterperez-dev/templates/campus-market/internal/transaction"
	"github.com/carterperez-dev/templates/campus-market/internal/user"
	"github.com/carterperez-dev/templates/campus-market/internal/wishlist"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
		"lock_timeout", cfg.Database.LockTimeout,
	)

	if cfg.Database.Migrate {
		if err := migrations.Apply(ctx, db.DB, logger); err != nil {
			return err
		}
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	var publisher events.Publisher = events.Noop{}
	natsDep := health.Dependency{Name: "nats", Optional: true}
	if cfg.NATS.Enabled {
		nats, natsErr := events.NewNATSPublisher(cfg.NATS, cfg.App.Name, logger)
		if natsErr != nil {
			return natsErr
		}
		publisher = nats
		natsDep.Checker = nats
		logger.Info("nats connected",
			"url", cfg.NATS.URL,
			"subject_prefix", cfg.NATS.SubjectPrefix,
		)
	}

	verifier, err := auth.NewVerifier(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("token verifier initialized",
		"algorithm", "ES256",
		"issuer", cfg.JWT.Issuer,
	)

	engineMetrics := metrics.New("campus_market")

	market := newMarket(marketConfig{
		db:        db,
		redis:     redis.Client,
		cacheTTL:  cfg.Cache.ListingTTL,
		publisher: publisher,
		metrics:   engineMetrics,
		logger:    logger,
	})

	deps := []health.Dependency{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}
	if cfg.NATS.Enabled {
		deps = append(deps, natsDep)
	}
	healthHandler := health.NewHandler(deps...)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		ListingStats:     market.listings.Stats,
		TransactionStats: market.transactions.Stats,
		DBStats:          db.Stats,
		RedisStats:       redis.PoolStats,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit:    middleware.LimitFromConfig(cfg.RateLimit),
			FailOpen: true,
			Logger:   logger,
		}).Handler,
	)

	healthHandler.RegisterRoutes(router)
	router.Handle("/metrics", engineMetrics.Handler())

	authenticator := middleware.Authenticator(verifier)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	publisher.Close()

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

type marketConfig struct {
	db        *core.Database
	redis     *goredis.Client
	cacheTTL  time.Duration
	publisher events.Publisher
	metrics   *metrics.Engine
	logger    *slog.Logger
}

// market is the consistency engine: every service shares one ledger and
// one event publisher.
type market struct {
	users        *user.Service
	courses      *course.Service
	listings     *listing.Service
	transactions *transaction.Service
	reviews      *review.Service
	wishlist     *wishlist.Service
}

func newMarket(cfg marketConfig) *market {
	users := user.NewService(user.ServiceConfig{
		Tx: cfg.db,
		DB: cfg.db.DB,
	})
	courses := course.NewService(course.NewRepository(cfg.db.DB))

	listings := listing.NewService(listing.ServiceConfig{
		Tx:      cfg.db,
		DB:      cfg.db.DB,
		Prices:  pricehistory.NewTracker(cfg.db.DB, nil),
		Sellers: users,
		Courses: courses,
		Cache:   listing.NewRedisCache(cfg.redis, cfg.cacheTTL),
		Events:  cfg.publisher,
		Metrics: cfg.metrics,
		Logger:  cfg.logger,
	})

	transactions := transaction.NewService(transaction.ServiceConfig{
		Tx:       cfg.db,
		DB:       cfg.db.DB,
		Listings: listings,
		Events:   cfg.publisher,
		Metrics:  cfg.metrics,
		Logger:   cfg.logger,
	})

	reviews := review.NewService(review.ServiceConfig{
		Tx:      cfg.db,
		DB:      cfg.db.DB,
		Events:  cfg.publisher,
		Metrics: cfg.metrics,
		Logger:  cfg.logger,
	})

	return &market{
		users:        users,
		courses:      courses,
		listings:     listings,
		transactions: transactions,
		reviews:      reviews,
		wishlist:     wishlist.NewService(wishlist.NewRepository(cfg.db.DB), listings, users),
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
