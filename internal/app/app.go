package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/ghstore/internal/config"
	"github.com/utafrali/ghstore/internal/event"
	handler "github.com/utafrali/ghstore/internal/handler/http"
	"github.com/utafrali/ghstore/internal/inventory"
	pgrepo "github.com/utafrali/ghstore/internal/repository/postgres"
	redisrepo "github.com/utafrali/ghstore/internal/repository/redis"
	"github.com/utafrali/ghstore/internal/service"
	"github.com/utafrali/ghstore/migrations"
	"github.com/utafrali/ghstore/pkg/database"
	"github.com/utafrali/ghstore/pkg/health"
	pkgkafka "github.com/utafrali/ghstore/pkg/kafka"
	"github.com/utafrali/ghstore/pkg/middleware"
	"github.com/utafrali/ghstore/pkg/phone"
	"github.com/utafrali/ghstore/pkg/tracing"
	"github.com/utafrali/ghstore/pkg/validator"
)

const startupTimeout = 60 * time.Second

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.closeResources()
		}
	}()

	// Tracing.
	a.tracerShutdown, err = tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Redis holds carts.
	redisCfg := cfg.Redis()
	a.rdb, err = database.NewRedisClient(ctx, redisCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", redisCfg.Addr()),
		slog.Int("db", redisCfg.DB),
	)

	// PostgreSQL holds the address book.
	pgCfg := cfg.Postgres()
	a.pool, err = database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.String("database", pgCfg.DBName),
	)

	if err = database.RunMigrations(ctx, a.pool, migrations.FS, logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if err = database.RegisterPoolMetrics(prometheus.DefaultRegisterer, a.pool, config.ServiceName); err != nil {
		return nil, fmt.Errorf("register pool metrics: %w", err)
	}
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold, logger)

	// Kafka producer.
	a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Phone policy is shared by the services and the "ghphone" validation tag.
	phones := phone.NewNormalizer(cfg.PhoneOptions())
	validator.SetPhoneNormalizer(phones)

	healthHandler := health.NewHandler()

	// Stock lookups are optional.
	var stock inventory.StockProvider
	if cfg.InventoryServiceURL != "" {
		inv := inventory.NewClient(cfg.InventoryServiceURL, cfg.InventoryHTTP, logger)
		stock = inv
		healthHandler.RegisterOptional("inventory", inv.Ping)
		logger.Info("inventory client initialized", slog.String("url", cfg.InventoryServiceURL))
	} else {
		logger.Warn("INVENTORY_SERVICE_URL not set, stock lookups disabled")
	}

	// Build the dependency graph.
	publisher := event.NewProducer(a.producer, logger)
	cartService := service.NewCartService(
		redisrepo.NewCartRepository(a.rdb, cfg.CartTTL()),
		publisher,
		stock,
		service.CartSettings{
			Currency: cfg.Currency,
			CartTTL:  cfg.CartTTL(),
			Pricing:  cfg.Pricing(),
		},
		logger,
	)
	addressService := service.NewAddressService(pgrepo.NewAddressRepository(a.pool), publisher, phones, logger)
	phoneService := service.NewPhoneService(phones)

	// Health checks.
	rdb, pool, producer := a.rdb, a.pool, a.producer
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("postgres", pool.Ping)
	healthHandler.RegisterOptional("kafka", producer.Ping)

	// HTTP router.
	router := handler.NewRouter(cartService, addressService, phoneService, healthHandler, logger, cfg.CORSOrigins,
		middleware.RateLimitConfig{RPS: cfg.PhoneRateLimitRPS, Burst: cfg.PhoneRateLimitBurst})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return a, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeResources()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeResources()

	a.logger.Info("application shutdown complete")
	return nil
}

// closeResources releases every client that was opened. It is safe to call
// on a partially constructed App.
func (a *App) closeResources() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
		a.producer = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
		a.rdb = nil
	}
	if a.tracerShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
		a.tracerShutdown = nil
	}
}
