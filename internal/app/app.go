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

	"github.com/marviero/backoffice/internal/auth"
	"github.com/marviero/backoffice/internal/config"
	"github.com/marviero/backoffice/internal/event"
	handler "github.com/marviero/backoffice/internal/handler/http"
	"github.com/marviero/backoffice/internal/realtime"
	"github.com/marviero/backoffice/internal/repository/postgres"
	"github.com/marviero/backoffice/internal/search"
	"github.com/marviero/backoffice/internal/search/elasticsearch"
	"github.com/marviero/backoffice/internal/search/memory"
	"github.com/marviero/backoffice/internal/service"
	"github.com/marviero/backoffice/internal/webhook"
	"github.com/marviero/backoffice/migrations"
	"github.com/marviero/backoffice/pkg/database"
	"github.com/marviero/backoffice/pkg/health"
	"github.com/marviero/backoffice/pkg/httpclient"
	pkgkafka "github.com/marviero/backoffice/pkg/kafka"
	"github.com/marviero/backoffice/pkg/tracing"
)

// Token lifetimes. Clients hard-code matching refresh schedules, so these are
// part of the API contract rather than configuration.
const (
	accessTokenExpiry  = 15 * time.Minute
	refreshTokenExpiry = 168 * time.Hour
	socketTokenExpiry  = time.Hour
)

// App wires together all dependencies and runs the backoffice server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	consumers      []*pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    "backoffice",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     1.0,
		Enabled:        cfg.OTLPEndpoint != "",
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	prometheus.MustRegister(database.NewPoolStatsCollector(pool))

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Redis backs login rate limiting. It is not critical: without it the
	// auth endpoints simply run unthrottled.
	redisClient, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Warn("redis unavailable, auth rate limiting disabled", slog.String("error", err.Error()))
		redisClient = nil
	}

	// Kafka producer for domain events.
	producer := pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	events := event.NewProducer(producer, logger)

	// Product search runs on Elasticsearch when configured, otherwise on the
	// in-process engine.
	engine := newSearchEngine(cfg, logger)

	// Build the dependency graph.
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, accessTokenExpiry, refreshTokenExpiry, socketTokenExpiry)

	userRepo := postgres.NewUserRepository(pool)
	publicUserRepo := postgres.NewPublicUserRepository(pool)
	clientRepo := postgres.NewClientRepository(pool)
	supplierRepo := postgres.NewSupplierRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)

	resolver := auth.NewResolver(userRepo, publicUserRepo)

	var invoiceNotifier service.InvoiceNotifier
	if cfg.WebhookURL != "" {
		client := httpclient.New(httpclient.DefaultConfig())
		breaker := httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig("invoice-webhook"), logger)
		invoiceNotifier = webhook.NewSender(breaker, cfg.WebhookURL, cfg.WebhookSecret, logger)
		logger.Info("invoice webhook enabled", slog.String("url", cfg.WebhookURL))
	}

	authService := service.NewAuthService(userRepo, publicUserRepo, issuer, resolver, logger)
	clientService := service.NewClientService(clientRepo, logger)
	supplierService := service.NewSupplierService(supplierRepo, logger)
	productService := service.NewProductService(productRepo, engine, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, events, logger)
	invoiceService := service.NewInvoiceService(invoiceRepo, orderRepo, events, invoiceNotifier, cfg.InvoiceTaxBps, logger)

	// Realtime layer: the hub fans events out to connected sockets, the
	// notifier feeds it from the Kafka order topics.
	hub := realtime.NewHub(logger)
	gate := realtime.NewGate(issuer, resolver)
	allowedOrigin := ""
	if len(cfg.AllowedOrigins) > 0 {
		allowedOrigin = cfg.AllowedOrigins[0]
	}
	realtimeHandler := realtime.NewHandler(hub, gate, allowedOrigin, logger)
	notifier := realtime.NewNotifier(hub, logger)

	consumers := make([]*pkgkafka.Consumer, 0, 2)
	for _, topic := range []string{event.TopicOrderCreated, event.TopicOrderUpdated} {
		consumers = append(consumers, pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.KafkaConsumerGroup,
			Topic:   topic,
		}, notifier.Handle, logger))
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("search", engine.Healthy)
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	cookies := handler.CookiePolicy{Production: cfg.IsProduction()}
	authMiddleware := handler.NewAuthMiddleware(issuer, resolver, logger)

	router := handler.NewRouter(handler.RouterConfig{
		Auth:      authService,
		Clients:   clientService,
		Suppliers: supplierService,
		Products:  productService,
		Orders:    orderService,
		Invoices:  invoiceService,

		AuthMiddleware: authMiddleware,
		Cookies:        cookies,
		Realtime:       realtimeHandler,
		Health:         healthHandler,
		Redis:          redisClient,

		AllowedOrigins: cfg.AllowedOrigins,
		Environment:    cfg.Environment,
		Logger:         logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
		producer:       producer,
		consumers:      consumers,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newSearchEngine picks the product search backend. An unreachable
// Elasticsearch degrades to the in-process engine rather than failing startup.
func newSearchEngine(cfg *config.Config, logger *slog.Logger) search.Engine {
	if cfg.ElasticsearchURL == "" {
		logger.Info("product search using in-process engine")
		return memory.New()
	}

	index := cfg.ElasticsearchIndex
	if index == "" {
		index = elasticsearch.DefaultIndexName
	}
	engine, err := elasticsearch.New(cfg.ElasticsearchURL, index, logger)
	if err != nil {
		logger.Warn("elasticsearch unavailable, product search degraded to in-process engine",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("error", err.Error()),
		)
		return memory.New()
	}
	logger.Info("product search using elasticsearch",
		slog.String("url", cfg.ElasticsearchURL),
		slog.String("index", index),
	)
	return engine
}

// Run starts the Kafka consumers and the HTTP server, blocking until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	for _, c := range a.consumers {
		c := c
		go func() {
			if err := c.Start(ctx); err != nil {
				a.logger.Error("kafka consumer stopped", slog.String("error", err.Error()))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests, close websockets)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka consumers and producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// Consumers normally stop with the run context; Close is idempotent.
	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
