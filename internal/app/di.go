// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/md-riaz/domaindesk/internal/config"
	"github.com/md-riaz/domaindesk/internal/database"
	"github.com/md-riaz/domaindesk/internal/http"
	"github.com/md-riaz/domaindesk/internal/logging"
	"github.com/md-riaz/domaindesk/internal/metrics"
	appRedis "github.com/md-riaz/domaindesk/internal/redis"

	auditUseCase "github.com/md-riaz/domaindesk/internal/audit/usecase"
	jobsUseCase "github.com/md-riaz/domaindesk/internal/jobs/usecase"
	lifecycleHTTP "github.com/md-riaz/domaindesk/internal/lifecycle/http"
	lifecycleUseCase "github.com/md-riaz/domaindesk/internal/lifecycle/usecase"
	notificationService "github.com/md-riaz/domaindesk/internal/notification/service"
	outboxUseCase "github.com/md-riaz/domaindesk/internal/outbox/usecase"
	registrarHTTP "github.com/md-riaz/domaindesk/internal/registrar/http"
	registrarUseCase "github.com/md-riaz/domaindesk/internal/registrar/usecase"
	walletHTTP "github.com/md-riaz/domaindesk/internal/wallet/http"
	walletUseCase "github.com/md-riaz/domaindesk/internal/wallet/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	redis           *appRedis.Client
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Managers
	txManager database.TxManager

	// Registrar
	registrarRepository registrarUseCase.RegistrarRepository
	registrarFactory    *registrarUseCase.Factory
	registrarUseCase    registrarUseCase.RegistrarUseCase
	registrarHandler    *registrarHTTP.RegistrarHandler

	// Audit
	auditRepository auditUseCase.AuditRepository
	auditRecorder   *auditUseCase.Recorder

	// Wallet
	walletRepository walletUseCase.WalletRepository
	walletUseCase    walletUseCase.WalletUseCase
	walletHandler    *walletHTTP.WalletHandler

	// Jobs and notifications
	jobRepository    jobsUseCase.JobRepository
	enqueuer         jobsUseCase.Enqueuer
	worker           *jobsUseCase.Worker
	outboxRepository outboxUseCase.OutboxEventRepository
	outboxUseCase    *outboxUseCase.OutboxUseCase
	notifier         notificationService.Notifier

	// Lifecycle
	domainRepository    lifecycleUseCase.DomainRepository
	directoryRepository lifecycleUseCase.DirectoryRepository
	priceRepository     lifecycleUseCase.PriceRepository
	domainUseCase       lifecycleUseCase.DomainUseCase
	domainHandler       *lifecycleHTTP.DomainHandler
	expiryScanner       *lifecycleUseCase.ExpiryScanner

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                      sync.Mutex
	loggerInit              sync.Once
	dbInit                  sync.Once
	redisInit               sync.Once
	metricsProviderInit     sync.Once
	businessMetricsInit     sync.Once
	txManagerInit           sync.Once
	registrarRepositoryInit sync.Once
	registrarFactoryInit    sync.Once
	registrarUseCaseInit    sync.Once
	registrarHandlerInit    sync.Once
	auditRepositoryInit     sync.Once
	auditRecorderInit       sync.Once
	walletRepositoryInit    sync.Once
	walletUseCaseInit       sync.Once
	walletHandlerInit       sync.Once
	jobRepositoryInit       sync.Once
	enqueuerInit            sync.Once
	workerInit              sync.Once
	outboxRepositoryInit    sync.Once
	outboxUseCaseInit       sync.Once
	notifierInit            sync.Once
	domainRepositoryInit    sync.Once
	directoryRepositoryInit sync.Once
	priceRepositoryInit     sync.Once
	domainUseCaseInit       sync.Once
	domainHandlerInit       sync.Once
	expiryScannerInit       sync.Once
	httpServerInit          sync.Once
	metricsServerInit       sync.Once
	initErrors              map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = logging.New(c.config.LogLevel, c.config.LogFormat, os.Stdout)
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// Redis returns the Redis client, or nil when REDIS_URL is not set. Without Redis the
// registrar rate limiter and cache are process-local.
func (c *Container) Redis() (*appRedis.Client, error) {
	var err error
	c.redisInit.Do(func() {
		c.redis, err = appRedis.New(context.Background(), c.config.RedisURL, c.config.RedisPoolSize)
		if err != nil {
			c.initErrors["redis"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["redis"]; exists {
		return nil, storedErr
	}
	return c.redis, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		var db *sql.DB
		db, err = c.DB()
		if err != nil {
			err = fmt.Errorf("failed to get database for tx manager: %w", err)
			c.initErrors["txManager"] = err
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. It is a no-op when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the API server with its router configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(context.Background(), database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initBusinessMetrics creates the business metrics recorder on the metrics provider.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initHTTPServer creates the API server and mounts every handler.
func (c *Container) initHTTPServer() (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	domainHandler, err := c.DomainHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get domain handler for http server: %w", err)
	}

	walletHandler, err := c.WalletHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet handler for http server: %w", err)
	}

	registrarHandler, err := c.RegistrarHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get registrar handler for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())

	redisClient, err := c.Redis()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis for http server: %w", err)
	}
	if redisClient != nil {
		server.AddReadinessCheck("redis", redisClient.Health)
	}

	server.SetupRouter(http.RouterConfig{
		CORSEnabled:      c.config.CORSEnabled,
		CORSAllowOrigins: c.config.CORSAllowOrigins,
		MetricsNamespace: c.config.MetricsNamespace,
	}, http.Handlers{
		Domain:    domainHandler,
		Wallet:    walletHandler,
		Registrar: registrarHandler,
	}, provider)

	return server, nil
}

// initMetricsServer creates the metrics server when metrics are enabled.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}

// unsupportedDriver reports a DB_DRIVER no repository exists for.
func (c *Container) unsupportedDriver() error {
	return fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
}
