package app

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-riaz/domaindesk/internal/config"
	lifecycleRepository "github.com/md-riaz/domaindesk/internal/lifecycle/repository"
	registrarRepository "github.com/md-riaz/domaindesk/internal/registrar/repository"
	registrarUseCase "github.com/md-riaz/domaindesk/internal/registrar/usecase"
	walletRepository "github.com/md-riaz/domaindesk/internal/wallet/repository"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerHost:       "localhost",
		ServerPort:       8080,
		DBDriver:         "postgres",
		LogLevel:         "error",
		LogFormat:        "json",
		Registrar:        config.RegistrarDefaults{Timeout: 10 * time.Second, RateLimitMaxAttempts: 60, RateLimitDecay: time.Minute},
		JobRegistration:  config.JobSettings{MaxTries: 3, Timeout: time.Minute, Backoff: time.Minute},
		JobRenewal:       config.JobSettings{MaxTries: 3, Timeout: time.Minute, Backoff: time.Minute},
		WorkerInterval:   time.Second,
		WorkerBatchSize:  10,
		OutboxInterval:   time.Second,
		OutboxBatchSize:  10,
		OutboxMaxRetries: 3,
		MetricsNamespace: "domaindesk_test",
		MetricsPort:      8081,
	}
}

// withDB injects db so components can be assembled without a live database.
func withDB(t *testing.T, c *Container) {
	t.Helper()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c.dbInit.Do(func() { c.db = db })
}

func TestNewContainer(t *testing.T) {
	cfg := testConfig()

	container := NewContainer(cfg)

	require.NotNil(t, container)
	assert.Same(t, cfg, container.Config())
}

func TestContainer_Logger(t *testing.T) {
	t.Run("Singleton", func(t *testing.T) {
		container := NewContainer(&config.Config{LogLevel: "debug"})
		assert.Nil(t, container.logger)

		logger := container.Logger()

		require.NotNil(t, logger)
		assert.Same(t, logger, container.Logger())
	})

	t.Run("UnknownLevelDefaultsToInfo", func(t *testing.T) {
		container := NewContainer(&config.Config{LogLevel: "invalid"})

		logger := container.Logger()

		require.NotNil(t, logger)
		assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
		assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	})
}

func TestContainer_DBInitializationError(t *testing.T) {
	container := NewContainer(&config.Config{DBDriver: "invalid_driver"})

	_, err := container.DB()
	require.Error(t, err)

	_, err = container.DB()
	require.Error(t, err, "the stored error is returned on later calls")

	_, err = container.WalletRepository()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get database for wallet repository")
}

func TestContainer_Repositories(t *testing.T) {
	t.Run("PostgreSQL", func(t *testing.T) {
		container := NewContainer(testConfig())
		withDB(t, container)

		registrars, err := container.RegistrarRepository()
		require.NoError(t, err)
		assert.IsType(t, &registrarRepository.PostgreSQLRegistrarRepository{}, registrars)

		wallets, err := container.WalletRepository()
		require.NoError(t, err)
		assert.IsType(t, &walletRepository.PostgreSQLWalletRepository{}, wallets)

		domains, err := container.DomainRepository()
		require.NoError(t, err)
		assert.IsType(t, &lifecycleRepository.PostgreSQLDomainRepository{}, domains)
	})

	t.Run("MySQL", func(t *testing.T) {
		cfg := testConfig()
		cfg.DBDriver = "mysql"
		container := NewContainer(cfg)
		withDB(t, container)

		registrars, err := container.RegistrarRepository()
		require.NoError(t, err)
		assert.IsType(t, &registrarRepository.MySQLRegistrarRepository{}, registrars)

		prices, err := container.PriceRepository()
		require.NoError(t, err)
		assert.IsType(t, &lifecycleRepository.MySQLPriceRepository{}, prices)
	})

	t.Run("UnsupportedDriver", func(t *testing.T) {
		cfg := testConfig()
		cfg.DBDriver = "sqlite"
		container := NewContainer(cfg)
		withDB(t, container)

		_, err := container.JobRepository()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported database driver: sqlite")

		_, err = container.Worker()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get job repository for worker")
	})
}

func TestContainer_RegistrarFactory(t *testing.T) {
	t.Run("PlainCredentialsWithoutKeeper", func(t *testing.T) {
		container := NewContainer(testConfig())
		withDB(t, container)

		factory, err := container.RegistrarFactory()
		require.NoError(t, err)
		assert.Equal(t, []string{"mock", "resellerapi"}, factory.Backends())

		decoder, err := container.credentialDecoder()
		require.NoError(t, err)
		assert.IsType(t, registrarUseCase.PlainCredentialDecoder{}, decoder)
	})

	t.Run("KeeperCredentials", func(t *testing.T) {
		cfg := testConfig()
		cfg.RegistrarCredentialsKeeperURI = "base64key://smGbjm71Nxd1Ig5FS0wj9SlbzAIrnolCz9bQQ6uAhl4="
		container := NewContainer(cfg)

		decoder, err := container.credentialDecoder()
		require.NoError(t, err)
		assert.IsType(t, &registrarUseCase.KeeperCredentialDecoder{}, decoder)
	})

	t.Run("InvalidKeeperURI", func(t *testing.T) {
		cfg := testConfig()
		cfg.RegistrarCredentialsKeeperURI = "unknown-scheme://key"
		container := NewContainer(cfg)
		withDB(t, container)

		_, err := container.RegistrarFactory()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open credentials keeper")
	})
}

func TestContainer_ResellerHTTPConfig(t *testing.T) {
	cfg := testConfig()
	cfg.ResellerAPIBaseURL = "https://api.reseller.test"
	cfg.ResellerAPIRetryMaxAttempts = 5
	cfg.ResellerAPICircuitBreakerMaxFailures = 7
	cfg.ResellerAPICircuitBreakerTimeout = 45 * time.Second
	cfg.ResellerAPIRequestsPerSec = 2.5
	container := NewContainer(cfg)

	httpCfg := container.resellerHTTPConfig()

	assert.Equal(t, "https://api.reseller.test", httpCfg.BaseURL)
	assert.Equal(t, 10*time.Second, httpCfg.Timeout)
	assert.Equal(t, 5, httpCfg.RetryMaxAttempts)
	assert.Equal(t, 7, httpCfg.CircuitBreakerMaxFailures)
	assert.Equal(t, 45*time.Second, httpCfg.CircuitBreakerTimeout)
	assert.InDelta(t, 2.5, httpCfg.RequestsPerSecond, 0.0001)
}

func TestContainer_Assembly(t *testing.T) {
	tests := []struct {
		name           string
		metricsEnabled bool
		webhookURL     string
	}{
		{name: "MetricsDisabled", metricsEnabled: false},
		{name: "MetricsEnabledWithWebhook", metricsEnabled: true, webhookURL: "https://hooks.reseller.test/notify"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.MetricsEnabled = tt.metricsEnabled
			cfg.NotificationWebhookURL = tt.webhookURL
			container := NewContainer(cfg)
			withDB(t, container)

			server, err := container.HTTPServer()
			require.NoError(t, err)
			require.NotNil(t, server)
			assert.NotNil(t, server.GetHandler())

			worker, err := container.Worker()
			require.NoError(t, err)
			assert.NotNil(t, worker)

			outbox, err := container.OutboxUseCase()
			require.NoError(t, err)
			assert.NotNil(t, outbox)

			scanner, err := container.ExpiryScanner()
			require.NoError(t, err)
			assert.NotNil(t, scanner)

			metricsServer, err := container.MetricsServer()
			require.NoError(t, err)
			assert.Equal(t, tt.metricsEnabled, metricsServer != nil)

			redisClient, err := container.Redis()
			require.NoError(t, err)
			assert.Nil(t, redisClient)
		})
	}
}

func TestContainer_Shutdown(t *testing.T) {
	t.Run("NothingInitialized", func(t *testing.T) {
		container := NewContainer(testConfig())

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		assert.NoError(t, container.Shutdown(ctx))
	})

	t.Run("ClosesDatabase", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectClose()

		container := NewContainer(testConfig())
		container.dbInit.Do(func() { container.db = db })

		require.NoError(t, container.Shutdown(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
