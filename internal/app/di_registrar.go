package app

import (
	"context"
	"fmt"
	"time"

	auditRepository "github.com/md-riaz/domaindesk/internal/audit/repository"
	auditUseCase "github.com/md-riaz/domaindesk/internal/audit/usecase"
	"github.com/md-riaz/domaindesk/internal/config"
	"github.com/md-riaz/domaindesk/internal/httpclient"
	"github.com/md-riaz/domaindesk/internal/registrar/backend/mock"
	registrarHTTP "github.com/md-riaz/domaindesk/internal/registrar/http"
	registrarRepository "github.com/md-riaz/domaindesk/internal/registrar/repository"
	registrarService "github.com/md-riaz/domaindesk/internal/registrar/service"
	registrarUseCase "github.com/md-riaz/domaindesk/internal/registrar/usecase"
)

// registrarCachePrefix namespaces registrar cache keys in a shared Redis.
const registrarCachePrefix = "domaindesk:registrar:"

// RegistrarRepository returns the registrar configuration repository.
func (c *Container) RegistrarRepository() (registrarUseCase.RegistrarRepository, error) {
	var err error
	c.registrarRepositoryInit.Do(func() {
		c.registrarRepository, err = c.initRegistrarRepository()
		if err != nil {
			c.initErrors["registrarRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["registrarRepository"]; exists {
		return nil, storedErr
	}
	return c.registrarRepository, nil
}

// AuditRepository returns the audit log repository.
func (c *Container) AuditRepository() (auditUseCase.AuditRepository, error) {
	var err error
	c.auditRepositoryInit.Do(func() {
		c.auditRepository, err = c.initAuditRepository()
		if err != nil {
			c.initErrors["auditRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditRepository"]; exists {
		return nil, storedErr
	}
	return c.auditRepository, nil
}

// AuditRecorder returns the recorder of registrar errors and status transitions.
func (c *Container) AuditRecorder() (*auditUseCase.Recorder, error) {
	var err error
	c.auditRecorderInit.Do(func() {
		var repo auditUseCase.AuditRepository
		repo, err = c.AuditRepository()
		if err != nil {
			err = fmt.Errorf("failed to get audit repository for audit recorder: %w", err)
			c.initErrors["auditRecorder"] = err
			return
		}
		c.auditRecorder = auditUseCase.NewRecorder(repo, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditRecorder"]; exists {
		return nil, storedErr
	}
	return c.auditRecorder, nil
}

// RegistrarFactory returns the factory resolving registrar ids into clients.
func (c *Container) RegistrarFactory() (*registrarUseCase.Factory, error) {
	var err error
	c.registrarFactoryInit.Do(func() {
		c.registrarFactory, err = c.initRegistrarFactory()
		if err != nil {
			c.initErrors["registrarFactory"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["registrarFactory"]; exists {
		return nil, storedErr
	}
	return c.registrarFactory, nil
}

// RegistrarUseCase returns the registrar lookup use case.
func (c *Container) RegistrarUseCase() (registrarUseCase.RegistrarUseCase, error) {
	var err error
	c.registrarUseCaseInit.Do(func() {
		c.registrarUseCase, err = c.initRegistrarUseCase()
		if err != nil {
			c.initErrors["registrarUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["registrarUseCase"]; exists {
		return nil, storedErr
	}
	return c.registrarUseCase, nil
}

// RegistrarHandler returns the registrar HTTP handler.
func (c *Container) RegistrarHandler() (*registrarHTTP.RegistrarHandler, error) {
	var err error
	c.registrarHandlerInit.Do(func() {
		var useCase registrarUseCase.RegistrarUseCase
		useCase, err = c.RegistrarUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get registrar use case for registrar handler: %w", err)
			c.initErrors["registrarHandler"] = err
			return
		}
		c.registrarHandler = registrarHTTP.NewRegistrarHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["registrarHandler"]; exists {
		return nil, storedErr
	}
	return c.registrarHandler, nil
}

func (c *Container) initRegistrarRepository() (registrarUseCase.RegistrarRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for registrar repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return registrarRepository.NewPostgreSQLRegistrarRepository(db), nil
	case "mysql":
		return registrarRepository.NewMySQLRegistrarRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

func (c *Container) initAuditRepository() (auditUseCase.AuditRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return auditRepository.NewPostgreSQLAuditRepository(db), nil
	case "mysql":
		return auditRepository.NewMySQLAuditRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

// initRegistrarFactory assembles the registrar runtime: Redis-backed rate limit windows
// and cache when Redis is configured, in-memory ones otherwise.
func (c *Container) initRegistrarFactory() (*registrarUseCase.Factory, error) {
	logger := c.Logger()

	repo, err := c.RegistrarRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get registrar repository for registrar factory: %w", err)
	}

	recorder, err := c.AuditRecorder()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit recorder for registrar factory: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for registrar factory: %w", err)
	}

	redisClient, err := c.Redis()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis for registrar factory: %w", err)
	}

	var (
		windows    registrarService.WindowStore
		cacheStore registrarService.CacheStore
	)
	if redisClient != nil {
		windows = registrarService.NewRedisWindowStore(redisClient.Client)
		cacheStore = registrarService.NewRedisCacheStore(redisClient.Client, registrarCachePrefix)
	} else {
		windows = registrarService.NewMemoryWindowStore()
		cacheStore = registrarService.NewMemoryCacheStore()
	}

	defaults := c.config.Registrar
	cache := registrarService.NewCache(cacheStore, map[registrarService.Category]time.Duration{
		registrarService.CategoryDomainInfo:   defaults.CacheTTLDomainInfo,
		registrarService.CategoryDNSRecords:   defaults.CacheTTLDNSRecords,
		registrarService.CategoryContacts:     defaults.CacheTTLContacts,
		registrarService.CategoryAvailability: defaults.CacheTTLAvailability,
		registrarService.CategoryTLDPrices:    defaults.CacheTTLTLDPrices,
	}, logger)

	decoder, err := c.credentialDecoder()
	if err != nil {
		return nil, err
	}

	runtimes := &registrarUseCase.RuntimeBuilder{
		Settings: func(slug string) config.RegistrarSettings { return c.config.RegistrarSettings(slug) },
		Windows:  windows,
		Cache:    cache,
		Logger:   logger,
		Metrics:  businessMetrics,
		Recorder: recorder,
	}

	constructors := registrarUseCase.DefaultConstructors(
		mock.Config{
			UnavailablePatterns: config.SplitList(c.config.MockRegistrarUnavailablePatterns),
			Latency:             c.config.MockRegistrarLatency,
			FailureRate:         c.config.MockRegistrarFailureRate,
			HistorySize:         c.config.MockRegistrarHistorySize,
		},
		c.resellerHTTPConfig(),
		businessMetrics,
		logger,
	)

	return registrarUseCase.NewFactory(repo, decoder, runtimes, constructors, logger), nil
}

// credentialDecoder reads plain JSON credentials unless a keeper URI is configured.
func (c *Container) credentialDecoder() (registrarUseCase.CredentialDecoder, error) {
	if c.config.RegistrarCredentialsKeeperURI == "" {
		return registrarUseCase.PlainCredentialDecoder{}, nil
	}

	keeper, err := registrarUseCase.OpenKeeper(context.Background(), c.config.RegistrarCredentialsKeeperURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open credentials keeper for registrar factory: %w", err)
	}
	return registrarUseCase.NewKeeperCredentialDecoder(keeper), nil
}

func (c *Container) resellerHTTPConfig() httpclient.Config {
	cfg := httpclient.DefaultConfig(c.config.ResellerAPIBaseURL)
	cfg.Timeout = c.config.Registrar.Timeout
	if c.config.ResellerAPIRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = c.config.ResellerAPIRetryMaxAttempts
	}
	if c.config.ResellerAPICircuitBreakerMaxFailures > 0 {
		cfg.CircuitBreakerMaxFailures = c.config.ResellerAPICircuitBreakerMaxFailures
	}
	if c.config.ResellerAPICircuitBreakerTimeout > 0 {
		cfg.CircuitBreakerTimeout = c.config.ResellerAPICircuitBreakerTimeout
	}
	cfg.RequestsPerSecond = c.config.ResellerAPIRequestsPerSec
	return cfg
}

func (c *Container) initRegistrarUseCase() (registrarUseCase.RegistrarUseCase, error) {
	repo, err := c.RegistrarRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get registrar repository for registrar use case: %w", err)
	}

	factory, err := c.RegistrarFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to get registrar factory for registrar use case: %w", err)
	}

	baseUseCase := registrarUseCase.NewRegistrarUseCase(repo, factory)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for registrar use case: %w", err)
		}
		return registrarUseCase.NewRegistrarUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
