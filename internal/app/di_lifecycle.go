package app

import (
	"fmt"
	"time"

	"github.com/md-riaz/domaindesk/internal/httpclient"
	jobsRepository "github.com/md-riaz/domaindesk/internal/jobs/repository"
	jobsUseCase "github.com/md-riaz/domaindesk/internal/jobs/usecase"
	lifecycleDomain "github.com/md-riaz/domaindesk/internal/lifecycle/domain"
	lifecycleHTTP "github.com/md-riaz/domaindesk/internal/lifecycle/http"
	lifecycleRepository "github.com/md-riaz/domaindesk/internal/lifecycle/repository"
	lifecycleUseCase "github.com/md-riaz/domaindesk/internal/lifecycle/usecase"
	notificationService "github.com/md-riaz/domaindesk/internal/notification/service"
	outboxRepository "github.com/md-riaz/domaindesk/internal/outbox/repository"
	outboxUseCase "github.com/md-riaz/domaindesk/internal/outbox/usecase"
)

// DomainRepository returns the domain repository.
func (c *Container) DomainRepository() (lifecycleUseCase.DomainRepository, error) {
	var err error
	c.domainRepositoryInit.Do(func() {
		c.domainRepository, err = c.initDomainRepository()
		if err != nil {
			c.initErrors["domainRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["domainRepository"]; exists {
		return nil, storedErr
	}
	return c.domainRepository, nil
}

// DirectoryRepository returns the partner and client repository.
func (c *Container) DirectoryRepository() (lifecycleUseCase.DirectoryRepository, error) {
	var err error
	c.directoryRepositoryInit.Do(func() {
		c.directoryRepository, err = c.initDirectoryRepository()
		if err != nil {
			c.initErrors["directoryRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["directoryRepository"]; exists {
		return nil, storedErr
	}
	return c.directoryRepository, nil
}

// PriceRepository returns the TLD price repository.
func (c *Container) PriceRepository() (lifecycleUseCase.PriceRepository, error) {
	var err error
	c.priceRepositoryInit.Do(func() {
		c.priceRepository, err = c.initPriceRepository()
		if err != nil {
			c.initErrors["priceRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["priceRepository"]; exists {
		return nil, storedErr
	}
	return c.priceRepository, nil
}

// JobRepository returns the job queue repository.
func (c *Container) JobRepository() (jobsUseCase.JobRepository, error) {
	var err error
	c.jobRepositoryInit.Do(func() {
		c.jobRepository, err = c.initJobRepository()
		if err != nil {
			c.initErrors["jobRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["jobRepository"]; exists {
		return nil, storedErr
	}
	return c.jobRepository, nil
}

// Enqueuer returns the job enqueuer.
func (c *Container) Enqueuer() (jobsUseCase.Enqueuer, error) {
	var err error
	c.enqueuerInit.Do(func() {
		var repo jobsUseCase.JobRepository
		repo, err = c.JobRepository()
		if err != nil {
			err = fmt.Errorf("failed to get job repository for enqueuer: %w", err)
			c.initErrors["enqueuer"] = err
			return
		}
		c.enqueuer = jobsUseCase.NewEnqueuer(repo, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["enqueuer"]; exists {
		return nil, storedErr
	}
	return c.enqueuer, nil
}

// OutboxRepository returns the outbox event repository.
func (c *Container) OutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	var err error
	c.outboxRepositoryInit.Do(func() {
		c.outboxRepository, err = c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepository"]; exists {
		return nil, storedErr
	}
	return c.outboxRepository, nil
}

// Notifier returns the notifier queueing messages on the outbox.
func (c *Container) Notifier() (notificationService.Notifier, error) {
	var err error
	c.notifierInit.Do(func() {
		var repo outboxUseCase.OutboxEventRepository
		repo, err = c.OutboxRepository()
		if err != nil {
			err = fmt.Errorf("failed to get outbox repository for notifier: %w", err)
			c.initErrors["notifier"] = err
			return
		}
		c.notifier = notificationService.NewNotifier(repo, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["notifier"]; exists {
		return nil, storedErr
	}
	return c.notifier, nil
}

// OutboxUseCase returns the notification outbox processor.
func (c *Container) OutboxUseCase() (*outboxUseCase.OutboxUseCase, error) {
	var err error
	c.outboxUseCaseInit.Do(func() {
		c.outboxUseCase, err = c.initOutboxUseCase()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

// DomainUseCase returns the domain use case used by the API and the CLI.
func (c *Container) DomainUseCase() (lifecycleUseCase.DomainUseCase, error) {
	var err error
	c.domainUseCaseInit.Do(func() {
		c.domainUseCase, err = c.initDomainUseCase()
		if err != nil {
			c.initErrors["domainUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["domainUseCase"]; exists {
		return nil, storedErr
	}
	return c.domainUseCase, nil
}

// DomainHandler returns the domain HTTP handler.
func (c *Container) DomainHandler() (*lifecycleHTTP.DomainHandler, error) {
	var err error
	c.domainHandlerInit.Do(func() {
		var useCase lifecycleUseCase.DomainUseCase
		useCase, err = c.DomainUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get domain use case for domain handler: %w", err)
			c.initErrors["domainHandler"] = err
			return
		}
		c.domainHandler = lifecycleHTTP.NewDomainHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["domainHandler"]; exists {
		return nil, storedErr
	}
	return c.domainHandler, nil
}

// ExpiryScanner returns the scanner sending expiry warnings and enqueueing auto-renewals.
func (c *Container) ExpiryScanner() (*lifecycleUseCase.ExpiryScanner, error) {
	var err error
	c.expiryScannerInit.Do(func() {
		c.expiryScanner, err = c.initExpiryScanner()
		if err != nil {
			c.initErrors["expiryScanner"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["expiryScanner"]; exists {
		return nil, storedErr
	}
	return c.expiryScanner, nil
}

// Worker returns the job worker with the registration and renewal workflows registered.
func (c *Container) Worker() (*jobsUseCase.Worker, error) {
	var err error
	c.workerInit.Do(func() {
		c.worker, err = c.initWorker()
		if err != nil {
			c.initErrors["worker"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["worker"]; exists {
		return nil, storedErr
	}
	return c.worker, nil
}

func (c *Container) initDomainRepository() (lifecycleUseCase.DomainRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for domain repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return lifecycleRepository.NewPostgreSQLDomainRepository(db), nil
	case "mysql":
		return lifecycleRepository.NewMySQLDomainRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

func (c *Container) initDirectoryRepository() (lifecycleUseCase.DirectoryRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for directory repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return lifecycleRepository.NewPostgreSQLDirectoryRepository(db), nil
	case "mysql":
		return lifecycleRepository.NewMySQLDirectoryRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

func (c *Container) initPriceRepository() (lifecycleUseCase.PriceRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for price repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return lifecycleRepository.NewPostgreSQLPriceRepository(db), nil
	case "mysql":
		return lifecycleRepository.NewMySQLPriceRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

func (c *Container) initJobRepository() (jobsUseCase.JobRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for job repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return jobsRepository.NewPostgreSQLJobRepository(db), nil
	case "mysql":
		return jobsRepository.NewMySQLJobRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

func (c *Container) initOutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return outboxRepository.NewPostgreSQLOutboxEventRepository(db), nil
	case "mysql":
		return outboxRepository.NewMySQLOutboxEventRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

// initOutboxUseCase delivers notifications to the configured webhook, or to the log
// when no webhook is set.
func (c *Container) initOutboxUseCase() (*outboxUseCase.OutboxUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}

	repo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for outbox use case: %w", err)
	}

	var mailer notificationService.Mailer
	if c.config.NotificationWebhookURL != "" {
		client := httpclient.New(
			httpclient.DefaultConfig(c.config.NotificationWebhookURL),
			"notification-webhook",
			businessMetrics,
			c.Logger(),
		)
		mailer = notificationService.NewWebhookMailer(client, c.config.NotificationWebhookURL)
	} else {
		mailer = notificationService.NewLogMailer(c.Logger())
	}

	return outboxUseCase.NewOutboxUseCase(
		outboxUseCase.Config{
			Interval:   c.config.OutboxInterval,
			BatchSize:  c.config.OutboxBatchSize,
			MaxRetries: c.config.OutboxMaxRetries,
		},
		txManager,
		repo,
		notificationService.NewDispatcher(mailer),
		c.Logger(),
	), nil
}

// lifecycleDependencies collects what the workflows and the scanner share.
func (c *Container) lifecycleDependencies() (lifecycleUseCase.Dependencies, error) {
	var deps lifecycleUseCase.Dependencies

	txManager, err := c.TxManager()
	if err != nil {
		return deps, fmt.Errorf("failed to get tx manager for lifecycle: %w", err)
	}

	domains, err := c.DomainRepository()
	if err != nil {
		return deps, fmt.Errorf("failed to get domain repository for lifecycle: %w", err)
	}

	directory, err := c.DirectoryRepository()
	if err != nil {
		return deps, fmt.Errorf("failed to get directory repository for lifecycle: %w", err)
	}

	prices, err := c.PriceRepository()
	if err != nil {
		return deps, fmt.Errorf("failed to get price repository for lifecycle: %w", err)
	}

	ledger, err := c.WalletUseCase()
	if err != nil {
		return deps, fmt.Errorf("failed to get wallet use case for lifecycle: %w", err)
	}

	registrars, err := c.RegistrarFactory()
	if err != nil {
		return deps, fmt.Errorf("failed to get registrar factory for lifecycle: %w", err)
	}

	notifier, err := c.Notifier()
	if err != nil {
		return deps, fmt.Errorf("failed to get notifier for lifecycle: %w", err)
	}

	recorder, err := c.AuditRecorder()
	if err != nil {
		return deps, fmt.Errorf("failed to get audit recorder for lifecycle: %w", err)
	}

	return lifecycleUseCase.Dependencies{
		TxManager:  txManager,
		Domains:    domains,
		Directory:  directory,
		Prices:     prices,
		Ledger:     ledger,
		Registrars: registrars,
		Notifier:   notifier,
		Audit:      recorder,
		Logger:     c.Logger(),
		Now:        time.Now,
	}, nil
}

func (c *Container) initDomainUseCase() (lifecycleUseCase.DomainUseCase, error) {
	domains, err := c.DomainRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get domain repository for domain use case: %w", err)
	}

	enqueuer, err := c.Enqueuer()
	if err != nil {
		return nil, fmt.Errorf("failed to get enqueuer for domain use case: %w", err)
	}

	baseUseCase := lifecycleUseCase.NewDomainUseCase(domains, enqueuer, lifecycleUseCase.JobPolicies{
		Registration: c.config.JobRegistration,
		Renewal:      c.config.JobRenewal,
	})

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for domain use case: %w", err)
		}
		return lifecycleUseCase.NewDomainUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initExpiryScanner() (*lifecycleUseCase.ExpiryScanner, error) {
	deps, err := c.lifecycleDependencies()
	if err != nil {
		return nil, fmt.Errorf("failed to get lifecycle dependencies for expiry scanner: %w", err)
	}

	domainUseCase, err := c.DomainUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get domain use case for expiry scanner: %w", err)
	}

	return lifecycleUseCase.NewExpiryScanner(lifecycleUseCase.ScannerConfig{
		WarningDays:       c.config.ExpiryWarningDays,
		AutoRenewLeadDays: c.config.AutoRenewLeadDays,
	}, deps, domainUseCase), nil
}

func (c *Container) initWorker() (*jobsUseCase.Worker, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for worker: %w", err)
	}

	repo, err := c.JobRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get job repository for worker: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for worker: %w", err)
	}

	deps, err := c.lifecycleDependencies()
	if err != nil {
		return nil, fmt.Errorf("failed to get lifecycle dependencies for worker: %w", err)
	}

	worker := jobsUseCase.NewWorker(jobsUseCase.WorkerConfig{
		Interval:    c.config.WorkerInterval,
		BatchSize:   c.config.WorkerBatchSize,
		Concurrency: c.config.WorkerConcurrency,
	}, txManager, repo, c.Logger(), businessMetrics)

	var (
		registration lifecycleUseCase.Workflow = lifecycleUseCase.NewRegistrationWorkflow(deps)
		renewal      lifecycleUseCase.Workflow = lifecycleUseCase.NewRenewalWorkflow(deps)
	)
	if c.config.MetricsEnabled {
		registration = lifecycleUseCase.NewWorkflowWithMetrics(registration, "register", businessMetrics)
		renewal = lifecycleUseCase.NewWorkflowWithMetrics(renewal, "renew", businessMetrics)
	}

	worker.Register(lifecycleDomain.JobTypeRegistration, registration)
	worker.Register(lifecycleDomain.JobTypeRenewal, renewal)

	return worker, nil
}
