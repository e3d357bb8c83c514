package app

import (
	"fmt"

	walletHTTP "github.com/md-riaz/domaindesk/internal/wallet/http"
	walletRepository "github.com/md-riaz/domaindesk/internal/wallet/repository"
	walletUseCase "github.com/md-riaz/domaindesk/internal/wallet/usecase"
)

// WalletRepository returns the partner wallet repository.
func (c *Container) WalletRepository() (walletUseCase.WalletRepository, error) {
	var err error
	c.walletRepositoryInit.Do(func() {
		c.walletRepository, err = c.initWalletRepository()
		if err != nil {
			c.initErrors["walletRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["walletRepository"]; exists {
		return nil, storedErr
	}
	return c.walletRepository, nil
}

// WalletUseCase returns the wallet use case.
func (c *Container) WalletUseCase() (walletUseCase.WalletUseCase, error) {
	var err error
	c.walletUseCaseInit.Do(func() {
		c.walletUseCase, err = c.initWalletUseCase()
		if err != nil {
			c.initErrors["walletUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["walletUseCase"]; exists {
		return nil, storedErr
	}
	return c.walletUseCase, nil
}

// WalletHandler returns the wallet HTTP handler.
func (c *Container) WalletHandler() (*walletHTTP.WalletHandler, error) {
	var err error
	c.walletHandlerInit.Do(func() {
		var useCase walletUseCase.WalletUseCase
		useCase, err = c.WalletUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get wallet use case for wallet handler: %w", err)
			c.initErrors["walletHandler"] = err
			return
		}
		c.walletHandler = walletHTTP.NewWalletHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["walletHandler"]; exists {
		return nil, storedErr
	}
	return c.walletHandler, nil
}

func (c *Container) initWalletRepository() (walletUseCase.WalletRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for wallet repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return walletRepository.NewPostgreSQLWalletRepository(db), nil
	case "mysql":
		return walletRepository.NewMySQLWalletRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

func (c *Container) initWalletUseCase() (walletUseCase.WalletUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for wallet use case: %w", err)
	}

	repo, err := c.WalletRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet repository for wallet use case: %w", err)
	}

	baseUseCase := walletUseCase.NewWalletUseCase(txManager, repo)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for wallet use case: %w", err)
		}
		return walletUseCase.NewWalletUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}
