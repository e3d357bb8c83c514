package usecase

import (
	"fmt"
	"log/slog"

	"github.com/md-riaz/domaindesk/internal/httpclient"
	"github.com/md-riaz/domaindesk/internal/metrics"
	"github.com/md-riaz/domaindesk/internal/registrar/backend/mock"
	"github.com/md-riaz/domaindesk/internal/registrar/backend/resellerapi"
	"github.com/md-riaz/domaindesk/internal/registrar/domain"
	"github.com/md-riaz/domaindesk/internal/registrar/service"
)

// MockConstructor builds mock backends sharing cfg.
func MockConstructor(cfg mock.Config) Constructor {
	return func(_ *domain.Registrar, rt *service.Runtime) (domain.Client, error) {
		return mock.New(rt, cfg), nil
	}
}

// ResellerAPIConstructor builds reseller API backends. The registrar's base_url
// credential overrides httpCfg.BaseURL.
func ResellerAPIConstructor(
	httpCfg httpclient.Config,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) Constructor {
	return func(reg *domain.Registrar, rt *service.Runtime) (domain.Client, error) {
		resellerID := reg.Credential(resellerapi.CredentialResellerID)
		apiKey := reg.Credential(resellerapi.CredentialAPIKey)
		if resellerID == "" || apiKey == "" {
			return nil, fmt.Errorf("%w: registrar %s lacks reseller_id or api_key",
				domain.ErrMissingRegistrarConfiguration, reg.Slug)
		}

		cfg := httpCfg
		if baseURL := reg.Credential(resellerapi.CredentialBaseURL); baseURL != "" {
			cfg.BaseURL = baseURL
		}
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("%w: registrar %s has no base_url",
				domain.ErrMissingRegistrarConfiguration, reg.Slug)
		}
		if rt.Timeout() > 0 {
			cfg.Timeout = rt.Timeout()
		}

		httpClient := httpclient.New(cfg, "registrar-"+reg.Slug, businessMetrics, logger)
		return resellerapi.New(rt, httpClient, resellerID, apiKey), nil
	}
}

// DefaultConstructors returns the backend registry used by the application.
func DefaultConstructors(
	mockCfg mock.Config,
	httpCfg httpclient.Config,
	businessMetrics metrics.BusinessMetrics,
	logger *slog.Logger,
) map[string]Constructor {
	return map[string]Constructor{
		mock.Backend:        MockConstructor(mockCfg),
		resellerapi.Backend: ResellerAPIConstructor(httpCfg, businessMetrics, logger),
	}
}
