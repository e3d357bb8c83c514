// Package http wires the HTTP API: router, middleware, health probes and the metrics server.
package http

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	lifecycleHTTP "github.com/md-riaz/domaindesk/internal/lifecycle/http"
	"github.com/md-riaz/domaindesk/internal/metrics"
	registrarHTTP "github.com/md-riaz/domaindesk/internal/registrar/http"
	walletHTTP "github.com/md-riaz/domaindesk/internal/wallet/http"
)

// readinessTimeout bounds each dependency probe of /ready.
const readinessTimeout = 2 * time.Second

// ReadinessCheck probes an optional dependency such as Redis.
type ReadinessCheck func(ctx context.Context) error

// Handlers groups the API handlers mounted under /v1.
type Handlers struct {
	Domain    *lifecycleHTTP.DomainHandler
	Wallet    *walletHTTP.WalletHandler
	Registrar *registrarHTTP.RegistrarHandler
}

// RouterConfig carries the router options read from configuration.
type RouterConfig struct {
	CORSEnabled      bool
	CORSAllowOrigins string
	MetricsNamespace string
}

// Server is the public API server.
type Server struct {
	db     *sql.DB
	checks map[string]ReadinessCheck
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server. SetupRouter must be called before Start.
func NewServer(db *sql.DB, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		checks: make(map[string]ReadinessCheck),
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// AddReadinessCheck registers a dependency probed by /ready.
func (s *Server) AddReadinessCheck(name string, check ReadinessCheck) {
	s.checks[name] = check
}

// SetupRouter builds the gin engine with middleware and routes.
// A nil metricsProvider disables HTTP metrics.
func (s *Server) SetupRouter(cfg RouterConfig, handlers Handlers, metricsProvider *metrics.Provider) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", s.readinessHandler)

	v1 := router.Group("/v1")

	if handlers.Domain != nil {
		domains := v1.Group("/partners/:partner_id/domains/:domain_id")
		domains.GET("", handlers.Domain.GetHandler)
		domains.POST("/register", handlers.Domain.RegisterHandler)
		domains.POST("/renew", handlers.Domain.RenewHandler)
	}

	if handlers.Wallet != nil {
		wallet := v1.Group("/partners/:partner_id/wallet")
		wallet.GET("", handlers.Wallet.BalanceHandler)
		wallet.GET("/transactions", handlers.Wallet.ListTransactionsHandler)
	}

	if handlers.Registrar != nil {
		registrars := v1.Group("/registrars")
		registrars.GET("", handlers.Registrar.ListHandler)
		registrars.GET("/:registrar_id/availability", handlers.Registrar.AvailabilityHandler)
		registrars.GET("/:registrar_id/domains/:domain", handlers.Registrar.InfoHandler)
		registrars.POST("/:registrar_id/test", handlers.Registrar.TestConnectionHandler)
	}

	s.server.Handler = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start serves until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	if s.server.Handler == nil {
		return fmt.Errorf("router not configured")
	}

	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// readinessHandler reports ready only when the database and every registered
// dependency answer within readinessTimeout.
func (s *Server) readinessHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	components := make(map[string]string, len(s.checks)+1)
	ready := true

	if s.db == nil || s.db.PingContext(ctx) != nil {
		components["database"] = "error"
		ready = false
	} else {
		components["database"] = "ok"
	}

	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.WarnContext(ctx, "readiness check failed",
				slog.String("component", name),
				slog.Any("error", err))
			components[name] = "error"
			ready = false
			continue
		}
		components[name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "components": components})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "components": components})
}
