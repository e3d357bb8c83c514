// Package httpclient provides the instrumented HTTP client used for outbound calls to
// registrar APIs and notification webhooks.
//
// Requests pass through, in order:
//
//	Circuit Breaker → Rate Limiter → OTEL Span → Retry → HTTP
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/md-riaz/domaindesk/internal/metrics"
)

// metricsDomain is the business metrics domain of outbound HTTP calls.
const metricsDomain = "httpclient"

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration

	// RetryMaxAttempts is the total number of attempts, including the first one.
	RetryMaxAttempts     int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// CircuitBreakerMaxFailures trips the breaker after this many consecutive failures.
	CircuitBreakerMaxFailures int
	CircuitBreakerTimeout     time.Duration

	// RequestsPerSecond throttles outbound requests; zero disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns sensible defaults for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:                   baseURL,
		Timeout:                   30 * time.Second,
		RetryMaxAttempts:          3,
		RetryInitialInterval:      200 * time.Millisecond,
		RetryMaxInterval:          5 * time.Second,
		RetryMultiplier:           2.0,
		CircuitBreakerMaxFailures: 5,
		CircuitBreakerTimeout:     30 * time.Second,
	}
}

type retryConfig struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
}

// Client is an HTTP client with circuit breaking, throttling, retry and tracing.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	serviceName string
	breaker     *gobreaker.CircuitBreaker[struct{}]
	limiter     *rate.Limiter
	retryCfg    retryConfig
	metrics     metrics.BusinessMetrics
	logger      *slog.Logger
}

// New creates a Client. serviceName identifies the peer in traces, logs and metrics.
func New(cfg Config, serviceName string, businessMetrics metrics.BusinessMetrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	if cfg.RetryMaxAttempts <= 0 {
		cfg.RetryMaxAttempts = 1
	}
	if cfg.RetryMultiplier <= 0 {
		cfg.RetryMultiplier = 2.0
	}

	maxFailures := cfg.CircuitBreakerMaxFailures
	cb := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: 1,
		Timeout:     cfg.CircuitBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return maxFailures > 0 && int(counts.ConsecutiveFailures) >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		serviceName: serviceName,
		breaker:     cb,
		limiter:     limiter,
		retryCfg: retryConfig{
			maxAttempts:     cfg.RetryMaxAttempts,
			initialInterval: cfg.RetryInitialInterval,
			maxInterval:     cfg.RetryMaxInterval,
			multiplier:      cfg.RetryMultiplier,
		},
		metrics: businessMetrics,
		logger:  logger,
	}
}

// Do executes req through the pipeline.
//
// On success resp has an open body the caller must close. When retries are exhausted
// on a retryable status, both resp and err are non-nil. When the breaker rejects the
// call or a network error occurs, resp is nil.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()

	var resp *http.Response
	_, err := c.breaker.Execute(func() (struct{}, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return struct{}{}, err
			}
		}

		spanCtx, span := c.startSpan(ctx, req)
		defer span.End()

		req = req.WithContext(spanCtx)

		retryErr := c.doWithRetry(spanCtx, req, &resp)
		c.finishSpan(span, resp, retryErr)

		return struct{}{}, retryErr
	})

	c.recordMetrics(ctx, req.Method, start, resp, err)

	return resp, err
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Name returns the peer service name.
func (c *Client) Name() string {
	return c.serviceName
}

// HealthCheck reports the peer's availability from the breaker state without a network call.
func (c *Client) HealthCheck(_ context.Context) error {
	switch state := c.breaker.State(); state {
	case gobreaker.StateClosed:
		return nil
	case gobreaker.StateHalfOpen:
		return fmt.Errorf("%s: degraded (circuit breaker half-open)", c.serviceName)
	case gobreaker.StateOpen:
		return fmt.Errorf("%s: failing (circuit breaker open)", c.serviceName)
	default:
		return fmt.Errorf("%s: unknown circuit breaker state %v", c.serviceName, state)
	}
}

// IsCircuitOpen reports whether err was produced by an open or saturated breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func (c *Client) startSpan(ctx context.Context, req *http.Request) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer("httpclient")

	ctx, span := tracer.Start(ctx, fmt.Sprintf("HTTP %s %s", req.Method, c.serviceName),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.Redacted()),
			attribute.String("peer.service", c.serviceName),
		),
	)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	return ctx, span
}

func (c *Client) finishSpan(span trace.Span, resp *http.Response, err error) {
	if resp != nil {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func (c *Client) recordMetrics(ctx context.Context, method string, start time.Time, resp *http.Response, err error) {
	status := "error"
	if err == nil && resp != nil && resp.StatusCode < http.StatusBadRequest {
		status = "success"
	}
	if IsCircuitOpen(err) {
		status = "circuit_open"
	}

	operation := c.serviceName + "_" + method
	c.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	c.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}
