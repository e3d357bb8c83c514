// Package service provides the cross-cutting runtime every registrar backend runs
// through: timed execution, sanitized logging, rate limiting, response caching,
// validation helpers and result builders.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/md-riaz/domaindesk/internal/metrics"
	"github.com/md-riaz/domaindesk/internal/registrar/domain"
)

// metricsDomain is the business metrics domain of registrar calls.
const metricsDomain = "registrar"

// ErrorRecorder receives every registrar failure for the audit trail. Implementations
// must not block the caller on their own failures.
type ErrorRecorder interface {
	RecordRegistrarError(
		ctx context.Context,
		registrar, operation string,
		params map[string]any,
		err *domain.RegistrarError,
	)
}

// Runtime bundles the per-registrar collaborators used by a backend.
type Runtime struct {
	name     string
	scope    string
	timeout  time.Duration
	logger   *slog.Logger
	limiter  *RateLimiter
	cache    *Cache
	metrics  metrics.BusinessMetrics
	recorder ErrorRecorder
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

// WithTimeout bounds every operation. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Runtime) { r.timeout = timeout }
}

// WithRateLimiter enables rate limiting.
func WithRateLimiter(limiter *RateLimiter) Option {
	return func(r *Runtime) { r.limiter = limiter }
}

// WithCache enables response caching.
func WithCache(cache *Cache) Option {
	return func(r *Runtime) { r.cache = cache }
}

// WithMetrics records business metrics for every operation.
func WithMetrics(m metrics.BusinessMetrics) Option {
	return func(r *Runtime) { r.metrics = m }
}

// WithErrorRecorder reports failures to the audit trail.
func WithErrorRecorder(recorder ErrorRecorder) Option {
	return func(r *Runtime) { r.recorder = recorder }
}

// WithScope sets the identifier used in rate limit and cache keys. Defaults to the
// lower-cased registrar name.
func WithScope(scope string) Option {
	return func(r *Runtime) { r.scope = scope }
}

// NewRuntime creates a Runtime for the registrar called name.
func NewRuntime(name string, opts ...Option) *Runtime {
	r := &Runtime{
		name:    name,
		scope:   strings.ToLower(name),
		logger:  slog.Default(),
		metrics: metrics.NewNoOpBusinessMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(slog.String("registrar", name))
	return r
}

// Name returns the registrar name stamped on results and errors.
func (r *Runtime) Name() string { return r.name }

// Scope returns the key scope of the registrar.
func (r *Runtime) Scope() string { return r.scope }

// Timeout returns the per-operation timeout.
func (r *Runtime) Timeout() time.Duration { return r.timeout }

// Logger returns the registrar-scoped logger.
func (r *Runtime) Logger() *slog.Logger { return r.logger }

// Cache returns the response cache, nil when caching is disabled.
func (r *Runtime) Cache() *Cache { return r.cache }

// CacheKey builds a cache key scoped to this registrar.
func (r *Runtime) CacheKey(category Category, domainName string) string {
	return CacheKey(category, r.scope, strings.ToLower(domainName))
}

// Forget drops cached responses of domainName in the given categories. Failures are logged.
func (r *Runtime) Forget(ctx context.Context, domainName string, categories ...Category) {
	if r.cache == nil {
		return
	}
	keys := make([]string, len(categories))
	for i, category := range categories {
		keys[i] = r.CacheKey(category, domainName)
	}
	if err := r.cache.Forget(ctx, keys...); err != nil {
		r.logger.WarnContext(ctx, "registrar cache invalidation failed",
			slog.String("domain", domainName),
			slog.Any("error", err),
		)
	}
}

// Success builds a successful result stamped with the registrar name.
func (r *Runtime) Success(data map[string]any, message string, raw any) *domain.OperationResult {
	return domain.NewSuccessResult(r.name, data, message, raw)
}

// Error builds a failed result stamped with the registrar name.
func (r *Runtime) Error(message string, errs map[string]string, raw any) *domain.OperationResult {
	return domain.NewErrorResult(r.name, message, errs, raw)
}

// ValidateDomainName validates name for this registrar.
func (r *Runtime) ValidateDomainName(name string) error {
	return ValidateDomainName(r.name, name)
}

// ValidateRequired checks required fields for this registrar.
func (r *Runtime) ValidateRequired(data map[string]any, fields ...string) error {
	return ValidateRequired(r.name, data, fields...)
}

// Execute runs fn as the registrar operation called operation. It applies the rate
// limiter and the timeout, logs start and outcome with sanitized params, records
// metrics, reports failures and normalizes every error into a *domain.RegistrarError.
func Execute[T any](
	ctx context.Context,
	r *Runtime,
	operation string,
	params map[string]any,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	start := time.Now()
	sanitized := Sanitize(params)

	r.logger.InfoContext(ctx, "registrar operation started",
		slog.String("operation", operation),
		slog.Any("params", sanitized),
	)

	var zero T
	if err := r.limiter.Attempt(ctx, r.name, r.scope, operation); err != nil {
		regErr := r.normalize(ctx, operation, err)
		r.failed(ctx, operation, sanitized, regErr, start)
		return zero, regErr
	}

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	value, err := fn(callCtx)
	if err != nil {
		regErr := r.normalize(ctx, operation, err)
		r.failed(ctx, operation, sanitized, regErr, start)
		return zero, regErr
	}

	duration := time.Since(start)
	r.logger.InfoContext(ctx, "registrar operation completed",
		slog.String("operation", operation),
		slog.Int64("duration_ms", duration.Milliseconds()),
	)
	r.metrics.RecordOperation(ctx, metricsDomain, operation, "success")
	r.metrics.RecordDuration(ctx, metricsDomain, operation, duration, "success")

	return value, nil
}

func (r *Runtime) normalize(ctx context.Context, operation string, err error) *domain.RegistrarError {
	if regErr, ok := domain.AsRegistrarError(err); ok {
		if regErr.Registrar == "" {
			regErr.Registrar = r.name
		}
		return regErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewTimeout(r.name, operation, r.timeout, err)
	}
	return domain.NewConnectionFailed(r.name, err)
}

func (r *Runtime) failed(
	ctx context.Context,
	operation string,
	params map[string]any,
	regErr *domain.RegistrarError,
	start time.Time,
) {
	duration := time.Since(start)

	r.logger.ErrorContext(ctx, "registrar operation failed",
		slog.String("operation", operation),
		slog.String("error_kind", string(regErr.Kind)),
		slog.String("error_code", regErr.Code),
		slog.Int64("duration_ms", duration.Milliseconds()),
		slog.Any("error", regErr),
	)
	r.metrics.RecordOperation(ctx, metricsDomain, operation, "error")
	r.metrics.RecordDuration(ctx, metricsDomain, operation, duration, "error")
	if kinds, ok := r.metrics.(metrics.ErrorKindRecorder); ok {
		kinds.RecordErrorKind(ctx, metricsDomain, operation, string(regErr.Kind))
	}

	if r.recorder != nil {
		r.recorder.RecordRegistrarError(ctx, r.name, operation, params, regErr)
	}
}
