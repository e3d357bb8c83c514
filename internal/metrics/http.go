package metrics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HTTPMetricsMiddleware records request count, duration and in-flight requests.
// Labels use the matched route pattern (e.g. /v1/partners/:partner_id/wallet) so IDs never reach
// the label set, plus a coarse resource label (domains, wallet, registrars) for dashboards.
func HTTPMetricsMiddleware(meterProvider metric.MeterProvider, namespace string) gin.HandlerFunc {
	meter := meterProvider.Meter(namespace)
	passthrough := func(c *gin.Context) { c.Next() }

	requests, err := meter.Int64Counter(
		fmt.Sprintf("%s_http_requests_total", namespace),
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return passthrough
	}
	duration, err := meter.Float64Histogram(
		fmt.Sprintf("%s_http_request_duration_seconds", namespace),
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return passthrough
	}
	inFlight, err := meter.Int64UpDownCounter(
		fmt.Sprintf("%s_http_requests_in_flight", namespace),
		metric.WithDescription("HTTP requests currently being served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return passthrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		route := sanitizePath(c.FullPath())
		resource := metric.WithAttributes(attribute.String("resource", routeResource(route)))

		inFlight.Add(ctx, 1, resource)
		defer inFlight.Add(ctx, -1, resource)

		c.Next()

		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("path", route),
			attribute.String("resource", routeResource(route)),
			attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
		)
		requests.Add(ctx, 1, attrs)
		duration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}

// sanitizePath returns the route pattern, or "unknown" when no route matched.
func sanitizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

// routeResource picks the first static segment after the version prefix. Partner-scoped routes
// report the nested resource instead of "partners".
func routeResource(route string) string {
	var static []string
	for _, seg := range strings.Split(route, "/") {
		if seg == "" || seg == "v1" || strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
			continue
		}
		static = append(static, seg)
	}
	switch {
	case len(static) == 0:
		return "root"
	case static[0] == "partners" && len(static) > 1:
		return static[1]
	default:
		return static[0]
	}
}
