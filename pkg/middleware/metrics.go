package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vanfit-commerce/shipping-service/pkg/metrics"
)

// MetricsMiddleware records per-request HTTP metrics. The /metrics path
// itself is skipped so scrapes do not show up in the request counters.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		m.IncrementHTTPRequestsInFlight()
		defer m.DecrementHTTPRequestsInFlight()

		start := time.Now()
		c.Next()

		// Use the route pattern so path cardinality stays bounded;
		// unmatched requests fall back to the raw path.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// MetricsEndpoint adapts the Prometheus handler for gin routing
func MetricsEndpoint(m *metrics.Metrics) gin.HandlerFunc {
	handler := m.Handler()
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
