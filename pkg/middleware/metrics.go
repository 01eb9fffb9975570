package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shopfront/order-platform/pkg/metrics"
)

const unmatchedRoute = "unmatched"

// HTTPMetrics records request count, latency, size and concurrency per route
// pattern. Unmatched requests share one label so scanners cannot inflate
// label cardinality.
func HTTPMetrics(m *metrics.Metrics, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip)+1)
	skipped["/metrics"] = struct{}{}
	for _, path := range skip {
		skipped[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		m.IncrementHTTPRequestsInFlight()
		start := time.Now()
		defer func() {
			m.DecrementHTTPRequestsInFlight()
			route := c.FullPath()
			if route == "" {
				route = unmatchedRoute
			}
			m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
			m.RecordHTTPResponseSize(c.Request.Method, route, c.Writer.Size())
		}()

		c.Next()
	}
}

// MetricsEndpoint serves the Prometheus registry
func MetricsEndpoint(m *metrics.Metrics) gin.HandlerFunc {
	return gin.WrapH(m.Handler())
}
