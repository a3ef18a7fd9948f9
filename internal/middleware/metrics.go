package middleware

import (
	"strconv"
	"time"

	"github.com/SscSPs/dairy_billing_app/internal/observability/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records request counts and latency per route template.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		// FullPath keeps label cardinality bounded; unmatched routes are ""
		metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
