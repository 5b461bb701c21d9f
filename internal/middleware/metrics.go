package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"theneighbor/api/internal/metrics"
)

// Metrics records request latency under the matched route template so
// unknown paths collapse into a single series.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
