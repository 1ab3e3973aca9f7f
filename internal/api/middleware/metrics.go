package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"charge-optimizer/internal/metrics"
)

// Metrics records request counts and latency per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObserveRequest(c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
