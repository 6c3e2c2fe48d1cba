package server

import (
	"strconv"
	"time"

	"stockbid/internal/metrics"
	"stockbid/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// PrometheusMiddleware records request duration metrics.
func PrometheusMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next()

	metrics.HTTPRequestDuration.WithLabelValues(
		c.Request.Method,
		c.FullPath(),
		strconv.Itoa(c.Writer.Status()),
	).Observe(time.Since(start).Seconds())
}
