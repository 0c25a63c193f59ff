package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/merch/byom/internal/infrastructure/telemetry"
)

// Profiling attaches route and method labels to the profiles sampled while
// a request is handled. Health checks are skipped.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || route == "/health" || route == "/api/v1/health" {
			c.Next()
			return
		}
		labels := map[string]string{
			telemetry.ProfilingLabelRoute:  route,
			telemetry.ProfilingLabelMethod: c.Request.Method,
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
