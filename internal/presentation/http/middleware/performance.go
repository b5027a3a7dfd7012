package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/pixelcycle/pixelcycle-go/internal/infrastructure/observability/performance"
)

// PerformanceMiddleware times every API request through the tracker so slow
// endpoints show up in the health report.
func PerformanceMiddleware(tracker *performance.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		marker := tracker.StartOperation(fmt.Sprintf("api:%s:%s", c.Request.Method, path))

		c.Next()

		if status := c.Writer.Status(); status >= 500 {
			marker.SetError(fmt.Errorf("request failed with status %d", status))
		}
		tracker.CompleteOperation(marker)
	}
}
