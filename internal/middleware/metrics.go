package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	"github.com/noah-isme/sma-portal-sync/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics observes every request on the gateway. Paths are reported as route
// templates with the workspace role filled in, so label cardinality stays
// bounded by the route table.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		metricsSvc.ObserveHTTPRequest(c.Request.Method, routeLabel(c), c.Writer.Status(), time.Since(start))
	}
}

func routeLabel(c *gin.Context) string {
	path := c.FullPath()
	if path == "" {
		return unmatchedRoute
	}
	if role := models.Role(strings.ToLower(c.Param("role"))); role.Valid() {
		path = strings.Replace(path, ":role", string(role), 1)
	}
	return path
}
