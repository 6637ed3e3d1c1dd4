package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/sma-portal-sync/internal/middleware"
	"github.com/noah-isme/sma-portal-sync/internal/service"
)

// RouterDeps groups what the HTTP surface is built from.
type RouterDeps struct {
	APIPrefix   string
	Workspaces  service.Workspaces
	Metrics     *service.MetricsService
	Readiness   map[string]ReadinessCheck
	EnableDocs  bool
	Middlewares []gin.HandlerFunc
}

// RegisterRoutes mounts every portal endpoint on r. Role scoped endpoints
// live under <prefix>/:role.
func RegisterRoutes(r *gin.Engine, deps RouterDeps) {
	prefix := deps.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	metricsHandler := NewMetricsHandler(deps.Metrics, deps.Readiness)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)
	if deps.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(prefix)
	api.Use(middleware.Metrics(deps.Metrics))
	api.Use(deps.Middlewares...)

	role := api.Group("/:role")
	role.Use(middleware.WithResponseMeta(), middleware.Workspace(deps.Workspaces))

	selection := NewSelectionHandler()
	role.GET("/selection", selection.Get)
	role.PUT("/selection", selection.Update)
	role.DELETE("/selection", selection.Clear)

	session := NewSessionHandler()
	role.GET("/session", session.Get)
	role.PUT("/session", session.Login)
	role.DELETE("/session", session.Logout)

	grades := NewGradeHandler()
	role.GET("/grades", grades.List)
	role.PUT("/grades", grades.Update)
	role.POST("/grades/bulk", grades.Bulk)

	attendance := NewAttendanceHandler()
	role.POST("/attendance", attendance.Mark)
	role.GET("/attendance/monthly", attendance.Monthly)
	role.GET("/attendance/monthly/export", attendance.Export)
	role.GET("/attendance/quarterly", attendance.Quarterly)
	role.GET("/attendance/daily-rate", attendance.DailyRate)
	role.GET("/schedule", attendance.Schedule)

	promotion := NewPromotionHandler()
	role.GET("/promotion", promotion.Get)
	role.GET("/promotion/export", promotion.Export)

	roster := NewRosterHandler()
	role.GET("/health/bmi", roster.BMI)
	role.GET("/textbooks", roster.Textbooks)

	role.GET("/dashboard", NewDashboardHandler().Get)

	notifications := NewNotificationHandler()
	role.GET("/notifications", notifications.List)
	role.DELETE("/notifications", notifications.Clear)
}
