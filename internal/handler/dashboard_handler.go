package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-portal-sync/internal/middleware"
	"github.com/noah-isme/sma-portal-sync/pkg/response"
)

// DashboardHandler serves the per-role dashboard.
type DashboardHandler struct{}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Get godoc
// @Summary Dashboard summary
// @Tags Dashboard
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Param refresh query bool false "Reload"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	start := time.Now()
	if wantsRefresh(c, w.Dashboard.Snapshot().Loaded) {
		if err := w.Dashboard.Refresh(c.Request.Context()); err != nil {
			response.Error(c, err)
			return
		}
	}
	snap := w.Dashboard.Snapshot()
	middleware.SetCacheHit(c, snap.Data.CacheHit)
	middleware.SetMeta(c, "processing_time_ms", time.Since(start).Milliseconds())
	response.JSON(c, http.StatusOK, snap, middleware.ExtractMeta(c))
}
