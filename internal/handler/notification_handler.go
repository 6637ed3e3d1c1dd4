package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-portal-sync/pkg/response"
)

// NotificationHandler exposes the role's recent error and success messages.
type NotificationHandler struct{}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{}
}

// List godoc
// @Summary Recent notifications, newest first
// @Tags Notifications
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, w.Notifier.Recent())
}

// Clear godoc
// @Summary Dismiss every notification
// @Tags Notifications
// @Param role path string true "teacher or superadmin"
// @Success 204
// @Router /api/v1/{role}/notifications [delete]
func (h *NotificationHandler) Clear(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	w.Notifier.Clear()
	response.NoContent(c)
}
