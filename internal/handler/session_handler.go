package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-portal-sync/internal/dto"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
	"github.com/noah-isme/sma-portal-sync/pkg/response"
)

// SessionHandler manages the bearer token a role uses against the remote API.
type SessionHandler struct{}

// NewSessionHandler constructs the handler.
func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Get godoc
// @Summary Session status
// @Tags Session
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/session [get]
func (h *SessionHandler) Get(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, w.Session.Info())
}

// Login godoc
// @Summary Store a bearer token
// @Tags Session
// @Accept json
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Param payload body dto.SessionRequest true "Token"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/session [put]
func (h *SessionHandler) Login(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	var req dto.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status, "token is required"))
		return
	}
	info, err := w.Session.SetToken(c.Request.Context(), req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info)
}

// Logout godoc
// @Summary Drop the session and reset the role
// @Tags Session
// @Param role path string true "teacher or superadmin"
// @Success 204
// @Router /api/v1/{role}/session [delete]
func (h *SessionHandler) Logout(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	w.Logout()
	response.NoContent(c)
}
