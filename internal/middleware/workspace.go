package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	"github.com/noah-isme/sma-portal-sync/internal/service"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
	"github.com/noah-isme/sma-portal-sync/pkg/response"
)

const (
	// ContextWorkspaceKey stores the resolved role workspace.
	ContextWorkspaceKey = "portal_workspace"
	// RoleHeader may repeat the path role; a mismatch is rejected.
	RoleHeader = "X-Portal-Role"
)

// Workspace resolves the :role path parameter to its workspace.
func Workspace(workspaces service.Workspaces) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := models.Role(strings.ToLower(strings.TrimSpace(c.Param("role"))))
		w, ok := workspaces.Get(role)
		if !ok {
			response.Error(c, appErrors.New(appErrors.ErrNotFound.Code, http.StatusNotFound, "unknown role "+string(role)))
			c.Abort()
			return
		}
		if header := strings.TrimSpace(c.GetHeader(RoleHeader)); header != "" && models.Role(strings.ToLower(header)) != role {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "role header does not match path"))
			c.Abort()
			return
		}
		c.Set(ContextWorkspaceKey, w)
		c.Next()
	}
}

// WorkspaceFrom returns the workspace resolved for the request.
func WorkspaceFrom(c *gin.Context) (*service.Workspace, bool) {
	value, exists := c.Get(ContextWorkspaceKey)
	if !exists {
		return nil, false
	}
	w, ok := value.(*service.Workspace)
	return w, ok && w != nil
}
