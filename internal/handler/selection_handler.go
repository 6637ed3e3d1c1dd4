package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
	"github.com/noah-isme/sma-portal-sync/pkg/response"
)

// SelectionHandler exposes a role's academic year / quarter / section choice.
type SelectionHandler struct{}

// NewSelectionHandler constructs the handler.
func NewSelectionHandler() *SelectionHandler {
	return &SelectionHandler{}
}

// Get godoc
// @Summary Current selection
// @Tags Selection
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/selection [get]
func (h *SelectionHandler) Get(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, w.Selection.Current())
}

// Update godoc
// @Summary Change the selection
// @Description Omitted fields are kept, empty strings clear a field.
// @Tags Selection
// @Accept json
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Param payload body models.SelectionPatch true "Selection patch"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/selection [put]
func (h *SelectionHandler) Update(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	var patch models.SelectionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status, "invalid selection payload"))
		return
	}
	sel, err := w.Selection.Set(c.Request.Context(), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sel)
}

// Clear godoc
// @Summary Clear the selection
// @Tags Selection
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/selection [delete]
func (h *SelectionHandler) Clear(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	sel, err := w.Selection.Clear(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sel)
}
