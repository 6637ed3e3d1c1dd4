package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
	"github.com/noah-isme/sma-portal-sync/pkg/response"
)

// GradeHandler serves the grade sheet of the active selection.
type GradeHandler struct{}

// NewGradeHandler constructs the handler.
func NewGradeHandler() *GradeHandler {
	return &GradeHandler{}
}

// List godoc
// @Summary Grade sheet
// @Tags Grades
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Param refresh query bool false "Reload from the remote API"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/grades [get]
func (h *GradeHandler) List(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	respondSnapshot(c, w.Grades.Refresh, w.Grades.Snapshot)
}

// Update godoc
// @Summary Update one grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Param payload body models.GradeUpdate true "Grade"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/grades [put]
func (h *GradeHandler) Update(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	var req models.GradeUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status, "invalid grade payload"))
		return
	}
	snap, err := w.Grades.UpdateGrade(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap)
}

// Bulk godoc
// @Summary Update many grades at once
// @Description Either every item is applied or none is.
// @Tags Grades
// @Accept json
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Param payload body models.BulkGradeRequest true "Grades"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/grades/bulk [post]
func (h *GradeHandler) Bulk(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	var req models.BulkGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status, "invalid grade payload"))
		return
	}
	snap, err := w.Grades.BulkUpdate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap)
}
