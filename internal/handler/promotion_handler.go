package handler

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
	"github.com/noah-isme/sma-portal-sync/pkg/export"
	"github.com/noah-isme/sma-portal-sync/pkg/response"
)

// PromotionHandler serves promotion classification.
type PromotionHandler struct{}

// NewPromotionHandler constructs the handler.
func NewPromotionHandler() *PromotionHandler {
	return &PromotionHandler{}
}

// Get godoc
// @Summary Promotion classification
// @Description Responds 403 with completion_percentage while grade data is incomplete.
// @Tags Promotion
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Param refresh query bool false "Reload from the remote API"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /api/v1/{role}/promotion [get]
func (h *PromotionHandler) Get(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	respondSnapshot(c, w.Promotion.Refresh, w.Promotion.Snapshot)
}

// Export godoc
// @Summary Export the promotion roster
// @Tags Promotion
// @Produce text/csv,application/pdf
// @Param role path string true "teacher or superadmin"
// @Param format query string false "csv or pdf"
// @Param source query string false "local (default) or remote for the records system's own rendering"
// @Success 200 {file} file
// @Router /api/v1/{role}/promotion/export [get]
func (h *PromotionHandler) Export(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatCSV)))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	var doc export.Document
	switch c.DefaultQuery("source", "local") {
	case "local":
		doc, err = w.Promotion.Export(c.Request.Context(), format)
	case "remote":
		doc, err = w.Promotion.OfficialExport(c.Request.Context(), format)
	default:
		err = appErrors.Clone(appErrors.ErrValidation, "source must be local or remote")
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Body)
}
