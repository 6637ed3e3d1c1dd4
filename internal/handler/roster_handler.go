package handler

import "github.com/gin-gonic/gin"

// RosterHandler serves section health and textbook roll-ups.
type RosterHandler struct{}

// NewRosterHandler constructs the handler.
func NewRosterHandler() *RosterHandler {
	return &RosterHandler{}
}

// BMI godoc
// @Summary BMI distribution of the section
// @Tags Roster
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/health/bmi [get]
func (h *RosterHandler) BMI(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	respondSnapshot(c, w.BMI.Refresh, w.BMI.Snapshot)
}

// Textbooks godoc
// @Summary Textbook issue roll-up of the section
// @Tags Roster
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/textbooks [get]
func (h *RosterHandler) Textbooks(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	respondSnapshot(c, w.Textbooks.Refresh, w.Textbooks.Snapshot)
}
