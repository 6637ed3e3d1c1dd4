package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-portal-sync/internal/dto"
	"github.com/noah-isme/sma-portal-sync/internal/middleware"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
	"github.com/noah-isme/sma-portal-sync/pkg/export"
	"github.com/noah-isme/sma-portal-sync/pkg/response"
)

// AttendanceHandler serves attendance aggregations and marking.
type AttendanceHandler struct{}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler() *AttendanceHandler {
	return &AttendanceHandler{}
}

// Monthly godoc
// @Summary Monthly attendance
// @Description Served from a five minute cache unless force is set.
// @Tags Attendance
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Param month query int false "Month (1-12), defaults to the current month"
// @Param year query int false "Year"
// @Param force query bool false "Bypass the cache"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/attendance/monthly [get]
func (h *AttendanceHandler) Monthly(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	q, err := parseMonthQuery(c, w.Attendance.CurrentMonth())
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	snap, err := w.Attendance.Monthly(c.Request.Context(), q.Month, q.Year, q.Force)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, snap.Data.FromCache)
	middleware.SetMeta(c, "processing_time_ms", time.Since(start).Milliseconds())
	response.JSON(c, http.StatusOK, snap, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export monthly attendance
// @Tags Attendance
// @Produce text/csv,application/pdf
// @Param role path string true "teacher or superadmin"
// @Param month query int false "Month"
// @Param year query int false "Year"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /api/v1/{role}/attendance/monthly/export [get]
func (h *AttendanceHandler) Export(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatCSV)))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status, err.Error()))
		return
	}
	q, err := parseMonthQuery(c, w.Attendance.CurrentMonth())
	if err != nil {
		response.Error(c, err)
		return
	}
	snap, err := w.Attendance.Monthly(c.Request.Context(), q.Month, q.Year, q.Force)
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := w.Exports.MonthlyAttendance(format, *snap.Data.Monthly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Body)
}

// Quarterly godoc
// @Summary Attendance summed over several months
// @Tags Attendance
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Param months query string true "Comma separated YYYY-MM list"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/attendance/quarterly [get]
func (h *AttendanceHandler) Quarterly(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	refs, err := parseMonthRefs(c.QueryArray("months"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := w.Attendance.Quarterly(c.Request.Context(), refs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// DailyRate godoc
// @Summary Class attendance rate for one day
// @Tags Attendance
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Param date query string true "Date"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/attendance/daily-rate [get]
func (h *AttendanceHandler) DailyRate(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	rate, err := w.Attendance.ClassDailyRate(c.Request.Context(), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DailyRateResponse{
		DateKey:  rate.DateKey,
		Rate:     rate.Rate,
		Excluded: rate.Excluded,
		Present:  rate.Counts.Present,
		Late:     rate.Counts.Late,
		Absent:   rate.Counts.Absent,
		Excused:  rate.Counts.Excused,
	})
}

// Mark godoc
// @Summary Record daily attendance
// @Tags Attendance
// @Accept json
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Param payload body dto.MarkAttendanceBatch true "Records"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	var req dto.MarkAttendanceBatch
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status, "invalid attendance payload"))
		return
	}
	snap, err := w.Attendance.Mark(c.Request.Context(), req.Items)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap)
}

// Schedule godoc
// @Summary Month schedule keyed by date
// @Tags Attendance
// @Produce json
// @Param role path string true "teacher or superadmin"
// @Param month query int false "Month"
// @Param year query int false "Year"
// @Success 200 {object} response.Envelope
// @Router /api/v1/{role}/schedule [get]
func (h *AttendanceHandler) Schedule(c *gin.Context) {
	w, ok := workspaceFromContext(c)
	if !ok {
		return
	}
	q, err := parseMonthQuery(c, w.Attendance.CurrentMonth())
	if err != nil {
		response.Error(c, err)
		return
	}
	days, err := w.Attendance.Schedule(c.Request.Context(), q.Month, q.Year)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days)
}
