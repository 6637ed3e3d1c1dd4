package service

import (
	"fmt"
	"strconv"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-portal-sync/internal/aggregate"
	"github.com/noah-isme/sma-portal-sync/internal/models"
	"github.com/noah-isme/sma-portal-sync/pkg/export"
)

type documentRenderer interface {
	Render(format export.Format, base string, data export.Dataset) (export.Document, error)
}

// ExportService turns container snapshots into downloadable documents.
type ExportService struct {
	renderer documentRenderer
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(renderer documentRenderer, logger *zap.Logger) *ExportService {
	if renderer == nil {
		renderer = export.NewRenderer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{renderer: renderer, logger: logger}
}

// PromotionRoster renders classified promotion records.
func (s *ExportService) PromotionRoster(format export.Format, sel models.Selection, records []models.PromotionRecord) (export.Document, error) {
	data := export.Dataset{
		Title:   fmt.Sprintf("Promotion Roster (%s)", sel.ScopeKey()),
		Headers: []string{"Student ID", "Student", "Final Average", "Attendance %", "Honor", "Status"},
		Rows:    make([]map[string]string, 0, len(records)),
	}
	for _, r := range records {
		data.Rows = append(data.Rows, map[string]string{
			"Student ID":    strconv.FormatInt(r.StudentID, 10),
			"Student":       r.StudentName,
			"Final Average": formatNullable(r.FinalAverage, 2),
			"Attendance %":  formatNullable(r.AttendancePercentage, 1),
			"Honor":         string(r.HonorClassification),
			"Status":        string(r.PromotionStatus),
		})
	}
	return s.render(format, "promotion_roster", data)
}

// MonthlyAttendance renders a monthly aggregation.
func (s *ExportService) MonthlyAttendance(format export.Format, m aggregate.MonthlyAttendance) (export.Document, error) {
	data := export.Dataset{
		Title:   fmt.Sprintf("Attendance %04d-%02d, section %d", m.Year, m.Month, m.SectionID),
		Headers: []string{"Student ID", "Student", "Present", "Absent", "Half Day", "Rate %"},
		Rows:    make([]map[string]string, 0, len(m.Students)+1),
	}
	for _, st := range m.Students {
		data.Rows = append(data.Rows, summaryRow(strconv.FormatInt(st.StudentID, 10), st.StudentName, st.Summary, st.Rate))
	}
	data.Rows = append(data.Rows, summaryRow("", "Section total", m.Totals, m.Rate))
	return s.render(format, fmt.Sprintf("attendance_%d_%04d%02d", m.SectionID, m.Year, m.Month), data)
}

func (s *ExportService) render(format export.Format, base string, data export.Dataset) (export.Document, error) {
	doc, err := s.renderer.Render(format, base, data)
	if err != nil {
		s.logger.Error("export render failed", zap.String("document", base), zap.String("format", string(format)), zap.Error(err))
		return export.Document{}, err
	}
	s.logger.Info("export rendered", zap.String("file", doc.Filename), zap.Int("rows", len(data.Rows)))
	return doc, nil
}

func summaryRow(id, name string, s models.MonthlySummary, rate float64) map[string]string {
	return map[string]string{
		"Student ID": id,
		"Student":    name,
		"Present":    strconv.Itoa(s.PresentDays),
		"Absent":     strconv.Itoa(s.AbsentDays),
		"Half Day":   strconv.Itoa(s.HalfDays),
		"Rate %":     strconv.FormatFloat(rate, 'f', 1, 64),
	}
}

func formatNullable(v null.Float64, decimals int) string {
	if !v.Valid {
		return "-"
	}
	return strconv.FormatFloat(v.Float64, 'f', decimals, 64)
}
