package aggregate

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	"github.com/noah-isme/sma-portal-sync/pkg/datekey"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

// AttendanceRate is (present + 0.5*half) / total * 100 rounded to one decimal.
// No recorded days yields 0.
func AttendanceRate(s models.MonthlySummary) float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return Round((float64(s.PresentDays)+0.5*float64(s.HalfDays))/float64(total)*100, 1)
}

// QuarterlyRate sums monthly summaries before applying the rate formula, so
// months weigh by recorded days rather than equally.
func QuarterlyRate(months []models.MonthlySummary) (models.MonthlySummary, float64) {
	var total models.MonthlySummary
	for _, m := range months {
		total = total.Add(m)
	}
	return total, AttendanceRate(total)
}

// DailyCounts tallies the four-state daily taxonomy.
type DailyCounts struct {
	Present int `json:"present"`
	Late    int `json:"late"`
	Absent  int `json:"absent"`
	Excused int `json:"excused"`
}

// AsMonthly folds daily statuses into the monthly taxonomy: late counts as a
// half day and excused days are left out of the recorded total.
func (c DailyCounts) AsMonthly() models.MonthlySummary {
	return models.MonthlySummary{PresentDays: c.Present, AbsentDays: c.Absent, HalfDays: c.Late}
}

func (c *DailyCounts) add(status models.AttendanceStatus) {
	switch status {
	case models.AttendancePresent:
		c.Present++
	case models.AttendanceLate:
		c.Late++
	case models.AttendanceAbsent:
		c.Absent++
	case models.AttendanceExcused:
		c.Excused++
	}
}

// NormalizeRecords rewrites every record's date to its canonical key, rejects
// unknown statuses and unparseable dates, and keeps the last record for each
// (student|schedule, date) pair.
func NormalizeRecords(n *datekey.Normalizer, records []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
	out := make([]models.AttendanceRecord, 0, len(records))
	position := make(map[string]int, len(records))
	for _, r := range records {
		if !r.Status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown attendance status %q", r.Status))
		}
		key, err := n.FromString(r.Date)
		if err != nil {
			return nil, err
		}
		r.Date = key
		if i, ok := position[r.UniqueKey()]; ok {
			out[i] = r
			continue
		}
		position[r.UniqueKey()] = len(out)
		out = append(out, r)
	}
	return out, nil
}

// CountDaily tallies records by status.
func CountDaily(records []models.AttendanceRecord) DailyCounts {
	var c DailyCounts
	for _, r := range records {
		c.add(r.Status)
	}
	return c
}

// IsClassDay decides whether a date counts toward class attendance. A day
// missing from the schedule falls back to the weekday.
func IsClassDay(key string, day *models.DayScheduleEntry) bool {
	if day == nil {
		return !datekey.IsWeekend(key)
	}
	if !day.IsClassDay {
		return false
	}
	return !day.CalendarEvent.SuspendsClasses()
}

// ClassDayRate is the class-level attendance rate for one calendar day.
type ClassDayRate struct {
	DateKey  string      `json:"date_key"`
	Counts   DailyCounts `json:"counts"`
	Rate     float64     `json:"rate"`
	Excluded bool        `json:"excluded"`
}

// statusSeverity orders statuses when a student has several records on one
// day. The highest wins.
var statusSeverity = map[models.AttendanceStatus]int{
	models.AttendanceExcused: 1,
	models.AttendancePresent: 2,
	models.AttendanceLate:    3,
	models.AttendanceAbsent:  4,
}

// ClassDailyRate applies the rate formula across every student on the given
// day. A student with several per-subject records counts once, under the most
// severe status: absent, then late, then present, then excused. Weekends and
// holidays are excluded and report a zero rate. Records must already be
// normalised.
func ClassDailyRate(key string, day *models.DayScheduleEntry, records []models.AttendanceRecord) ClassDayRate {
	result := ClassDayRate{DateKey: key}
	if !IsClassDay(key, day) {
		result.Excluded = true
		return result
	}
	daily := make(map[int64]models.AttendanceStatus)
	for _, r := range records {
		if r.Date != key {
			continue
		}
		if prev, ok := daily[r.StudentID]; ok && statusSeverity[prev] >= statusSeverity[r.Status] {
			continue
		}
		daily[r.StudentID] = r.Status
	}
	var counts DailyCounts
	for _, status := range daily {
		counts.add(status)
	}
	result.Counts = counts
	result.Rate = AttendanceRate(counts.AsMonthly())
	return result
}

// StudentMonthlyRate is one student's monthly summary with its rate.
type StudentMonthlyRate struct {
	StudentID   int64                 `json:"student_id"`
	StudentName string                `json:"student_name"`
	Summary     models.MonthlySummary `json:"monthly_summary"`
	Rate        float64               `json:"rate"`
}

// MonthlyAttendance is the aggregated monthly result for a section.
type MonthlyAttendance struct {
	SectionID      int64                 `json:"section_id"`
	AcademicYearID int64                 `json:"academic_year_id"`
	Month          int                   `json:"month"`
	Year           int                   `json:"year"`
	Students       []StudentMonthlyRate  `json:"students"`
	Totals         models.MonthlySummary `json:"totals"`
	Rate           float64               `json:"rate"`
}

// AggregateMonthly computes per-student and section rates.
func AggregateMonthly(req models.MonthlyAttendanceRequest, rows []models.StudentMonthlyAttendance) (MonthlyAttendance, error) {
	result := MonthlyAttendance{
		SectionID:      req.SectionID,
		AcademicYearID: req.AcademicYearID,
		Month:          req.Month,
		Year:           req.Year,
		Students:       make([]StudentMonthlyRate, 0, len(rows)),
	}
	for _, row := range rows {
		s := row.Summary
		if s.PresentDays < 0 || s.AbsentDays < 0 || s.HalfDays < 0 {
			return MonthlyAttendance{}, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("negative attendance counts for student %d", row.StudentID))
		}
		result.Students = append(result.Students, StudentMonthlyRate{
			StudentID:   row.StudentID,
			StudentName: row.StudentName,
			Summary:     s,
			Rate:        AttendanceRate(s),
		})
		result.Totals = result.Totals.Add(s)
	}
	sort.SliceStable(result.Students, func(i, j int) bool { return result.Students[i].StudentID < result.Students[j].StudentID })
	result.Rate = AttendanceRate(result.Totals)
	return result, nil
}
