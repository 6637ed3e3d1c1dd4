package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	"github.com/noah-isme/sma-portal-sync/pkg/datekey"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

func TestAttendanceRateFormula(t *testing.T) {
	rate := AttendanceRate(models.MonthlySummary{PresentDays: 18, AbsentDays: 2, HalfDays: 4})
	assert.Equal(t, 83.3, rate)
}

func TestAttendanceRateNoDays(t *testing.T) {
	assert.Equal(t, 0.0, AttendanceRate(models.MonthlySummary{}))
}

func TestQuarterlyRateWeighsByDays(t *testing.T) {
	total, rate := QuarterlyRate([]models.MonthlySummary{
		{PresentDays: 20},
		{PresentDays: 0, AbsentDays: 5},
	})
	assert.Equal(t, 25, total.Total())
	assert.Equal(t, 80.0, rate)
}

func TestAggregateMonthly(t *testing.T) {
	req := models.MonthlyAttendanceRequest{SectionID: 3, AcademicYearID: 1, Month: 6, Year: 2024}
	result, err := AggregateMonthly(req, []models.StudentMonthlyAttendance{
		{StudentID: 2, Summary: models.MonthlySummary{PresentDays: 10}},
		{StudentID: 1, Summary: models.MonthlySummary{PresentDays: 8, AbsentDays: 2}},
	})
	require.NoError(t, err)
	require.Len(t, result.Students, 2)
	assert.Equal(t, int64(1), result.Students[0].StudentID)
	assert.Equal(t, 80.0, result.Students[0].Rate)
	assert.Equal(t, 90.0, result.Rate)

	_, err = AggregateMonthly(req, []models.StudentMonthlyAttendance{{StudentID: 1, Summary: models.MonthlySummary{AbsentDays: -1}}})
	assert.True(t, appErrors.Is(err, appErrors.CodeValidation))
}

func TestNormalizeRecordsKeysAndDedupes(t *testing.T) {
	n := datekey.New(time.UTC)
	out, err := NormalizeRecords(n, []models.AttendanceRecord{
		{StudentID: 1, Date: "2024-06-03 07:30:00", Status: models.AttendanceAbsent},
		{StudentID: 1, Date: "2024-06-03", Status: models.AttendancePresent},
		{StudentID: 2, Date: "2024-06-03T08:00:00Z", Status: models.AttendanceLate},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, models.AttendancePresent, out[0].Status)
	assert.Equal(t, "2024-06-03", out[1].Date)

	_, err = NormalizeRecords(n, []models.AttendanceRecord{{StudentID: 1, Date: "yesterday", Status: models.AttendancePresent}})
	assert.True(t, appErrors.Is(err, appErrors.CodeInvalidDate))

	_, err = NormalizeRecords(n, []models.AttendanceRecord{{StudentID: 1, Date: "2024-06-03", Status: "tardy"}})
	assert.True(t, appErrors.Is(err, appErrors.CodeValidation))
}

func TestClassDailyRate(t *testing.T) {
	records := []models.AttendanceRecord{
		{StudentID: 1, Date: "2024-06-03", Status: models.AttendancePresent},
		{StudentID: 2, Date: "2024-06-03", Status: models.AttendanceLate},
		{StudentID: 3, Date: "2024-06-03", Status: models.AttendanceAbsent},
		{StudentID: 4, Date: "2024-06-03", Status: models.AttendanceExcused},
		{StudentID: 5, Date: "2024-06-04", Status: models.AttendanceAbsent},
	}
	day := &models.DayScheduleEntry{DateKey: "2024-06-03", IsClassDay: true}
	rate := ClassDailyRate("2024-06-03", day, records)
	assert.False(t, rate.Excluded)
	assert.Equal(t, DailyCounts{Present: 1, Late: 1, Absent: 1, Excused: 1}, rate.Counts)
	// (1 + 0.5) / 3
	assert.Equal(t, 50.0, rate.Rate)
}

func TestClassDailyRateTakesMostSevereStatusPerStudent(t *testing.T) {
	day := &models.DayScheduleEntry{DateKey: "2024-06-03", IsClassDay: true}
	schedule := func(id int64) *int64 { return &id }
	cases := []struct {
		name     string
		statuses []models.AttendanceStatus
		want     DailyCounts
	}{
		{"absent wins over present", []models.AttendanceStatus{models.AttendancePresent, models.AttendanceAbsent}, DailyCounts{Absent: 1}},
		{"absent wins regardless of order", []models.AttendanceStatus{models.AttendanceAbsent, models.AttendancePresent}, DailyCounts{Absent: 1}},
		{"late wins over present", []models.AttendanceStatus{models.AttendancePresent, models.AttendanceLate, models.AttendancePresent}, DailyCounts{Late: 1}},
		{"present wins over excused", []models.AttendanceStatus{models.AttendanceExcused, models.AttendancePresent}, DailyCounts{Present: 1}},
		{"excused only", []models.AttendanceStatus{models.AttendanceExcused, models.AttendanceExcused}, DailyCounts{Excused: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var records []models.AttendanceRecord
			for i, status := range tc.statuses {
				records = append(records, models.AttendanceRecord{StudentID: 1, ScheduleID: schedule(int64(i + 1)), Date: "2024-06-03", Status: status})
			}
			assert.Equal(t, tc.want, ClassDailyRate("2024-06-03", day, records).Counts)
		})
	}
}

func TestClassDailyRateExcludesHolidaysAndWeekends(t *testing.T) {
	holiday := &models.DayScheduleEntry{DateKey: "2024-06-12", IsClassDay: true, CalendarEvent: &models.CalendarEvent{Title: "Independence Day", Type: models.CalendarHoliday}}
	assert.True(t, ClassDailyRate("2024-06-12", holiday, nil).Excluded)

	noClass := &models.DayScheduleEntry{DateKey: "2024-06-13", IsClassDay: false}
	assert.True(t, ClassDailyRate("2024-06-13", noClass, nil).Excluded)

	assert.True(t, ClassDailyRate("2024-06-15", nil, nil).Excluded)
	assert.False(t, ClassDailyRate("2024-06-14", nil, nil).Excluded)
}

func TestMonthlyCacheStaleness(t *testing.T) {
	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	cache := NewMonthlyCache(5*time.Minute, func() time.Time { return now })
	assert.False(t, cache.Fresh(now.Add(-301*time.Second)))
	assert.True(t, cache.Fresh(now.Add(-299*time.Second)))

	key := MonthlyKey{SectionID: 1, AcademicYearID: 2, Month: 6, Year: 2024}
	cache.Store(key, CachedMonthly{Timestamp: now.Add(-301 * time.Second)})
	_, ok := cache.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())

	cache.Store(key, CachedMonthly{Timestamp: now.Add(-299 * time.Second)})
	_, ok = cache.Get(key)
	assert.True(t, ok)
}
