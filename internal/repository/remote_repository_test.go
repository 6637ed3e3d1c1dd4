package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
	"github.com/noah-isme/sma-portal-sync/pkg/transport"
)

func newRemote(t *testing.T, mux *http.ServeMux) *transport.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	client, err := transport.New(transport.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return client
}

var testSelection = models.Selection{
	AcademicYearID: null.Int64From(2024),
	QuarterID:      null.Int64From(1),
	SectionID:      null.Int64From(7),
}

func TestGradeRemoteRepositoryList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/grades", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("section_id"))
		assert.Equal(t, "1", r.URL.Query().Get("quarter_id"))
		_, _ = w.Write([]byte(`{"data":[{"student_id":1,"student_name":"Ana","grades":[{"subject_id":10,"grade":88},{"subject_id":11,"grade":null},{"subject_id":12,"grade":"91.5"}]}]}`))
	})
	repo := NewGradeRemoteRepository(newRemote(t, mux))

	rows, err := repo.List(context.Background(), testSelection)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Grades, 3)
	assert.JSONEq(t, `88`, string(rows[0].Grades[0].Grade))
	assert.JSONEq(t, `null`, string(rows[0].Grades[1].Grade))
	assert.JSONEq(t, `"91.5"`, string(rows[0].Grades[2].Grade))
}

func TestAttendanceRemoteRepositoryMonthly(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/attendance/monthly", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("month"))
		_, _ = w.Write([]byte(`{"data":{
			"12":{"student_name":"Budi","monthly_summary":{"present_days":18,"absent_days":2,"half_days":4}},
			"5":{"student_name":"Ana","monthly_summary":{"present_days":20,"absent_days":0,"half_days":0}}
		}}`))
	})
	repo := NewAttendanceRemoteRepository(newRemote(t, mux))

	rows, err := repo.Monthly(context.Background(), models.MonthlyAttendanceRequest{SectionID: 7, Month: 3, Year: 2025})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(5), rows[0].StudentID)
	assert.Equal(t, models.MonthlySummary{PresentDays: 18, AbsentDays: 2, HalfDays: 4}, rows[1].Summary)
}

func TestAttendanceRemoteRepositoryMonthlyRejectsBadKeys(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/attendance/monthly", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"abc":{"monthly_summary":{}}}}`))
	})
	repo := NewAttendanceRemoteRepository(newRemote(t, mux))

	_, err := repo.Monthly(context.Background(), models.MonthlyAttendanceRequest{SectionID: 7, Month: 3, Year: 2025})
	assert.True(t, appErrors.Is(err, appErrors.CodeServer))
}

func TestPromotionRemoteRepositoryReport(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/promotion/report", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"completion_percentage":100,"data":[{"student_id":3,"final_average":90,"attendance_percentage":96}]}`))
	})
	repo := NewPromotionRemoteRepository(newRemote(t, mux))

	report, err := repo.Report(context.Background(), testSelection)
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.CompletionPercentage)
	require.Len(t, report.Students, 1)
	assert.Equal(t, null.Float64From(90), report.Students[0].FinalAverage)
}

func TestPromotionRemoteRepositoryReportWithoutCompletion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/promotion/report", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"student_id":3,"final_average":90,"attendance_percentage":96}]}`))
	})
	repo := NewPromotionRemoteRepository(newRemote(t, mux))

	_, err := repo.Report(context.Background(), testSelection)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.CodeServer))
	_, incomplete := appErrors.CompletionOf(err)
	assert.False(t, incomplete)
}

func TestPromotionRemoteRepositoryGated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/promotion/report", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"incomplete","completion_percentage":62}`))
	})
	repo := NewPromotionRemoteRepository(newRemote(t, mux))

	_, err := repo.Report(context.Background(), testSelection)
	require.Error(t, err)
	pct, ok := appErrors.CompletionOf(err)
	require.True(t, ok)
	assert.Equal(t, 62.0, pct)
}

func TestPromotionRemoteRepositoryOfficialReport(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/promotion/report/export", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pdf", r.URL.Query().Get("format"))
		assert.Equal(t, "7", r.URL.Query().Get("section_id"))
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 official"))
	})
	repo := NewPromotionRemoteRepository(newRemote(t, mux))

	body, contentType, err := repo.OfficialReport(context.Background(), testSelection, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.Equal(t, "%PDF-1.4 official", string(body))
}

func TestScheduleRemoteRepositoryMonthEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/schedules", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null}`))
	})
	repo := NewScheduleRemoteRepository(newRemote(t, mux))

	days, err := repo.Month(context.Background(), models.ScheduleMonthRequest{SectionID: 7, Month: 3, Year: 2025})
	require.NoError(t, err)
	assert.Empty(t, days)
}
