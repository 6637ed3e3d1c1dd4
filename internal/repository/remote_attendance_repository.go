package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

// AttendanceRemoteRepository reads daily and monthly attendance and records
// daily marks.
type AttendanceRemoteRepository struct {
	client RemoteClient
}

// NewAttendanceRemoteRepository constructs the repository.
func NewAttendanceRemoteRepository(client RemoteClient) *AttendanceRemoteRepository {
	return &AttendanceRemoteRepository{client: client}
}

// Daily lists records of a section between two date keys inclusive.
func (r *AttendanceRemoteRepository) Daily(ctx context.Context, sectionID int64, from, to string) ([]models.AttendanceRecord, error) {
	q := url.Values{}
	q.Set("section_id", strconv.FormatInt(sectionID, 10))
	q.Set("date_from", from)
	q.Set("date_to", to)
	var resp envelope[[]models.AttendanceRecord]
	if err := r.client.Get(ctx, "attendance", q, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

type monthlyEntry struct {
	StudentName string                `json:"student_name"`
	Summary     models.MonthlySummary `json:"monthly_summary"`
}

// Monthly returns per-student monthly summaries. The API keys the response by
// student id.
func (r *AttendanceRemoteRepository) Monthly(ctx context.Context, req models.MonthlyAttendanceRequest) ([]models.StudentMonthlyAttendance, error) {
	q := url.Values{}
	q.Set("section_id", strconv.FormatInt(req.SectionID, 10))
	if req.AcademicYearID > 0 {
		q.Set("academic_year_id", strconv.FormatInt(req.AcademicYearID, 10))
	}
	q.Set("month", strconv.Itoa(req.Month))
	q.Set("year", strconv.Itoa(req.Year))

	var resp envelope[map[string]monthlyEntry]
	if err := r.client.Get(ctx, "attendance/monthly", q, &resp); err != nil {
		return nil, err
	}
	rows := make([]models.StudentMonthlyAttendance, 0, len(resp.Data))
	for key, entry := range resp.Data {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.CodeServer, appErrors.ErrServer.Status,
				fmt.Sprintf("monthly attendance keyed by non-numeric student %q", key))
		}
		rows = append(rows, models.StudentMonthlyAttendance{StudentID: id, StudentName: entry.StudentName, Summary: entry.Summary})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].StudentID < rows[j].StudentID })
	return rows, nil
}

// Mark records daily attendance entries.
func (r *AttendanceRemoteRepository) Mark(ctx context.Context, sectionID int64, records []models.AttendanceRecord) error {
	payload := struct {
		SectionID int64                     `json:"section_id"`
		Records   []models.AttendanceRecord `json:"records"`
	}{SectionID: sectionID, Records: records}
	return r.client.Send(ctx, http.MethodPost, "attendance", payload, nil)
}
