package repository

import (
	"context"
	"net/url"
	"strconv"

	"github.com/noah-isme/sma-portal-sync/internal/models"
)

// ScheduleRemoteRepository reads a section's month schedule.
type ScheduleRemoteRepository struct {
	client RemoteClient
}

// NewScheduleRemoteRepository constructs the repository.
func NewScheduleRemoteRepository(client RemoteClient) *ScheduleRemoteRepository {
	return &ScheduleRemoteRepository{client: client}
}

// Month returns schedule days keyed by the API's own date strings.
func (r *ScheduleRemoteRepository) Month(ctx context.Context, req models.ScheduleMonthRequest) (map[string]models.ScheduleDayPayload, error) {
	q := url.Values{}
	q.Set("section_id", strconv.FormatInt(req.SectionID, 10))
	if req.AcademicYearID > 0 {
		q.Set("academic_year_id", strconv.FormatInt(req.AcademicYearID, 10))
	}
	q.Set("month", strconv.Itoa(req.Month))
	q.Set("year", strconv.Itoa(req.Year))

	var resp envelope[map[string]models.ScheduleDayPayload]
	if err := r.client.Get(ctx, "schedules", q, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return map[string]models.ScheduleDayPayload{}, nil
	}
	return resp.Data, nil
}
