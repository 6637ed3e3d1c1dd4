package repository

import (
	"context"
	"net/url"
	"strconv"

	"github.com/noah-isme/sma-portal-sync/internal/models"
)

// RemoteClient is the transport the remote repositories call through.
type RemoteClient interface {
	Get(ctx context.Context, path string, query url.Values, dest interface{}) error
	Send(ctx context.Context, method, path string, payload, dest interface{}) error
	Export(ctx context.Context, path string, query url.Values) ([]byte, string, error)
}

// envelope is the {"data": ...} wrapper the portal API uses.
type envelope[T any] struct {
	Data T `json:"data"`
}

func selectionQuery(sel models.Selection) url.Values {
	q := url.Values{}
	if sel.AcademicYearID.Valid {
		q.Set("academic_year_id", strconv.FormatInt(sel.AcademicYearID.Int64, 10))
	}
	if sel.QuarterID.Valid {
		q.Set("quarter_id", strconv.FormatInt(sel.QuarterID.Int64, 10))
	}
	if sel.SectionID.Valid {
		q.Set("section_id", strconv.FormatInt(sel.SectionID.Int64, 10))
	}
	return q
}
