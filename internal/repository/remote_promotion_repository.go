package repository

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

// PromotionRemoteRepository reads the section promotion report.
type PromotionRemoteRepository struct {
	client RemoteClient
}

// NewPromotionRemoteRepository constructs the repository.
func NewPromotionRemoteRepository(client RemoteClient) *PromotionRemoteRepository {
	return &PromotionRemoteRepository{client: client}
}

type promotionReportResponse struct {
	Data                 []models.PromotionInput `json:"data"`
	CompletionPercentage null.Float64            `json:"completion_percentage"`
}

// Report fetches the report. A gated section comes back as a 403 which the
// transport turns into an incomplete data error. A successful report without
// completion_percentage is a server error.
func (r *PromotionRemoteRepository) Report(ctx context.Context, sel models.Selection) (models.PromotionReport, error) {
	var resp promotionReportResponse
	if err := r.client.Get(ctx, "promotion/report", selectionQuery(sel), &resp); err != nil {
		return models.PromotionReport{}, err
	}
	if !resp.CompletionPercentage.Valid {
		return models.PromotionReport{}, appErrors.Clone(appErrors.ErrServer, "promotion report is missing completion_percentage")
	}
	return models.PromotionReport{CompletionPercentage: resp.CompletionPercentage.Float64, Students: resp.Data}, nil
}

// OfficialReport downloads the report card rendered by the records system. It
// runs under the transport's export timeout.
func (r *PromotionRemoteRepository) OfficialReport(ctx context.Context, sel models.Selection, format string) ([]byte, string, error) {
	q := selectionQuery(sel)
	q.Set("format", format)
	return r.client.Export(ctx, "promotion/report/export", q)
}
