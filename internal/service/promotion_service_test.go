package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/sma-portal-sync/internal/aggregate"
	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
	"github.com/noah-isme/sma-portal-sync/pkg/export"
)

func newTestPromotionService(remote *fakePromotionRemote) *PromotionService {
	svc := NewPromotionService(models.RoleTeacher, remote, aggregate.DefaultPromotionPolicy(), nil, ScopeOptions{})
	svc.Scope().SetSelection(fullSelection(1, 4, 3))
	return svc
}

func completeReport() models.PromotionReport {
	return models.PromotionReport{
		CompletionPercentage: 100,
		Students: []models.PromotionInput{
			{StudentID: 3, StudentName: "Citra", FinalAverage: null.Float64From(96), AttendancePercentage: null.Float64From(99)},
			{StudentID: 1, StudentName: "Adi", FinalAverage: null.Float64From(74.9), AttendancePercentage: null.Float64From(90)},
			{StudentID: 2, StudentName: "Budi", FinalAverage: null.Float64From(80)},
		},
	}
}

func TestPromotionServiceClassifiesCompleteReport(t *testing.T) {
	svc := newTestPromotionService(&fakePromotionRemote{report: completeReport()})
	require.NoError(t, svc.Refresh(context.Background()))

	view := svc.Snapshot().Data
	assert.Equal(t, PromotionClassified, view.State)
	assert.Equal(t, null.Float64From(100), view.CompletionPercentage)
	require.Len(t, view.Records, 3)
	assert.Equal(t, models.PromotionRetained, view.Records[0].PromotionStatus)
	assert.Equal(t, models.PromotionPending, view.Records[1].PromotionStatus)
	assert.Equal(t, models.PromotionPromoted, view.Records[2].PromotionStatus)
	assert.Equal(t, models.HonorWithHigh, view.Records[2].HonorClassification)
	assert.Equal(t, 1, view.Counts.Promoted)
	assert.Equal(t, 1, view.Counts.Retained)
	assert.Equal(t, 1, view.Counts.Pending)
}

func TestPromotionServiceForbiddenCompletionIsIncompleteData(t *testing.T) {
	remote := &fakePromotionRemote{err: appErrors.IncompleteData(62)}
	svc := newTestPromotionService(remote)

	err := svc.Refresh(context.Background())
	require.Error(t, err)
	completion, ok := appErrors.CompletionOf(err)
	require.True(t, ok)
	assert.Equal(t, 62.0, completion)

	snap := svc.Snapshot()
	assert.Equal(t, models.PromotionUnclassified, snap.Data.State)
	assert.Empty(t, snap.Data.Records)
	require.NotNil(t, snap.Error)
	assert.Equal(t, appErrors.CodeIncompleteData, snap.Error.Code)
	assert.Equal(t, 62.0, snap.Error.Details["completion_percentage"])
}

func TestPromotionServiceGatesPartialReport(t *testing.T) {
	report := completeReport()
	report.CompletionPercentage = 99.5
	svc := newTestPromotionService(&fakePromotionRemote{report: report})

	err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.CodeIncompleteData))
	assert.Empty(t, svc.Snapshot().Data.Records)
}

func TestPromotionServiceExportRefreshesFirst(t *testing.T) {
	remote := &fakePromotionRemote{report: completeReport()}
	svc := newTestPromotionService(remote)

	doc, err := svc.Export(context.Background(), export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, "text/csv", doc.ContentType)
	assert.Contains(t, string(doc.Body), "Citra")
	assert.Contains(t, doc.Filename, "promotion_roster_")

	_, err = svc.Export(context.Background(), export.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, 1, remote.calls)
}

func TestPromotionServiceExportFailsWhenIncomplete(t *testing.T) {
	svc := newTestPromotionService(&fakePromotionRemote{err: appErrors.IncompleteData(40)})
	_, err := svc.Export(context.Background(), export.FormatPDF)
	assert.True(t, appErrors.Is(err, appErrors.CodeIncompleteData))
}

func TestPromotionServiceOfficialExport(t *testing.T) {
	remote := &fakePromotionRemote{official: []byte("%PDF-official")}
	svc := newTestPromotionService(remote)

	doc, err := svc.OfficialExport(context.Background(), export.FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "promotion_official_3_4.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "%PDF-official", string(doc.Body))
	assert.Zero(t, remote.calls)

	svc.Scope().SetSelection(models.Selection{SectionID: null.Int64From(3)})
	_, err = svc.OfficialExport(context.Background(), export.FormatPDF)
	assert.True(t, appErrors.Is(err, appErrors.CodeValidation))
}
