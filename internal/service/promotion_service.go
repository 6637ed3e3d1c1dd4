package service

import (
	"context"
	"fmt"

	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/sma-portal-sync/internal/aggregate"
	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
	"github.com/noah-isme/sma-portal-sync/pkg/export"
)

const promotionContainer = "promotion"

type promotionRemote interface {
	Report(ctx context.Context, sel models.Selection) (models.PromotionReport, error)
	OfficialReport(ctx context.Context, sel models.Selection, format string) ([]byte, string, error)
}

// PromotionView is the promotion container's derived state. State stays
// Unclassified until a complete report for the active selection has been
// classified.
type PromotionView struct {
	State                models.PromotionStatus    `json:"state"`
	CompletionPercentage null.Float64              `json:"completion_percentage"`
	Records              []models.PromotionRecord  `json:"records"`
	Counts               aggregate.PromotionCounts `json:"counts"`
}

func unclassifiedView() PromotionView {
	return PromotionView{
		State:   models.PromotionUnclassified,
		Records: []models.PromotionRecord{},
		Counts:  aggregate.CountPromotion(nil),
	}
}

// PromotionClassified marks a view whose records carry verdicts.
const PromotionClassified models.PromotionStatus = "Classified"

// PromotionService is the promotion feature container.
type PromotionService struct {
	scope   *Scope[PromotionView]
	remote  promotionRemote
	policy  aggregate.PromotionPolicy
	exports *ExportService
}

// NewPromotionService constructs the container for role.
func NewPromotionService(role models.Role, remote promotionRemote, policy aggregate.PromotionPolicy, exports *ExportService, opts ScopeOptions) *PromotionService {
	if exports == nil {
		exports = NewExportService(nil, opts.Logger)
	}
	return &PromotionService{
		scope:   NewScope(promotionContainer, role, unclassifiedView, opts),
		remote:  remote,
		policy:  policy,
		exports: exports,
	}
}

// Scope exposes the container's selection-scoped state.
func (s *PromotionService) Scope() *Scope[PromotionView] { return s.scope }

// Name implements Container.
func (s *PromotionService) Name() string { return promotionContainer }

// Snapshot returns the current view.
func (s *PromotionService) Snapshot() Snapshot[PromotionView] { return s.scope.Snapshot() }

// Refresh fetches and classifies the section report. A report below the
// required completion leaves the view Unclassified and surfaces an incomplete
// data error carrying the percentage.
func (s *PromotionService) Refresh(ctx context.Context) error {
	_, err := s.scope.Fetch(ctx, RequireFull, func(ctx context.Context, sel models.Selection) (PromotionView, error) {
		report, err := s.remote.Report(ctx, sel)
		if err != nil {
			return PromotionView{}, err
		}
		records, err := s.policy.Classify(report)
		if err != nil {
			return PromotionView{}, err
		}
		return PromotionView{
			State:                PromotionClassified,
			CompletionPercentage: null.Float64From(report.CompletionPercentage),
			Records:              records,
			Counts:               aggregate.CountPromotion(records),
		}, nil
	})
	return err
}

// Export renders the classified roster, refreshing first when nothing has
// been classified yet.
func (s *PromotionService) Export(ctx context.Context, format export.Format) (export.Document, error) {
	snap := s.scope.Snapshot()
	if snap.Data.State != PromotionClassified {
		if err := s.Refresh(ctx); err != nil {
			return export.Document{}, err
		}
		snap = s.scope.Snapshot()
	}
	if snap.Data.State != PromotionClassified {
		return export.Document{}, appErrors.Clone(appErrors.ErrValidation, "promotion data is not classified")
	}
	return s.exports.PromotionRoster(format, snap.Selection, snap.Data.Records)
}

// OfficialExport downloads the records system's own rendering of the roster
// for the active selection. The completion gate is enforced remotely, so a
// gated section fails with the same incomplete data error as Refresh.
func (s *PromotionService) OfficialExport(ctx context.Context, format export.Format) (export.Document, error) {
	sel := s.scope.Selection()
	if err := RequireFull(sel); err != nil {
		return export.Document{}, err
	}
	body, contentType, err := s.remote.OfficialReport(ctx, sel, string(format))
	if err != nil {
		return export.Document{}, err
	}
	if contentType == "" {
		contentType = format.ContentType()
	}
	return export.Document{
		Filename:    fmt.Sprintf("promotion_official_%d_%d.%s", sel.SectionID.Int64, sel.QuarterID.Int64, format),
		ContentType: contentType,
		Body:        body,
	}, nil
}
