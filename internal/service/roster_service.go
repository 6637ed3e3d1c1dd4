package service

import (
	"context"

	"github.com/noah-isme/sma-portal-sync/internal/aggregate"
	"github.com/noah-isme/sma-portal-sync/internal/models"
)

const (
	bmiContainer      = "bmi"
	textbookContainer = "textbooks"
)

type rosterRemote interface {
	BMI(ctx context.Context, sel models.Selection) ([]models.BMIRecord, error)
	Textbooks(ctx context.Context, sel models.Selection) ([]models.TextbookIssue, error)
}

// BMIService is the health feature container.
type BMIService struct {
	scope  *Scope[aggregate.BMIDistribution]
	remote rosterRemote
}

// NewBMIService constructs the container for role.
func NewBMIService(role models.Role, remote rosterRemote, opts ScopeOptions) *BMIService {
	empty := func() aggregate.BMIDistribution {
		return aggregate.BMIDistribution{Results: []models.BMIResult{}, Counts: map[models.BMICategory]int{}}
	}
	return &BMIService{scope: NewScope(bmiContainer, role, empty, opts), remote: remote}
}

// Scope exposes the container's selection-scoped state.
func (s *BMIService) Scope() *Scope[aggregate.BMIDistribution] { return s.scope }

// Name implements Container.
func (s *BMIService) Name() string { return bmiContainer }

// Snapshot returns the current distribution.
func (s *BMIService) Snapshot() Snapshot[aggregate.BMIDistribution] { return s.scope.Snapshot() }

// Refresh loads and classifies measurements for the active section.
func (s *BMIService) Refresh(ctx context.Context) error {
	_, err := s.scope.Fetch(ctx, RequireSection, func(ctx context.Context, sel models.Selection) (aggregate.BMIDistribution, error) {
		records, err := s.remote.BMI(ctx, sel)
		if err != nil {
			return aggregate.BMIDistribution{}, err
		}
		return aggregate.DistributeBMI(records)
	})
	return err
}

// TextbookService is the textbook feature container.
type TextbookService struct {
	scope  *Scope[aggregate.TextbookSummary]
	remote rosterRemote
}

// NewTextbookService constructs the container for role.
func NewTextbookService(role models.Role, remote rosterRemote, opts ScopeOptions) *TextbookService {
	empty := func() aggregate.TextbookSummary {
		return aggregate.TextbookSummary{Students: []models.TextbookTally{}}
	}
	return &TextbookService{scope: NewScope(textbookContainer, role, empty, opts), remote: remote}
}

// Scope exposes the container's selection-scoped state.
func (s *TextbookService) Scope() *Scope[aggregate.TextbookSummary] { return s.scope }

// Name implements Container.
func (s *TextbookService) Name() string { return textbookContainer }

// Snapshot returns the current summary.
func (s *TextbookService) Snapshot() Snapshot[aggregate.TextbookSummary] { return s.scope.Snapshot() }

// Refresh loads textbook issues for the active section.
func (s *TextbookService) Refresh(ctx context.Context) error {
	_, err := s.scope.Fetch(ctx, RequireSection, func(ctx context.Context, sel models.Selection) (aggregate.TextbookSummary, error) {
		issues, err := s.remote.Textbooks(ctx, sel)
		if err != nil {
			return aggregate.TextbookSummary{}, err
		}
		return aggregate.TallyTextbooks(issues), nil
	})
	return err
}
