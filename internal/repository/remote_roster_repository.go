package repository

import (
	"context"

	"github.com/noah-isme/sma-portal-sync/internal/models"
)

// RosterRemoteRepository reads per-student health and textbook rosters.
type RosterRemoteRepository struct {
	client RemoteClient
}

// NewRosterRemoteRepository constructs the repository.
func NewRosterRemoteRepository(client RemoteClient) *RosterRemoteRepository {
	return &RosterRemoteRepository{client: client}
}

// BMI lists height/weight measurements for the selection.
func (r *RosterRemoteRepository) BMI(ctx context.Context, sel models.Selection) ([]models.BMIRecord, error) {
	var resp envelope[[]models.BMIRecord]
	if err := r.client.Get(ctx, "health/bmi", selectionQuery(sel), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Textbooks lists textbook issues for the selection.
func (r *RosterRemoteRepository) Textbooks(ctx context.Context, sel models.Selection) ([]models.TextbookIssue, error) {
	var resp envelope[[]models.TextbookIssue]
	if err := r.client.Get(ctx, "textbooks", selectionQuery(sel), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
