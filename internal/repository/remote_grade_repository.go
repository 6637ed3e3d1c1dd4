package repository

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/noah-isme/sma-portal-sync/internal/models"
)

// GradeCell is a subject grade as sent by the API. Grade stays raw so the
// caller decides what counts as malformed.
type GradeCell struct {
	SubjectID   int64           `json:"subject_id"`
	SubjectName string          `json:"subject_name"`
	Grade       json.RawMessage `json:"grade"`
}

// GradeRow is one student's quarter grades.
type GradeRow struct {
	StudentID   int64       `json:"student_id"`
	StudentName string      `json:"student_name"`
	Grades      []GradeCell `json:"grades"`
}

// GradeRemoteRepository reads and writes quarter grades.
type GradeRemoteRepository struct {
	client RemoteClient
}

// NewGradeRemoteRepository constructs the repository.
func NewGradeRemoteRepository(client RemoteClient) *GradeRemoteRepository {
	return &GradeRemoteRepository{client: client}
}

// List returns the grade sheet of the selection.
func (r *GradeRemoteRepository) List(ctx context.Context, sel models.Selection) ([]GradeRow, error) {
	var resp envelope[[]GradeRow]
	if err := r.client.Get(ctx, "grades", selectionQuery(sel), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

type gradeWrite struct {
	AcademicYearID int64                `json:"academic_year_id,omitempty"`
	QuarterID      int64                `json:"quarter_id,omitempty"`
	SectionID      int64                `json:"section_id,omitempty"`
	Items          []models.GradeUpdate `json:"items"`
}

// Save writes updates for the selection in one request.
func (r *GradeRemoteRepository) Save(ctx context.Context, sel models.Selection, updates []models.GradeUpdate) error {
	payload := gradeWrite{
		AcademicYearID: sel.AcademicYearID.Int64,
		QuarterID:      sel.QuarterID.Int64,
		SectionID:      sel.SectionID.Int64,
		Items:          updates,
	}
	return r.client.Send(ctx, http.MethodPost, "grades/bulk", payload, nil)
}
