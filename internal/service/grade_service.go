package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-portal-sync/internal/aggregate"
	"github.com/noah-isme/sma-portal-sync/internal/models"
	"github.com/noah-isme/sma-portal-sync/internal/repository"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

const gradesContainer = "grades"

type gradeRemote interface {
	List(ctx context.Context, sel models.Selection) ([]repository.GradeRow, error)
	Save(ctx context.Context, sel models.Selection, updates []models.GradeUpdate) error
}

// GradeSheet is the grades container's derived state.
type GradeSheet struct {
	Students []aggregate.StudentGradeSet `json:"students"`
	Summary  aggregate.GradeSummary      `json:"summary"`
}

func emptyGradeSheet() GradeSheet {
	return GradeSheet{Students: []aggregate.StudentGradeSet{}, Summary: aggregate.Summarize(nil)}
}

// BuildGradeSheet decodes wire rows into validated grade sets. Any malformed
// grade rejects the whole sheet.
func BuildGradeSheet(policy aggregate.GradePolicy, rows []repository.GradeRow) (GradeSheet, error) {
	sets := make([]aggregate.StudentGradeSet, 0, len(rows))
	for _, row := range rows {
		entries := make([]models.SubjectGradeEntry, 0, len(row.Grades))
		for _, cell := range row.Grades {
			grade, err := aggregate.ParseGrade(cell.Grade)
			if err != nil {
				return GradeSheet{}, fmt.Errorf("student %d subject %d: %w", row.StudentID, cell.SubjectID, err)
			}
			entries = append(entries, models.SubjectGradeEntry{SubjectID: cell.SubjectID, SubjectName: cell.SubjectName, Grade: grade})
		}
		set, err := policy.NewStudentGradeSet(row.StudentID, row.StudentName, entries)
		if err != nil {
			return GradeSheet{}, err
		}
		sets = append(sets, set)
	}
	aggregate.SortByStudent(sets)
	return GradeSheet{Students: sets, Summary: aggregate.Summarize(sets)}, nil
}

// GradeService is the grades feature container.
type GradeService struct {
	scope     *Scope[GradeSheet]
	remote    gradeRemote
	policy    aggregate.GradePolicy
	validator *validator.Validate
	notifier  notifier
}

// NewGradeService constructs the container for role.
func NewGradeService(role models.Role, remote gradeRemote, policy aggregate.GradePolicy, validate *validator.Validate, opts ScopeOptions) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	return &GradeService{
		scope:     NewScope(gradesContainer, role, emptyGradeSheet, opts),
		remote:    remote,
		policy:    policy,
		validator: validate,
		notifier:  opts.Notifier,
	}
}

// Scope exposes the container's selection-scoped state.
func (s *GradeService) Scope() *Scope[GradeSheet] { return s.scope }

// Name implements Container.
func (s *GradeService) Name() string { return gradesContainer }

// Snapshot returns the current grade sheet.
func (s *GradeService) Snapshot() Snapshot[GradeSheet] { return s.scope.Snapshot() }

// Refresh loads the grade sheet of the active selection.
func (s *GradeService) Refresh(ctx context.Context) error {
	_, err := s.scope.Fetch(ctx, RequireFull, func(ctx context.Context, sel models.Selection) (GradeSheet, error) {
		rows, err := s.remote.List(ctx, sel)
		if err != nil {
			return GradeSheet{}, err
		}
		return BuildGradeSheet(s.policy, rows)
	})
	return err
}

// UpdateGrade writes a single grade.
func (s *GradeService) UpdateGrade(ctx context.Context, update models.GradeUpdate) (Snapshot[GradeSheet], error) {
	return s.BulkUpdate(ctx, models.BulkGradeRequest{Items: []models.GradeUpdate{update}})
}

// BulkUpdate validates the batch against the loaded sheet, writes it remotely
// and then replaces every affected set in one step. Nothing changes locally
// when any item is invalid or the write fails.
func (s *GradeService) BulkUpdate(ctx context.Context, req models.BulkGradeRequest) (Snapshot[GradeSheet], error) {
	if err := s.validator.Struct(req); err != nil {
		return s.scope.Snapshot(), appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	current := s.scope.Snapshot()
	if err := RequireFull(current.Selection); err != nil {
		return current, err
	}
	if !current.Loaded {
		return current, appErrors.Clone(appErrors.ErrValidation, "grade sheet is not loaded")
	}
	// Dry run so a bad item is rejected before anything is sent.
	if _, err := s.policy.ApplyUpdates(current.Data.Students, req.Items); err != nil {
		return current, err
	}
	if err := s.remote.Save(ctx, current.Selection, req.Items); err != nil {
		if !appErrors.Is(err, appErrors.CodeUnauthorized) && s.notifier != nil {
			s.notifier.Error(gradesContainer, err)
		}
		return s.scope.Snapshot(), err
	}
	s.scope.Wrote(current.Selection)
	snap, err := s.scope.Mutate(current.Selection, func(sheet GradeSheet) (GradeSheet, error) {
		sets, err := s.policy.ApplyUpdates(sheet.Students, req.Items)
		if err != nil {
			return sheet, err
		}
		return GradeSheet{Students: sets, Summary: aggregate.Summarize(sets)}, nil
	})
	if err == nil && s.notifier != nil {
		s.notifier.Success(gradesContainer, fmt.Sprintf("%d grade(s) saved", len(req.Items)))
	}
	return snap, err
}
