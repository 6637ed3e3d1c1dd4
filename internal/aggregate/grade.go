// Package aggregate holds the pure derivations that turn raw per-record API
// data into academic standing, attendance rates and promotion verdicts.
// Nothing here performs I/O; empty inputs yield neutral results and malformed
// inputs are rejected.
package aggregate

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/volatiletech/null/v8"

	"github.com/noah-isme/sma-portal-sync/internal/models"
	appErrors "github.com/noah-isme/sma-portal-sync/pkg/errors"
)

// DefaultPassingAverage is the average at or above which a complete set passes.
const DefaultPassingAverage = 75.0

// GradeEvaluation is the derived part of a student grade set.
type GradeEvaluation struct {
	AllSubjectsFilled bool
	Average           null.Float64
	Status            models.GradeStatus
}

// GradePolicy evaluates grade sets against a passing average.
type GradePolicy struct {
	PassingAverage float64
}

// DefaultGradePolicy passes at 75.
func DefaultGradePolicy() GradePolicy {
	return GradePolicy{PassingAverage: DefaultPassingAverage}
}

func (p GradePolicy) passing() float64 {
	if p.PassingAverage <= 0 {
		return DefaultPassingAverage
	}
	return p.PassingAverage
}

// Evaluate derives completeness, average and status from grades. A set with no
// subjects is not complete.
func (p GradePolicy) Evaluate(grades []models.SubjectGradeEntry) GradeEvaluation {
	if len(grades) == 0 {
		return GradeEvaluation{Status: models.GradeStatusIncomplete}
	}
	var sum float64
	for _, g := range grades {
		if !g.Grade.Valid {
			return GradeEvaluation{Status: models.GradeStatusIncomplete}
		}
		sum += g.Grade.Float64
	}
	avg := sum / float64(len(grades))
	status := models.GradeStatusFailing
	if avg >= p.passing() {
		status = models.GradeStatusPassing
	}
	return GradeEvaluation{AllSubjectsFilled: true, Average: null.Float64From(avg), Status: status}
}

// StudentGradeSet is a student's quarter grades together with the fields
// derived from them. The derived fields are private and recomputed by every
// constructor and mutator, so they cannot drift from Grades.
type StudentGradeSet struct {
	studentID   int64
	studentName string
	grades      []models.SubjectGradeEntry
	eval        GradeEvaluation
}

// NewStudentGradeSet validates grades and derives the set.
func (p GradePolicy) NewStudentGradeSet(studentID int64, studentName string, grades []models.SubjectGradeEntry) (StudentGradeSet, error) {
	if studentID <= 0 {
		return StudentGradeSet{}, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	copied := make([]models.SubjectGradeEntry, len(grades))
	seen := make(map[int64]struct{}, len(grades))
	for i, g := range grades {
		if err := ValidateGrade(g.Grade); err != nil {
			return StudentGradeSet{}, err
		}
		if _, dup := seen[g.SubjectID]; dup {
			return StudentGradeSet{}, appErrors.Clone(appErrors.ErrValidation,
				fmt.Sprintf("duplicate subject %d for student %d", g.SubjectID, studentID))
		}
		seen[g.SubjectID] = struct{}{}
		copied[i] = g
	}
	return StudentGradeSet{studentID: studentID, studentName: studentName, grades: copied, eval: p.Evaluate(copied)}, nil
}

// StudentID returns the owning student.
func (s StudentGradeSet) StudentID() int64 { return s.studentID }

// StudentName returns the display name carried with the set.
func (s StudentGradeSet) StudentName() string { return s.studentName }

// Grades returns a copy of the subject grades.
func (s StudentGradeSet) Grades() []models.SubjectGradeEntry {
	out := make([]models.SubjectGradeEntry, len(s.grades))
	copy(out, s.grades)
	return out
}

// AllSubjectsFilled reports whether every subject has a recorded grade.
func (s StudentGradeSet) AllSubjectsFilled() bool { return s.eval.AllSubjectsFilled }

// Average is valid only when every subject is filled.
func (s StudentGradeSet) Average() null.Float64 { return s.eval.Average }

// Status is Passing, Failing or Incomplete.
func (s StudentGradeSet) Status() models.GradeStatus { return s.eval.Status }

// Honor returns the honor tier earned by a passing set.
func (s StudentGradeSet) Honor() models.HonorTier {
	if s.eval.Status != models.GradeStatusPassing {
		return models.HonorNone
	}
	return HonorFor(s.eval.Average.Float64)
}

// WithGrade returns a new set with one subject grade replaced (or added) and
// the derived fields recomputed.
func (p GradePolicy) WithGrade(s StudentGradeSet, subjectID int64, grade null.Float64) (StudentGradeSet, error) {
	if err := ValidateGrade(grade); err != nil {
		return StudentGradeSet{}, err
	}
	grades := s.Grades()
	replaced := false
	for i := range grades {
		if grades[i].SubjectID == subjectID {
			grades[i].Grade = grade
			replaced = true
			break
		}
	}
	if !replaced {
		grades = append(grades, models.SubjectGradeEntry{SubjectID: subjectID, Grade: grade})
	}
	return StudentGradeSet{studentID: s.studentID, studentName: s.studentName, grades: grades, eval: p.Evaluate(grades)}, nil
}

// ApplyUpdates applies a batch of updates and returns a new slice of sets.
// Every update is validated before any is applied; on error the input slice is
// returned untouched alongside the error so callers never hold a half-applied
// batch.
func (p GradePolicy) ApplyUpdates(sets []StudentGradeSet, updates []models.GradeUpdate) ([]StudentGradeSet, error) {
	index := make(map[int64]int, len(sets))
	for i, s := range sets {
		index[s.studentID] = i
	}
	for _, u := range updates {
		if _, ok := index[u.StudentID]; !ok {
			return sets, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("student %d is not in the grade sheet", u.StudentID))
		}
		if err := ValidateGrade(u.Grade); err != nil {
			return sets, err
		}
	}
	next := make([]StudentGradeSet, len(sets))
	copy(next, sets)
	for _, u := range updates {
		i := index[u.StudentID]
		updated, err := p.WithGrade(next[i], u.SubjectID, u.Grade)
		if err != nil {
			return sets, err
		}
		next[i] = updated
	}
	return next, nil
}

type gradeSetView struct {
	StudentID         int64                      `json:"student_id"`
	StudentName       string                     `json:"student_name"`
	Grades            []models.SubjectGradeEntry `json:"grades"`
	AllSubjectsFilled bool                       `json:"all_subjects_filled"`
	Average           null.Float64               `json:"average"`
	Status            models.GradeStatus         `json:"status"`
	Honor             models.HonorTier           `json:"honor,omitempty"`
}

// MarshalJSON exposes the derived fields read-only.
func (s StudentGradeSet) MarshalJSON() ([]byte, error) {
	view := gradeSetView{
		StudentID:         s.studentID,
		StudentName:       s.studentName,
		Grades:            s.grades,
		AllSubjectsFilled: s.eval.AllSubjectsFilled,
		Status:            s.eval.Status,
		Honor:             s.Honor(),
	}
	if s.eval.Average.Valid {
		view.Average = null.Float64From(Round(s.eval.Average.Float64, 2))
	}
	if view.Grades == nil {
		view.Grades = []models.SubjectGradeEntry{}
	}
	return json.Marshal(view)
}

// ValidateGrade rejects values that cannot be a grade. Null is valid.
func ValidateGrade(g null.Float64) error {
	if !g.Valid {
		return nil
	}
	if math.IsNaN(g.Float64) || math.IsInf(g.Float64, 0) || g.Float64 < 0 || g.Float64 > 100 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("grade %v is out of range 0..100", g.Float64))
	}
	return nil
}

// ParseGrade decodes a wire grade value: a JSON number, a numeric string or
// null. Anything else is malformed.
func ParseGrade(raw json.RawMessage) (null.Float64, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return null.Float64{}, nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return null.Float64{}, appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status, "malformed grade")
		}
		trimmed = strings.TrimSpace(s)
		if trimmed == "" {
			return null.Float64{}, appErrors.Clone(appErrors.ErrValidation, "grade is an empty string")
		}
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return null.Float64{}, appErrors.Wrap(err, appErrors.CodeValidation, appErrors.ErrValidation.Status,
			fmt.Sprintf("grade %s is not numeric", trimmed))
	}
	g := null.Float64From(v)
	if err := ValidateGrade(g); err != nil {
		return null.Float64{}, err
	}
	return g, nil
}

// GradeSummary counts standings across a section.
type GradeSummary struct {
	Students   int                      `json:"students"`
	Passing    int                      `json:"passing"`
	Failing    int                      `json:"failing"`
	Incomplete int                      `json:"incomplete"`
	Honors     map[models.HonorTier]int `json:"honors"`
	Average    null.Float64             `json:"average"`
}

// Summarize counts standings and honor tiers. The section average covers
// complete sets only.
func Summarize(sets []StudentGradeSet) GradeSummary {
	summary := GradeSummary{Students: len(sets), Honors: map[models.HonorTier]int{}}
	for _, band := range HonorBands {
		summary.Honors[band.Tier] = 0
	}
	var sum float64
	var complete int
	for _, s := range sets {
		switch s.Status() {
		case models.GradeStatusPassing:
			summary.Passing++
		case models.GradeStatusFailing:
			summary.Failing++
		default:
			summary.Incomplete++
		}
		if tier := s.Honor(); tier != models.HonorNone {
			summary.Honors[tier]++
		}
		if s.Average().Valid {
			sum += s.Average().Float64
			complete++
		}
	}
	if complete > 0 {
		summary.Average = null.Float64From(Round(sum/float64(complete), 2))
	}
	return summary
}

// SortByStudent orders sets by student id.
func SortByStudent(sets []StudentGradeSet) {
	sort.SliceStable(sets, func(i, j int) bool { return sets[i].studentID < sets[j].studentID })
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
